// Package api
package api

import (
	"github.com/labstack/echo"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/readmodel"
	"github.com/bountyboard/bounty-backend/types"
)

func (s *Server) Bounties(c echo.Context) error {
	lgr := s.lgr("Bounties")
	bounties, err := s.readModel.ListBounties(c.Request().Context())
	if err != nil {
		lgr.Error("Cannot list bounties", zap.Error(err))
		return ErrorResponse(err).Build(c)
	}
	q := readmodel.Query{
		Search: c.QueryParam("search"),
		Sort:   readmodel.SortOrder(c.QueryParam("sort")),
		Status: c.QueryParam("status"),
	}
	return OK.SetData(q.Apply(bounties)).Build(c)
}

func (s *Server) Bounty(c echo.Context) error {
	lgr := s.lgr("Bounty")
	id, ok := bountyID(c)
	if !ok {
		return Invalid.Build(c)
	}
	var (
		bounty *types.Bounty
		err    error
	)
	if viewer := c.QueryParam("viewer"); viewer != "" {
		bounty, err = s.readModel.BountyDetailsFor(c.Request().Context(), id, viewer)
	} else {
		bounty, err = s.readModel.BountyDetails(c.Request().Context(), id)
	}
	if err != nil {
		if !readmodel.IsNotFound(err) {
			lgr.Error("Cannot get bounty", zap.Uint64("id", id), zap.Error(err))
		}
		return ErrorResponse(err).Build(c)
	}
	return OK.SetData(bounty).Build(c)
}

// BountySubmissions lists the readable submissions of a bounty, unreadable ones are left out.
func (s *Server) BountySubmissions(c echo.Context) error {
	lgr := s.lgr("BountySubmissions")
	id, ok := bountyID(c)
	if !ok {
		return Invalid.Build(c)
	}
	submissions, err := s.readModel.Submissions(c.Request().Context(), id)
	if err != nil {
		if !readmodel.IsNotFound(err) {
			lgr.Error("Cannot get submissions", zap.Uint64("id", id), zap.Error(err))
		}
		return ErrorResponse(err).Build(c)
	}
	return OK.SetData(submissions).Build(c)
}

func (s *Server) UserBounties(c echo.Context) error {
	lgr := s.lgr("UserBounties")
	addr, ok := addressParam(c)
	if !ok {
		return Invalid.Build(c)
	}
	bounties, err := s.readModel.UserBounties(c.Request().Context(), addr)
	if err != nil {
		lgr.Error("Cannot get user bounties", zap.String("address", addr), zap.Error(err))
		return ErrorResponse(err).Build(c)
	}
	return OK.SetData(bounties).Build(c)
}

func (s *Server) UserSubmissions(c echo.Context) error {
	lgr := s.lgr("UserSubmissions")
	addr, ok := addressParam(c)
	if !ok {
		return Invalid.Build(c)
	}
	submissions, err := s.readModel.UserSubmissions(c.Request().Context(), addr)
	if err != nil {
		lgr.Error("Cannot get user submissions", zap.String("address", addr), zap.Error(err))
		return ErrorResponse(err).Build(c)
	}
	return OK.SetData(submissions).Build(c)
}

func (s *Server) UserReputation(c echo.Context) error {
	addr, ok := addressParam(c)
	if !ok {
		return Invalid.Build(c)
	}
	reputation, err := s.readModel.UserReputation(c.Request().Context(), addr)
	if err != nil {
		s.lgr("UserReputation").Error("Cannot get reputation", zap.String("address", addr), zap.Error(err))
		return ErrorResponse(err).Build(c)
	}
	return OK.SetData(map[string]interface{}{
		"address":    addr,
		"reputation": reputation,
	}).Build(c)
}
