// Package api
package api

import (
	"context"

	"github.com/labstack/echo"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/cfg"
	"github.com/bountyboard/bounty-backend/types"
)

func (s *Server) Ping(c echo.Context) error {
	type pingStat struct {
		Version string `json:"version"`
	}
	stats := &pingStat{Version: cfg.ServerVersion}
	return OK.SetData(stats).Build(c)
}

func (s *Server) ServerStatus(c echo.Context) error {
	lgr := s.lgr("ServerStatus")
	ctx := c.Request().Context()
	var status *types.ServerStatus
	if s.cacheClient != nil {
		var err error
		status, err = s.cacheClient.ServerStatus(ctx)
		if err != nil {
			lgr.Warn("Cannot get server status from cache, return default instead", zap.Error(err))
		}
	}
	if status == nil {
		status = &types.ServerStatus{
			Status:        "ONLINE",
			ServerVersion: cfg.ServerVersion,
		}
	}
	return OK.SetData(status).Build(c)
}

func (s *Server) UpdateServerStatus(c echo.Context) error {
	lgr := s.lgr("UpdateServerStatus")
	if s.authorizationSecret == "" || c.Request().Header.Get("Authorization") != s.authorizationSecret {
		lgr.Warn("Cannot authorization request")
		return Unauthorized.Build(c)
	}
	var serverStatus *types.ServerStatus
	if err := c.Bind(&serverStatus); err != nil || serverStatus == nil {
		lgr.Error("cannot bind server status", zap.Error(err))
		return Invalid.Build(c)
	}
	if s.cacheClient == nil {
		return Unavailable.Build(c)
	}
	if err := s.cacheClient.UpdateServerStatus(context.Background(), serverStatus); err != nil {
		lgr.Error("cannot update server status", zap.Error(err))
		return InternalServer.Build(c)
	}
	return OK.SetData(nil).Build(c)
}
