// Package api
package api

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/types"
)

func (s *Server) AnalyzeBounty(c echo.Context) error {
	lgr := s.lgr("AnalyzeBounty")
	var draft types.BountyDraft
	if err := c.Bind(&draft); err != nil {
		lgr.Debug("Cannot bind bounty draft", zap.Error(err))
		return Invalid.Build(c)
	}
	if strings.TrimSpace(draft.Title) == "" && strings.TrimSpace(draft.Description) == "" {
		return Invalid.Build(c)
	}

	start := time.Now()
	res, err := s.analyzer.AnalyzeBounty(c.Request().Context(), draft)
	s.recordAnalysis(types.AnalysisKindBounty, start, err)
	if err != nil {
		lgr.Warn("Bounty analysis failed", zap.Error(err))
		return ErrorResponse(err).Build(c)
	}
	s.saveAnalysis(types.AnalysisKindBounty, draft, res)
	return OK.SetData(res).Build(c)
}

// AnalyzeQuality serves both /analyze-quality and /check-quality. A request naming a
// bounty id gets that bounty's requirements and reward when it carries none.
func (s *Server) AnalyzeQuality(c echo.Context) error {
	lgr := s.lgr("AnalyzeQuality")
	var req types.QualityRequest
	if err := c.Bind(&req); err != nil {
		lgr.Debug("Cannot bind quality request", zap.Error(err))
		return Invalid.Build(c)
	}
	if strings.TrimSpace(req.ProofHash) == "" && strings.TrimSpace(req.Submission) == "" {
		return Invalid.Build(c)
	}
	ctx := c.Request().Context()
	if req.BountyID != nil && (req.Requirements == "" || req.Amount == "") {
		bounty, err := s.readModel.BountyDetails(ctx, *req.BountyID)
		if err != nil {
			return ErrorResponse(err).Build(c)
		}
		if req.Requirements == "" {
			req.Requirements = bounty.Requirements
		}
		if req.Amount == "" {
			req.Amount = bounty.RewardFormatted
		}
	}

	start := time.Now()
	res, err := s.analyzer.AnalyzeQuality(ctx, req)
	s.recordAnalysis(types.AnalysisKindQuality, start, err)
	if err != nil {
		lgr.Warn("Quality analysis failed", zap.Error(err))
		return ErrorResponse(err).SetData(res).Build(c)
	}
	s.saveAnalysis(types.AnalysisKindQuality, req, res)
	return OK.SetData(res).Build(c)
}

func (s *Server) Analyses(c echo.Context) error {
	if s.dbClient == nil {
		return Unavailable.Build(c)
	}
	pagination, page, limit := getPagingOption(c)
	records, err := s.dbClient.Analyses(c.Request().Context(), c.QueryParam("kind"), pagination)
	if err != nil {
		s.lgr("Analyses").Error("Cannot get analyses", zap.Error(err))
		return ErrorResponse(err).Build(c)
	}
	return OK.SetData(PagingResponse{
		Page:  page,
		Limit: limit,
		Data:  records,
	}).Build(c)
}

func (s *Server) recordAnalysis(kind string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordAnalysis(kind, time.Since(start), err)
	}
}

// saveAnalysis keeps an audit copy of the analysis. Storage failures do not fail the request.
func (s *Server) saveAnalysis(kind string, request, result interface{}) {
	if s.dbClient == nil {
		return
	}
	record := &types.AnalysisRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		Request:   request,
		Result:    result,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.dbClient.InsertAnalysis(context.Background(), record); err != nil {
		s.lgr("saveAnalysis").Warn("Cannot store analysis", zap.String("kind", kind), zap.Error(err))
	}
}
