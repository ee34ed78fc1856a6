// Package api
package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/db"
	"github.com/bountyboard/bounty-backend/driver"
	"github.com/bountyboard/bounty-backend/metrics"
	"github.com/bountyboard/bounty-backend/types"
)

// ReadModel is the bounty and submission view served by the read endpoints.
type ReadModel interface {
	ListBounties(ctx context.Context) ([]*types.Bounty, error)
	BountyDetails(ctx context.Context, id uint64) (*types.Bounty, error)
	BountyDetailsFor(ctx context.Context, id uint64, viewer string) (*types.Bounty, error)
	Submissions(ctx context.Context, bountyID uint64) ([]*types.Submission, error)
	UserBounties(ctx context.Context, user string) ([]*types.Bounty, error)
	UserSubmissions(ctx context.Context, user string) ([]*types.Submission, error)
	UserReputation(ctx context.Context, user string) (uint64, error)
}

type Analyzer interface {
	AnalyzeBounty(ctx context.Context, draft types.BountyDraft) (*types.BountyAnalysis, error)
	AnalyzeQuality(ctx context.Context, req types.QualityRequest) (*types.QualityAnalysis, error)
}

type Storage interface {
	db.IProof
	db.IAnalysis
	db.ITxRecord
}

type StatusCache interface {
	ServerStatus(ctx context.Context) (*types.ServerStatus, error)
	UpdateServerStatus(ctx context.Context, serverStatus *types.ServerStatus) error
}

type Server struct {
	authorizationSecret string

	readModel   ReadModel
	analyzer    Analyzer
	dbClient    Storage
	cacheClient StatusCache
	blobStore   driver.BlobStore
	metrics     *metrics.Provider

	logger *zap.Logger
}

func (s *Server) SetSecret(secret string) *Server {
	s.authorizationSecret = secret
	return s
}

func (s *Server) SetLogger(logger *zap.Logger) *Server {
	s.logger = logger
	return s
}

func (s *Server) SetReadModel(readModel ReadModel) *Server {
	s.readModel = readModel
	return s
}

func (s *Server) SetAnalyzer(analyzer Analyzer) *Server {
	s.analyzer = analyzer
	return s
}

func (s *Server) SetStorage(db Storage) *Server {
	s.dbClient = db
	return s
}

func (s *Server) SetCache(cache StatusCache) *Server {
	s.cacheClient = cache
	return s
}

func (s *Server) SetBlobStore(store driver.BlobStore) *Server {
	s.blobStore = store
	return s
}

func (s *Server) SetMetrics(provider *metrics.Provider) *Server {
	s.metrics = provider
	return s
}

func (s *Server) lgr(method string) *zap.Logger {
	logger := s.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(zap.String("method", method))
}
