// Package db
package db

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/types"
)

type Adapter string

const (
	MGO Adapter = "mgo"
)

type Config struct {
	DbAdapter Adapter
	DbName    string
	URL       string
	MinConn   int
	MaxConn   int
	FlushDB   bool

	Logger *zap.Logger
}

type IProof interface {
	InsertProof(ctx context.Context, proof *types.ProofRecord) error
	Proof(ctx context.Context, contentID string) (*types.ProofRecord, error)
	ProofsByBounty(ctx context.Context, bountyID uint64, pagination *types.Pagination) ([]*types.ProofRecord, uint64, error)
}

type IAnalysis interface {
	InsertAnalysis(ctx context.Context, record *types.AnalysisRecord) error
	Analyses(ctx context.Context, kind string, pagination *types.Pagination) ([]*types.AnalysisRecord, error)
}

type ITxRecord interface {
	RecordTx(ctx context.Context, status *types.TxStatus) error
	TxByHash(ctx context.Context, hash string) (*types.TxStatus, error)
}

type Client interface {
	ping(ctx context.Context) error
	dropDatabase(ctx context.Context) error

	IProof
	IAnalysis
	ITxRecord

	Close(ctx context.Context) error
}

func NewClient(cfg Config) (Client, error) {
	switch cfg.DbAdapter {
	case MGO:
		return newMongoDB(cfg)
	default:
		return nil, errors.New("invalid db config")
	}
}
