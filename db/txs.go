// Package db
package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bountyboard/bounty-backend/types"
)

var ErrMissingHash = errors.New("transaction status has no hash")

// RecordTx upserts the latest lifecycle state of a transaction, keyed by hash.
func (m *mongoDB) RecordTx(ctx context.Context, status *types.TxStatus) error {
	if status.Hash == "" {
		return ErrMissingHash
	}
	if _, err := m.wrapper.C(cTxs).Upsert(ctx, bson.M{"hash": status.Hash}, status); err != nil {
		return fmt.Errorf("cannot record tx %s: %w", status.Hash, err)
	}
	return nil
}

func (m *mongoDB) TxByHash(ctx context.Context, hash string) (*types.TxStatus, error) {
	var status types.TxStatus
	if err := m.wrapper.C(cTxs).FindOne(ctx, bson.M{"hash": hash}).Decode(&status); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.ErrNotFound.With(err, "transaction %s not found", hash)
		}
		return nil, err
	}
	return &status, nil
}
