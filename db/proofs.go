// Package db
package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/types"
)

// InsertProof stores a proof record. A second record for the same content id yields ErrRecordExist.
func (m *mongoDB) InsertProof(ctx context.Context, proof *types.ProofRecord) error {
	if _, err := m.wrapper.C(cProofs).Insert(ctx, proof); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.ErrRecordExist
		}
		m.logger.Warn("cannot insert proof", zap.String("cid", proof.ContentID), zap.Error(err))
		return fmt.Errorf("cannot insert proof: %w", err)
	}
	return nil
}

func (m *mongoDB) Proof(ctx context.Context, contentID string) (*types.ProofRecord, error) {
	var proof types.ProofRecord
	if err := m.wrapper.C(cProofs).FindOne(ctx, bson.M{"cid": contentID}).Decode(&proof); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.ErrNotFound.With(err, "proof %s not found", contentID)
		}
		return nil, err
	}
	return &proof, nil
}

func (m *mongoDB) ProofsByBounty(ctx context.Context, bountyID uint64, pagination *types.Pagination) ([]*types.ProofRecord, uint64, error) {
	filter := bson.M{"bountyId": bountyID}
	opts := []*options.FindOptions{
		m.wrapper.FindSetSort("-createdAt"),
	}
	if pagination != nil {
		pagination.Sanitize()
		opts = append(opts,
			options.Find().SetSkip(int64(pagination.Skip)),
			options.Find().SetLimit(int64(pagination.Limit)),
		)
	}
	cursor, err := m.wrapper.C(cProofs).Find(ctx, filter, opts...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get proofs: %w", err)
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			m.logger.Warn("Error when close cursor", zap.Error(err))
		}
	}()
	proofs := []*types.ProofRecord{}
	for cursor.Next(ctx) {
		proof := &types.ProofRecord{}
		if err := cursor.Decode(proof); err != nil {
			return nil, 0, err
		}
		proofs = append(proofs, proof)
	}
	total, err := m.wrapper.C(cProofs).Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return proofs, uint64(total), nil
}
