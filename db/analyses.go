// Package db
package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/types"
)

func (m *mongoDB) InsertAnalysis(ctx context.Context, record *types.AnalysisRecord) error {
	if _, err := m.wrapper.C(cAnalyses).Insert(ctx, record); err != nil {
		m.logger.Warn("cannot insert analysis", zap.String("kind", record.Kind), zap.Error(err))
		return fmt.Errorf("cannot insert analysis: %w", err)
	}
	return nil
}

// Analyses lists the latest analyses, optionally of a single kind.
func (m *mongoDB) Analyses(ctx context.Context, kind string, pagination *types.Pagination) ([]*types.AnalysisRecord, error) {
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}
	if pagination == nil {
		pagination = &types.Pagination{}
	}
	pagination.Sanitize()
	cursor, err := m.wrapper.C(cAnalyses).Find(ctx, filter,
		m.wrapper.FindSetSort("-createdAt"),
		options.Find().SetSkip(int64(pagination.Skip)),
		options.Find().SetLimit(int64(pagination.Limit)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get analyses: %w", err)
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			m.logger.Warn("Error when close cursor", zap.Error(err))
		}
	}()
	records := []*types.AnalysisRecord{}
	for cursor.Next(ctx) {
		record := &types.AnalysisRecord{}
		if err := cursor.Decode(record); err != nil {
			return nil, err
		}
		record.Request = plain(record.Request)
		record.Result = plain(record.Result)
		records = append(records, record)
	}
	return records, nil
}

// plain turns decoded documents into maps and slices so they render as JSON objects.
func plain(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.D:
		m := make(map[string]interface{}, len(t))
		for _, e := range t {
			m[e.Key] = plain(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = plain(e)
		}
		return m
	case primitive.A:
		a := make([]interface{}, len(t))
		for i, e := range t {
			a[i] = plain(e)
		}
		return a
	}
	return v
}
