/*
 *  Copyright 2018 KardiaChain
 *  This file is part of the go-kardia library.
 *
 *  The go-kardia library is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  The go-kardia library is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 *  GNU Lesser General Public License for more details.
 *
 *  You should have received a copy of the GNU Lesser General Public License
 *  along with the go-kardia library. If not, see <http://www.gnu.org/licenses/>.
 */
// Package db
package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	cProofs   = "Proofs"
	cAnalyses = "Analyses"
	cTxs      = "Transactions"
)

type mongoDB struct {
	logger  *zap.Logger
	client  *mongo.Client
	wrapper *Mgo
}

func newMongoDB(cfg Config) (*mongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	mgoOptions := options.Client()
	mgoOptions.ApplyURI(cfg.URL)
	mgoOptions.SetMinPoolSize(uint64(cfg.MinConn))
	mgoOptions.SetMaxPoolSize(uint64(cfg.MaxConn))
	mgoClient, err := mongo.Connect(ctx, mgoOptions)
	if err != nil {
		return nil, err
	}

	dbClient := &mongoDB{
		logger:  cfg.Logger.With(zap.String("db", "mongo")),
		client:  mgoClient,
		wrapper: &Mgo{},
	}
	dbClient.wrapper.Database(mgoClient.Database(cfg.DbName))
	if err := dbClient.ping(ctx); err != nil {
		return nil, err
	}

	if cfg.FlushDB {
		cfg.Logger.Info("Start flush database")
		if err := dbClient.dropDatabase(ctx); err != nil {
			return nil, err
		}
	}
	if err := createIndexes(ctx, dbClient); err != nil {
		dbClient.logger.Warn("Cannot create indexes", zap.Error(err))
		return nil, err
	}

	return dbClient, nil
}

func createIndexes(ctx context.Context, dbClient *mongoDB) error {
	type CIndex struct {
		c     string
		model []mongo.IndexModel
	}

	indexes := []CIndex{
		// one record per content id, proofs are write-once
		{c: cProofs, model: createProofCollectionIndexes()},
		{c: cAnalyses, model: createAnalysisCollectionIndexes()},
		{c: cTxs, model: createTxCollectionIndexes()},
	}
	for _, cIdx := range indexes {
		if err := dbClient.wrapper.C(cIdx.c).EnsureIndex(ctx, cIdx.model); err != nil {
			return err
		}
	}
	return nil
}

//region General

func (m *mongoDB) ping(ctx context.Context) error {
	return m.wrapper.Ping(ctx)
}

func (m *mongoDB) dropDatabase(ctx context.Context) error {
	return m.wrapper.DropDatabase(ctx)
}

func (m *mongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

//endregion General
