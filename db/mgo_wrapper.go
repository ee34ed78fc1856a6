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

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mgo wraps a database. C returns a collection bound copy, so concurrent callers never share state.
type Mgo struct {
	DB  *mongo.Database
	col *mongo.Collection
}

func (w *Mgo) Database(db *mongo.Database) {
	w.DB = db
}

func (w *Mgo) C(name string) *Mgo {
	return &Mgo{DB: w.DB, col: w.DB.Collection(name)}
}

func (w *Mgo) Ping(ctx context.Context) error {
	return w.DB.Client().Ping(ctx, nil)
}

func (w *Mgo) EnsureIndex(ctx context.Context, model []mongo.IndexModel) error {
	var err error
	opts := options.CreateIndexes().SetMaxTime(5 * time.Second)
	if len(model) == 1 {
		_, err = w.col.Indexes().CreateOne(ctx, model[0], opts)
	} else if len(model) > 1 {
		_, err = w.col.Indexes().CreateMany(ctx, model, opts)
	}
	return err
}

func (w *Mgo) Upsert(ctx context.Context, filter interface{}, update interface{},
	opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	opts = append(opts, options.Update().SetUpsert(true))
	return w.col.UpdateOne(ctx, filter, bson.M{"$set": update}, opts...)
}

func (w *Mgo) RemoveAll(ctx context.Context, filter interface{},
	opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	return w.col.DeleteMany(ctx, filter, opts...)
}

func (w *Mgo) Find(ctx context.Context, filter interface{},
	opts ...*options.FindOptions) (*mongo.Cursor, error) {
	return w.col.Find(ctx, filter, opts...)
}

func (w *Mgo) FindOne(ctx context.Context, filter interface{},
	opts ...*options.FindOneOptions) *mongo.SingleResult {
	return w.col.FindOne(ctx, filter, opts...)
}

func (w *Mgo) Count(ctx context.Context, filter interface{},
	opts ...*options.CountOptions) (int64, error) {
	return w.col.CountDocuments(ctx, filter, opts...)
}

func (w *Mgo) Insert(ctx context.Context, document interface{},
	opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	return w.col.InsertOne(ctx, document, opts...)
}

func (w *Mgo) FindSetSort(data string) *options.FindOptions {
	if data[0:1] == "-" {
		return options.Find().SetSort(bson.M{data[1:]: -1})
	}
	return options.Find().SetSort(bson.M{data: 1})
}

func (w *Mgo) DropDatabase(ctx context.Context) error {
	if err := w.DB.Drop(ctx); err != nil {
		return err
	}
	return nil
}
