// Package db
package db

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createProofCollectionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.M{"cid": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "bountyId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.M{"submitter": 1}, Options: options.Index().SetSparse(true)},
	}
}

func createAnalysisCollectionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.M{"id": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
}

func createTxCollectionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.M{"hash": 1}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "from", Value: 1}, {Key: "updatedAt", Value: -1}}, Options: options.Index().SetSparse(true)},
	}
}
