package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ReachabilityResultsCollection = "reachability_results"

func createIndexes() {
	createReachabilityResultsIndexes()
}

func createReachabilityResultsIndexes() {
	resultsCollection := GetCollection(ReachabilityResultsCollection)
	resultsIndex := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "dataset", Value: 1},
				{Key: "origin", Value: 1},
				{Key: "window", Value: 1},
				{Key: "policy", Value: 1},
				{Key: "destination", Value: 1},
				{Key: "transfers", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "destination", Value: 1}},
		},
	}

	opts := options.CreateIndexes()
	_, err := resultsCollection.Indexes().CreateMany(context.Background(), resultsIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
