package precompute

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/travigo/reachability/pkg/aggregator"
	"github.com/travigo/reachability/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const storeBatchSize = 1000

// writeModels upserts each record on its (dataset, origin, window, policy,
// destination) key. Only best-per-transfer-count keeps a row per transfer
// count, a best-overall row is replaced when its transfer count changes.
func writeModels(records []Record) ([]mongo.WriteModel, error) {
	models := make([]mongo.WriteModel, 0, len(records))

	for _, record := range records {
		bsonRep, err := bson.Marshal(bson.M{"$set": record})
		if err != nil {
			return nil, err
		}

		filter := bson.M{
			"dataset":     record.Dataset,
			"origin":      record.Origin,
			"window":      record.Window,
			"policy":      record.Policy,
			"destination": record.Destination,
		}
		if record.Policy == string(aggregator.PolicyBestPerTransferCount) {
			filter["transfers"] = record.Transfers
		}

		updateModel := mongo.NewUpdateOneModel()
		updateModel.SetFilter(filter)
		updateModel.SetUpdate(bsonRep)
		updateModel.SetUpsert(true)

		models = append(models, updateModel)
	}

	return models, nil
}

// Store writes the records into the results collection in bulk batches.
func Store(ctx context.Context, records []Record) error {
	models, err := writeModels(records)
	if err != nil {
		return err
	}

	resultsCollection := database.GetCollection(database.ReachabilityResultsCollection)

	for start := 0; start < len(models); start += storeBatchSize {
		end := min(start+storeBatchSize, len(models))

		log.Info().Str("collection", database.ReachabilityResultsCollection).Int("Length", end-start).Msg("Bulk write")
		_, err := resultsCollection.BulkWrite(ctx, models[start:end], options.BulkWrite().SetOrdered(false))
		if err != nil {
			return err
		}
	}

	return nil
}
