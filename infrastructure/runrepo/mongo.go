// Package runrepo persists completed training runs in MongoDB.
package runrepo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/domain"
)

const defaultListLimit = 50

// RunRepo handles the persistence of training-run records.
type RunRepo struct {
	collection *mongo.Collection
}

// NewRunRepo creates a new RunRepo with the given MongoDB client,
// database name, and collection name.
func NewRunRepo(client *mongo.Client, dbName, collectionName string) *RunRepo {
	collection := client.Database(dbName).Collection(collectionName)
	return &RunRepo{
		collection: collection,
	}
}

// Save inserts or updates a training run in the archive. The run id is
// stored as a string so records stay readable in the shell.
func (r *RunRepo) Save(ctx context.Context, run *domain.TrainingRun) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	filter := bson.M{"_id": run.ID.String()}
	update := bson.M{
		"$set": bson.M{
			"worldSize":       run.WorldSize,
			"obstacleDensity": run.ObstacleDensity,
			"learningRate":    run.LearningRate,
			"discountFactor":  run.DiscountFactor,
			"explorationRate": run.ExplorationRate,
			"episodes":        run.Episodes,
			"episodeRewards":  run.EpisodeRewards,
			"episodeSteps":    run.EpisodeSteps,
			"goalsReached":    run.GoalsReached,
			"finishedAt":      run.FinishedAt,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return errors.New("unexpected error: " + err.Error())
	}
	return nil
}

// List retrieves up to limit archived runs, most recent first.
func (r *RunRepo) List(ctx context.Context, limit int64) ([]*domain.TrainingRun, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = defaultListLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "finishedAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.New("unexpected error: " + err.Error())
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var records []record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, errors.New("unexpected error: " + err.Error())
	}

	runs := make([]*domain.TrainingRun, 0, len(records))
	for _, rec := range records {
		run, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
