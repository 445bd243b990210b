package runrepo

import (
	"time"

	"github.com/google/uuid"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/domain"
)

// record is the stored shape of a training run, with the id as a
// string.
type record struct {
	ID              string    `bson:"_id"`
	WorldSize       int       `bson:"worldSize"`
	ObstacleDensity float64   `bson:"obstacleDensity"`
	LearningRate    float64   `bson:"learningRate"`
	DiscountFactor  float64   `bson:"discountFactor"`
	ExplorationRate float64   `bson:"explorationRate"`
	Episodes        int       `bson:"episodes"`
	EpisodeRewards  []float64 `bson:"episodeRewards"`
	EpisodeSteps    []int     `bson:"episodeSteps"`
	GoalsReached    int       `bson:"goalsReached"`
	FinishedAt      time.Time `bson:"finishedAt"`
}

func (r record) toDomain() (*domain.TrainingRun, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	return &domain.TrainingRun{
		ID:              id,
		WorldSize:       r.WorldSize,
		ObstacleDensity: r.ObstacleDensity,
		LearningRate:    r.LearningRate,
		DiscountFactor:  r.DiscountFactor,
		ExplorationRate: r.ExplorationRate,
		Episodes:        r.Episodes,
		EpisodeRewards:  r.EpisodeRewards,
		EpisodeSteps:    r.EpisodeSteps,
		GoalsReached:    r.GoalsReached,
		FinishedAt:      r.FinishedAt,
	}, nil
}
