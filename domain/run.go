// Package domain holds the records exchanged between the orchestration
// service, the API layer, and the persistence collaborators.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim"
)

// TrainingRun is the archived record of one completed training run:
// the world and agent parameters plus the per-episode reward and step
// curves.
type TrainingRun struct {
	ID              uuid.UUID `bson:"_id" json:"id"`
	WorldSize       int       `bson:"worldSize" json:"world_size"`
	ObstacleDensity float64   `bson:"obstacleDensity" json:"obstacle_density"`
	LearningRate    float64   `bson:"learningRate" json:"learning_rate"`
	DiscountFactor  float64   `bson:"discountFactor" json:"discount_factor"`
	ExplorationRate float64   `bson:"explorationRate" json:"exploration_rate"`
	Episodes        int       `bson:"episodes" json:"episodes"`
	EpisodeRewards  []float64 `bson:"episodeRewards" json:"episode_rewards"`
	EpisodeSteps    []int     `bson:"episodeSteps" json:"episode_steps"`
	GoalsReached    int       `bson:"goalsReached" json:"goals_reached"`
	FinishedAt      time.Time `bson:"finishedAt" json:"finished_at"`
}

// TrainingResult aggregates the metrics of a synchronous training
// call.
type TrainingResult struct {
	EpisodeRewards []float64 `json:"episode_rewards"`
	EpisodeSteps   []int     `json:"episode_steps"`
	GoalsReached   int       `json:"goals_reached"`
}

// TrainingStatus is a point-in-time snapshot of the training loop,
// safe to read while a background run is in flight. Paths and cells
// are updated at episode boundaries only.
type TrainingStatus struct {
	Running        bool           `json:"running"`
	Paused         bool           `json:"paused"`
	Completed      bool           `json:"completed"`
	CurrentEpisode int            `json:"current_episode"`
	TotalEpisodes  int            `json:"total_episodes"`
	EpisodeRewards []float64      `json:"episode_rewards"`
	EpisodeSteps   []int          `json:"episode_steps"`
	CurrentPath    []sim.Position `json:"current_path"`
	VisitedCells   []sim.Position `json:"visited_cells"`
	AgentPosition  *sim.Position  `json:"agent_position,omitempty"`
	AgentDirection *sim.Direction `json:"agent_direction,omitempty"`
}

// StepResult is the outcome of a single externally driven step.
type StepResult struct {
	Position  sim.Position  `json:"position"`
	Direction sim.Direction `json:"direction"`
	Reward    float64       `json:"reward"`
	Done      bool          `json:"done"`
	WorldSize int           `json:"world_size"`
}
