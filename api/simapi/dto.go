// Package simapi provides the HTTP control surface over the training
// orchestrator: world generation, agent initialization, stepwise
// control, batch and background training, and path retrieval.
package simapi

import (
	"github.com/xrishb/Reinforcement-Learning-Visualizer/domain"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim"
)

// Positions cross the wire as [row, col] pairs; directions and actions
// as their integer encodings. Q-tables are never serialized in
// responses.

// GenerateWorldRequest carries the world generation parameters.
// Omitted fields fall back to the configured defaults.
type GenerateWorldRequest struct {
	Size            int      `json:"size"`
	ObstacleDensity *float64 `json:"obstacle_density"`
}

// InitAgentRequest carries the agent hyperparameters. Omitted fields
// fall back to the conventional defaults.
type InitAgentRequest struct {
	LearningRate    *float64 `json:"learning_rate"`
	DiscountFactor  *float64 `json:"discount_factor"`
	ExplorationRate *float64 `json:"exploration_rate"`
}

// TrainRequest starts a training run. Visualize moves the run to a
// background goroutine and applies the per-episode delay so a frontend
// can animate progress.
type TrainRequest struct {
	Episodes  int  `json:"episodes"`
	MaxSteps  int  `json:"max_steps"`
	Visualize bool `json:"visualize"`
	DelayMs   int  `json:"delay"`
}

// StepRequest carries one externally chosen action index.
type StepRequest struct {
	Action *int `json:"action" binding:"required"`
}

// RestoreAgentRequest names a stored snapshot.
type RestoreAgentRequest struct {
	ID string `json:"id" binding:"required"`
}

// WorldResponse describes the current world geometry.
type WorldResponse struct {
	Width         int      `json:"width"`
	Height        int      `json:"height"`
	Obstacles     [][2]int `json:"obstacles"`
	StartPosition [2]int   `json:"start_position"`
	GoalPosition  [2]int   `json:"goal_position"`
	Path          [][2]int `json:"path,omitempty"`
}

// AgentResponse describes the agent's pose.
type AgentResponse struct {
	Position  [2]int `json:"position"`
	Direction int    `json:"direction"`
}

// StepResponse describes the outcome of one step.
type StepResponse struct {
	Position    [2]int  `json:"position"`
	Direction   int     `json:"direction"`
	Reward      float64 `json:"reward"`
	Done        bool    `json:"done"`
	WorldWidth  int     `json:"world_width"`
	WorldHeight int     `json:"world_height"`
}

// StatusResponse is the wire shape of a training status snapshot.
type StatusResponse struct {
	Running        bool      `json:"running"`
	Paused         bool      `json:"paused"`
	Completed      bool      `json:"completed"`
	CurrentEpisode int       `json:"current_episode"`
	TotalEpisodes  int       `json:"total_episodes"`
	EpisodeRewards []float64 `json:"episode_rewards"`
	EpisodeSteps   []int     `json:"episode_steps"`
	CurrentPath    [][2]int  `json:"current_path"`
	VisitedCells   [][2]int  `json:"visited_cells"`
	AgentPosition  *[2]int   `json:"agent_position,omitempty"`
	AgentDirection *int      `json:"agent_direction,omitempty"`
}

// TrainResultResponse carries the metrics of a synchronous run.
type TrainResultResponse struct {
	EpisodeRewards []float64 `json:"episode_rewards"`
	EpisodeSteps   []int     `json:"episode_steps"`
	GoalsReached   int       `json:"goals_reached"`
}

// SnapshotResponse names the stored snapshot.
type SnapshotResponse struct {
	ID string `json:"id"`
}

func pair(p sim.Position) [2]int {
	return [2]int{p.Row, p.Col}
}

func pairs(positions []sim.Position) [][2]int {
	out := make([][2]int, len(positions))
	for i, p := range positions {
		out[i] = pair(p)
	}
	return out
}

func worldResponse(world sim.World, path []sim.Position) WorldResponse {
	resp := WorldResponse{
		Width:         world.Size(),
		Height:        world.Size(),
		Obstacles:     pairs(world.Obstacles()),
		StartPosition: pair(world.StartPosition()),
		GoalPosition:  pair(world.GoalPosition()),
	}
	if len(path) > 0 {
		resp.Path = pairs(path)
	}
	return resp
}

func agentResponse(state sim.State) AgentResponse {
	return AgentResponse{
		Position:  pair(state.Pos),
		Direction: int(state.Dir),
	}
}

func stepResponse(result *domain.StepResult) StepResponse {
	return StepResponse{
		Position:    pair(result.Position),
		Direction:   int(result.Direction),
		Reward:      result.Reward,
		Done:        result.Done,
		WorldWidth:  result.WorldSize,
		WorldHeight: result.WorldSize,
	}
}

func statusResponse(status domain.TrainingStatus) StatusResponse {
	resp := StatusResponse{
		Running:        status.Running,
		Paused:         status.Paused,
		Completed:      status.Completed,
		CurrentEpisode: status.CurrentEpisode,
		TotalEpisodes:  status.TotalEpisodes,
		EpisodeRewards: status.EpisodeRewards,
		EpisodeSteps:   status.EpisodeSteps,
		CurrentPath:    pairs(status.CurrentPath),
		VisitedCells:   pairs(status.VisitedCells),
	}
	if status.AgentPosition != nil {
		p := pair(*status.AgentPosition)
		resp.AgentPosition = &p
	}
	if status.AgentDirection != nil {
		d := int(*status.AgentDirection)
		resp.AgentDirection = &d
	}
	return resp
}
