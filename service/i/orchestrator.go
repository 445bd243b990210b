package i

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/domain"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim"
)

// Orchestrator owns the live world/agent/trainer triple and exposes
// every operation the control surface needs. Implementations guarantee
// the single-writer rule: at most one training loop mutates the agent
// and world at any time, and external calls that would touch them are
// rejected while a run is in flight.
type Orchestrator interface {
	// GenerateWorld replaces the current world. Any previous agent and
	// training state is discarded.
	GenerateWorld(size int, density float64) (sim.World, error)

	// World returns the current world and, once a table has been
	// learned, the greedy path extracted from it.
	World() (sim.World, []sim.Position, error)

	// InitAgent replaces the current agent, bound to the current
	// world, and returns its start pose.
	InitAgent(learningRate, discountFactor, explorationRate float64) (sim.State, error)

	// Agent returns the agent's current pose. The live agent is never
	// handed out: while a run is in flight it is owned exclusively by
	// the training goroutine, so the pose is read under the lock and
	// the call is rejected during a run.
	Agent() (sim.State, error)

	// TrainSync runs the full training loop on the calling goroutine
	// and returns the aggregated metrics.
	TrainSync(episodes, maxSteps int) (*domain.TrainingResult, error)

	// TrainAsync starts the training loop on a background goroutine,
	// sleeping delay between episodes so a frontend can animate
	// progress. Progress is observed through Status.
	TrainAsync(episodes, maxSteps int, delay time.Duration) error

	// Status returns a snapshot of the training loop.
	Status() domain.TrainingStatus

	// TogglePause flips the pause flag of the in-flight run and
	// returns the new value.
	TogglePause() (bool, error)

	// StopTraining asks the in-flight run to stop at the next episode
	// boundary.
	StopTraining() error

	// Step executes one externally chosen action on the agent.
	Step(action int) (*domain.StepResult, error)

	// OptimalPath extracts the greedy path from the learned table.
	OptimalPath() ([]sim.Position, error)

	// ResetAgentPose puts the agent back on the start cell.
	ResetAgentPose() (*domain.StepResult, error)

	// ResetAll discards the world, agent, and all training state.
	ResetAll()

	// SnapshotAgent persists the agent's table and returns the
	// snapshot id.
	SnapshotAgent(ctx context.Context) (uuid.UUID, error)

	// RestoreAgent replaces the agent's table with a stored snapshot.
	RestoreAgent(ctx context.Context, id uuid.UUID) error

	// Runs lists archived training runs, most recent first.
	Runs(ctx context.Context, limit int64) ([]*domain.TrainingRun, error)

	// RenderReport writes an HTML training-curve report for the most
	// recent run.
	RenderReport(w io.Writer) error
}

// RunArchive persists completed training runs.
type RunArchive interface {
	Save(ctx context.Context, run *domain.TrainingRun) error
	List(ctx context.Context, limit int64) ([]*domain.TrainingRun, error)
}

// AgentSnapshotStore persists action-value tables as state-key to
// action-value-vector mappings.
type AgentSnapshotStore interface {
	Save(ctx context.Context, id uuid.UUID, snapshot map[sim.State][]float64) error
	Load(ctx context.Context, id uuid.UUID) (map[sim.State][]float64, error)
}
