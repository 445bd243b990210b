package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/domain"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim/gridworld"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim/qlearn"
)

type memoryArchive struct {
	mu   sync.Mutex
	runs []*domain.TrainingRun
}

func (a *memoryArchive) Save(_ context.Context, run *domain.TrainingRun) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runs = append(a.runs, run)
	return nil
}

func (a *memoryArchive) List(_ context.Context, limit int64) ([]*domain.TrainingRun, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := append([]*domain.TrainingRun(nil), a.runs...)
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (a *memoryArchive) saved() []*domain.TrainingRun {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*domain.TrainingRun(nil), a.runs...)
}

type memorySnapshots struct {
	mu     sync.Mutex
	tables map[uuid.UUID]map[sim.State][]float64
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{tables: make(map[uuid.UUID]map[sim.State][]float64)}
}

func (s *memorySnapshots) Save(_ context.Context, id uuid.UUID, snapshot map[sim.State][]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[id] = snapshot
	return nil
}

func (s *memorySnapshots) Load(_ context.Context, id uuid.UUID) (map[sim.State][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.tables[id]
	if !ok {
		return nil, errors.New("snapshot not found")
	}
	return snapshot, nil
}

func newTestManager(t *testing.T) (*SessionManager, *memoryArchive, *memorySnapshots) {
	t.Helper()
	archive := &memoryArchive{}
	snapshots := newMemorySnapshots()

	manager, err := NewSessionManager(&Config{
		WorldFactory: func(size int, density float64) (sim.World, error) {
			return gridworld.New(size, density, gridworld.WithRand(rand.New(rand.NewSource(1))))
		},
		AgentFactory: func(world sim.World, learningRate, discountFactor, explorationRate float64) (sim.Agent, error) {
			return qlearn.New(qlearn.Config{
				World:           world,
				LearningRate:    learningRate,
				DiscountFactor:  discountFactor,
				ExplorationRate: explorationRate,
				Rand:            rand.New(rand.NewSource(1)),
			})
		},
		Archive:   archive,
		Snapshots: snapshots,
	})
	require.NoError(t, err)
	return manager, archive, snapshots
}

func setupWorldAndAgent(t *testing.T, manager *SessionManager) {
	t.Helper()
	_, err := manager.GenerateWorld(5, 0)
	require.NoError(t, err)
	_, err = manager.InitAgent(0.1, 0.9, 0.3)
	require.NoError(t, err)
}

func waitForCompletion(t *testing.T, manager *SessionManager) domain.TrainingStatus {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if status := manager.Status(); !status.Running {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("training did not complete in time")
	return domain.TrainingStatus{}
}

func TestNewSessionManager(t *testing.T) {
	_, err := NewSessionManager(&Config{})
	assert.ErrorIs(t, err, ErrNilFactory)
}

func TestSessionLifecycle(t *testing.T) {
	t.Run("agent requires a world", func(t *testing.T) {
		manager, _, _ := newTestManager(t)
		_, err := manager.InitAgent(0.1, 0.9, 0.1)
		assert.ErrorIs(t, err, ErrNoWorld)
	})

	t.Run("step requires an agent", func(t *testing.T) {
		manager, _, _ := newTestManager(t)
		_, err := manager.GenerateWorld(5, 0)
		require.NoError(t, err)

		_, err = manager.Step(0)
		assert.ErrorIs(t, err, ErrNoAgent)
	})

	t.Run("regenerating the world discards the agent", func(t *testing.T) {
		manager, _, _ := newTestManager(t)
		setupWorldAndAgent(t, manager)

		_, err := manager.GenerateWorld(6, 0)
		require.NoError(t, err)

		_, err = manager.Agent()
		assert.ErrorIs(t, err, ErrNoAgent)
	})

	t.Run("reset all clears everything", func(t *testing.T) {
		manager, _, _ := newTestManager(t)
		setupWorldAndAgent(t, manager)

		manager.ResetAll()

		_, _, err := manager.World()
		assert.ErrorIs(t, err, ErrNoWorld)
	})
}

func TestManualStep(t *testing.T) {
	manager, _, _ := newTestManager(t)
	setupWorldAndAgent(t, manager)

	t.Run("valid action returns the new pose", func(t *testing.T) {
		result, err := manager.Step(int(sim.TurnRight))
		require.NoError(t, err)

		assert.Equal(t, sim.East, result.Direction)
		assert.Equal(t, sim.StepCost, result.Reward)
		assert.Equal(t, 5, result.WorldSize)

		state, err := manager.Agent()
		require.NoError(t, err)
		assert.Equal(t, sim.East, state.Dir)
	})

	t.Run("out-of-range action is rejected", func(t *testing.T) {
		_, err := manager.Step(7)
		assert.ErrorIs(t, err, ErrInvalidAction)
	})

	t.Run("reset pose returns to the start cell", func(t *testing.T) {
		world, _, err := manager.World()
		require.NoError(t, err)

		result, err := manager.ResetAgentPose()
		require.NoError(t, err)

		assert.Equal(t, world.StartPosition(), result.Position)
		assert.Equal(t, sim.North, result.Direction)
	})
}

func TestTrainSync(t *testing.T) {
	manager, archive, _ := newTestManager(t)
	setupWorldAndAgent(t, manager)

	result, err := manager.TrainSync(20, 300)
	require.NoError(t, err)

	assert.Len(t, result.EpisodeRewards, 20)
	assert.Len(t, result.EpisodeSteps, 20)
	assert.GreaterOrEqual(t, result.GoalsReached, 0)

	status := manager.Status()
	assert.False(t, status.Running)
	assert.True(t, status.Completed)
	assert.Equal(t, 20, status.CurrentEpisode)
	assert.NotNil(t, status.AgentPosition)

	t.Run("finished run is archived", func(t *testing.T) {
		runs := archive.saved()
		require.Len(t, runs, 1)
		assert.Equal(t, 20, runs[0].Episodes)
		assert.Equal(t, 5, runs[0].WorldSize)
		assert.Equal(t, 0.1, runs[0].LearningRate)
		assert.NotEqual(t, uuid.Nil, runs[0].ID)
	})

	t.Run("optimal path is available afterwards", func(t *testing.T) {
		path, err := manager.OptimalPath()
		require.NoError(t, err)
		assert.NotEmpty(t, path)
	})
}

func TestTrainAsync(t *testing.T) {
	t.Run("runs in the background and completes", func(t *testing.T) {
		manager, archive, _ := newTestManager(t)
		setupWorldAndAgent(t, manager)

		require.NoError(t, manager.TrainAsync(10, 200, 0))

		status := waitForCompletion(t, manager)
		assert.True(t, status.Completed)
		assert.Equal(t, 10, status.CurrentEpisode)
		assert.Len(t, archive.saved(), 1)
	})

	t.Run("rejects concurrent runs and conflicting calls", func(t *testing.T) {
		manager, _, _ := newTestManager(t)
		setupWorldAndAgent(t, manager)

		require.NoError(t, manager.TrainAsync(500, 200, 5*time.Millisecond))

		assert.ErrorIs(t, manager.TrainAsync(1, 0, 0), ErrTrainingInProgress)
		_, err := manager.Step(0)
		assert.ErrorIs(t, err, ErrTrainingInProgress)
		_, err = manager.GenerateWorld(5, 0)
		assert.ErrorIs(t, err, ErrTrainingInProgress)
		_, err = manager.OptimalPath()
		assert.ErrorIs(t, err, ErrTrainingInProgress)
		_, err = manager.InitAgent(0.1, 0.9, 0.1)
		assert.ErrorIs(t, err, ErrTrainingInProgress)

		// The run's goroutine owns the agent; polling its pose while
		// it mutates is refused rather than read racily.
		for i := 0; i < 20; i++ {
			_, err = manager.Agent()
			assert.ErrorIs(t, err, ErrTrainingInProgress)
		}

		require.NoError(t, manager.StopTraining())
		waitForCompletion(t, manager)
	})

	t.Run("stop ends the run early", func(t *testing.T) {
		manager, _, _ := newTestManager(t)
		setupWorldAndAgent(t, manager)

		require.NoError(t, manager.TrainAsync(10000, 200, 5*time.Millisecond))
		time.Sleep(50 * time.Millisecond)
		require.NoError(t, manager.StopTraining())

		status := waitForCompletion(t, manager)
		assert.True(t, status.Completed)
		assert.Less(t, status.CurrentEpisode, 10000)
	})

	t.Run("pause is reflected in status and resumable", func(t *testing.T) {
		manager, _, _ := newTestManager(t)
		setupWorldAndAgent(t, manager)

		require.NoError(t, manager.TrainAsync(10000, 200, time.Millisecond))

		paused, err := manager.TogglePause()
		require.NoError(t, err)
		assert.True(t, paused)
		assert.True(t, manager.Status().Paused)

		paused, err = manager.TogglePause()
		require.NoError(t, err)
		assert.False(t, paused)

		require.NoError(t, manager.StopTraining())
		waitForCompletion(t, manager)
	})

	t.Run("signals without a run are rejected", func(t *testing.T) {
		manager, _, _ := newTestManager(t)
		setupWorldAndAgent(t, manager)

		_, err := manager.TogglePause()
		assert.ErrorIs(t, err, ErrNoTraining)
		assert.ErrorIs(t, manager.StopTraining(), ErrNoTraining)
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	manager, _, snapshots := newTestManager(t)
	setupWorldAndAgent(t, manager)

	_, err := manager.TrainSync(5, 200)
	require.NoError(t, err)

	id, err := manager.SnapshotAgent(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	t.Run("restore accepts the stored id", func(t *testing.T) {
		require.NoError(t, manager.RestoreAgent(context.Background(), id))
	})

	t.Run("restore rejects an unknown id", func(t *testing.T) {
		assert.Error(t, manager.RestoreAgent(context.Background(), uuid.New()))
	})

	t.Run("store holds exactly one table", func(t *testing.T) {
		snapshots.mu.Lock()
		defer snapshots.mu.Unlock()
		assert.Len(t, snapshots.tables, 1)
	})
}

func TestRenderReport(t *testing.T) {
	manager, _, _ := newTestManager(t)
	setupWorldAndAgent(t, manager)

	t.Run("fails before any training", func(t *testing.T) {
		assert.ErrorIs(t, manager.RenderReport(io.Discard), ErrNoTrainingData)
	})

	t.Run("writes a report after training", func(t *testing.T) {
		_, err := manager.TrainSync(5, 200)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, manager.RenderReport(&buf))
		assert.NotZero(t, buf.Len())
	})
}
