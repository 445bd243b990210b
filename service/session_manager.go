// Package service implements the orchestration layer between the HTTP
// control surface and the simulation core. It owns the live
// world/agent/trainer triple and enforces the single-writer rule over
// them.
package service

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/domain"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/report"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/service/i"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim"
)

// Orchestration errors, mapped to HTTP status codes by the API layer.
var (
	ErrNoWorld            = errors.New("no world has been generated yet")
	ErrNoAgent            = errors.New("no agent has been initialized yet")
	ErrTrainingInProgress = errors.New("training is already in progress")
	ErrNoTraining         = errors.New("no training in progress")
	ErrInvalidAction      = errors.New("action index out of range")
	ErrNoTrainingData     = errors.New("no training data recorded yet")
	ErrNoSnapshotStore    = errors.New("no snapshot store configured")
	ErrNilFactory         = errors.New("session manager requires world and agent factories")
)

const pausePollInterval = 100 * time.Millisecond

// WorldFactory builds a world from generation parameters.
type WorldFactory func(size int, density float64) (sim.World, error)

// AgentFactory builds an agent bound to a world from its
// hyperparameters.
type AgentFactory func(world sim.World, learningRate, discountFactor, explorationRate float64) (sim.Agent, error)

// SessionManager is the single owner of the live simulation objects.
// All access goes through its mutex; the background training loop is
// the only writer of the agent and world while it runs, and signals
// back through atomic flags read at episode boundaries.
type SessionManager struct {
	mu sync.RWMutex

	worldFactory WorldFactory
	agentFactory AgentFactory
	archive      i.RunArchive
	snapshots    i.AgentSnapshotStore
	logger       *log.Logger

	world   sim.World
	agent   sim.Agent
	trainer *sim.Trainer
	agentID uuid.UUID

	worldSize       int
	obstacleDensity float64
	learningRate    float64
	discountFactor  float64
	explorationRate float64

	run      *activeRun
	status   domain.TrainingStatus
	runGoals int
}

// activeRun is the control block shared between the background
// training goroutine and the callers polling or signaling it. The
// goroutine only reads the flags, and only at episode boundaries.
type activeRun struct {
	stopped atomic.Bool
	paused  atomic.Bool
	done    chan struct{}
}

// Config holds the session manager's dependencies.
type Config struct {
	WorldFactory WorldFactory
	AgentFactory AgentFactory
	Archive      i.RunArchive
	Snapshots    i.AgentSnapshotStore
	Logger       *log.Logger
}

// NewSessionManager creates a session manager with no world or agent.
func NewSessionManager(c *Config) (*SessionManager, error) {
	if c.WorldFactory == nil || c.AgentFactory == nil {
		return nil, ErrNilFactory
	}
	logger := c.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &SessionManager{
		worldFactory: c.WorldFactory,
		agentFactory: c.AgentFactory,
		archive:      c.Archive,
		snapshots:    c.Snapshots,
		logger:       logger,
	}, nil
}

// GenerateWorld replaces the current world and discards the agent and
// all training state, since they were bound to the old geometry.
func (m *SessionManager) GenerateWorld(size int, density float64) (sim.World, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running() {
		return nil, ErrTrainingInProgress
	}

	world, err := m.worldFactory(size, density)
	if err != nil {
		return nil, err
	}

	m.world = world
	m.worldSize = size
	m.obstacleDensity = density
	m.agent = nil
	m.trainer = nil
	m.run = nil
	m.status = domain.TrainingStatus{}

	m.logger.Printf("world generated: size=%d density=%.2f start=%v goal=%v",
		size, density, world.StartPosition(), world.GoalPosition())
	return world, nil
}

// World returns the current world and, once any training has run, the
// greedy path extracted from the learned table.
func (m *SessionManager) World() (sim.World, []sim.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.world == nil {
		return nil, nil, ErrNoWorld
	}

	var path []sim.Position
	if m.agent != nil && !m.running() {
		path = m.optimalPathLocked()
	}
	return m.world, path, nil
}

// InitAgent replaces the current agent. The previous table, if any, is
// discarded with the old agent.
func (m *SessionManager) InitAgent(learningRate, discountFactor, explorationRate float64) (sim.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.world == nil {
		return sim.State{}, ErrNoWorld
	}
	if m.running() {
		return sim.State{}, ErrTrainingInProgress
	}

	agent, err := m.agentFactory(m.world, learningRate, discountFactor, explorationRate)
	if err != nil {
		return sim.State{}, err
	}

	m.agent = agent
	m.agentID = uuid.New()
	m.trainer = nil
	m.learningRate = learningRate
	m.discountFactor = discountFactor
	m.explorationRate = explorationRate

	m.logger.Printf("agent %s initialized: alpha=%.3f gamma=%.3f epsilon=%.3f",
		m.agentID, learningRate, discountFactor, explorationRate)
	return agent.State(), nil
}

// Agent returns the agent's current pose. While a run is in flight the
// training goroutine exclusively owns the agent, so the call is
// rejected; Status carries the per-episode snapshots instead.
func (m *SessionManager) Agent() (sim.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.agent == nil {
		return sim.State{}, ErrNoAgent
	}
	if m.running() {
		return sim.State{}, ErrTrainingInProgress
	}
	return m.agent.State(), nil
}

// TrainSync runs the whole training loop on the calling goroutine.
func (m *SessionManager) TrainSync(episodes, maxSteps int) (*domain.TrainingResult, error) {
	m.mu.Lock()
	trainer, err := m.startRunLocked(episodes)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	run := m.run
	m.mu.Unlock()

	m.trainLoop(run, trainer, episodes, maxSteps, 0)

	m.mu.RLock()
	defer m.mu.RUnlock()
	return &domain.TrainingResult{
		EpisodeRewards: append([]float64(nil), m.status.EpisodeRewards...),
		EpisodeSteps:   append([]int(nil), m.status.EpisodeSteps...),
		GoalsReached:   m.runGoals,
	}, nil
}

// TrainAsync starts the training loop on a background goroutine.
// Progress is observed through Status; the run is signaled through
// TogglePause and StopTraining.
func (m *SessionManager) TrainAsync(episodes, maxSteps int, delay time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	trainer, err := m.startRunLocked(episodes)
	if err != nil {
		return err
	}

	go m.trainLoop(m.run, trainer, episodes, maxSteps, delay)
	return nil
}

// startRunLocked validates preconditions and installs a fresh run
// control block. Callers hold the write lock.
func (m *SessionManager) startRunLocked(episodes int) (*sim.Trainer, error) {
	if m.world == nil {
		return nil, ErrNoWorld
	}
	if m.agent == nil {
		return nil, ErrNoAgent
	}
	if m.running() {
		return nil, ErrTrainingInProgress
	}

	trainer, err := sim.NewTrainer(m.agent, m.world, m.logger)
	if err != nil {
		return nil, err
	}

	m.trainer = trainer
	m.run = &activeRun{done: make(chan struct{})}
	m.runGoals = 0
	m.status = domain.TrainingStatus{
		Running:       true,
		TotalEpisodes: episodes,
	}

	m.logger.Printf("starting training for %d episodes", episodes)
	return trainer, nil
}

// trainLoop is the single writer of the agent and world while it runs.
// It checks the stop and pause flags only at episode boundaries, so a
// step is never preempted mid-flight.
func (m *SessionManager) trainLoop(run *activeRun, trainer *sim.Trainer, episodes, maxSteps int, delay time.Duration) {
	defer close(run.done)

	if maxSteps <= 0 {
		maxSteps = sim.DefaultMaxSteps
	}

	for episode := 1; episode <= episodes; episode++ {
		if run.stopped.Load() {
			break
		}
		for run.paused.Load() && !run.stopped.Load() {
			time.Sleep(pausePollInterval)
		}
		if run.stopped.Load() {
			break
		}

		reward, steps := trainer.TrainEpisode(maxSteps)

		m.mu.Lock()
		m.status.CurrentEpisode = episode
		m.status.EpisodeRewards = append(m.status.EpisodeRewards, reward)
		m.status.EpisodeSteps = append(m.status.EpisodeSteps, steps)
		m.status.CurrentPath = trainer.CurrentPath()
		m.status.VisitedCells = trainer.VisitedCells()
		// An episode ends either on goal arrival or on the cutoff, so
		// finishing under the cutoff means the goal was reached.
		if steps < maxSteps {
			m.runGoals++
		}
		m.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
	}

	m.mu.Lock()
	m.status.Running = false
	m.status.Paused = false
	m.status.Completed = true
	record := m.runRecordLocked()
	m.mu.Unlock()

	m.archiveRun(record)
	m.logger.Printf("training finished after %d of %d episodes", record.Episodes, episodes)
}

// runRecordLocked builds the archive record for the finished run.
// Callers hold the write lock.
func (m *SessionManager) runRecordLocked() *domain.TrainingRun {
	return &domain.TrainingRun{
		ID:              uuid.New(),
		WorldSize:       m.worldSize,
		ObstacleDensity: m.obstacleDensity,
		LearningRate:    m.learningRate,
		DiscountFactor:  m.discountFactor,
		ExplorationRate: m.explorationRate,
		Episodes:        len(m.status.EpisodeRewards),
		EpisodeRewards:  append([]float64(nil), m.status.EpisodeRewards...),
		EpisodeSteps:    append([]int(nil), m.status.EpisodeSteps...),
		GoalsReached:    m.runGoals,
		FinishedAt:      time.Now().UTC(),
	}
}

// Status returns a snapshot of the training loop, including the
// agent's live pose when an agent exists.
func (m *SessionManager) Status() domain.TrainingStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := m.status
	status.Running = m.running()
	if status.Running {
		status.Paused = m.run.paused.Load()
	}
	status.EpisodeRewards = append([]float64(nil), m.status.EpisodeRewards...)
	status.EpisodeSteps = append([]int(nil), m.status.EpisodeSteps...)
	status.CurrentPath = append([]sim.Position(nil), m.status.CurrentPath...)
	status.VisitedCells = append([]sim.Position(nil), m.status.VisitedCells...)

	if m.agent != nil && !m.running() {
		pos := m.agent.Position()
		dir := m.agent.Direction()
		status.AgentPosition = &pos
		status.AgentDirection = &dir
	}
	return status
}

// TogglePause flips the pause flag of the in-flight run.
func (m *SessionManager) TogglePause() (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.running() {
		return false, ErrNoTraining
	}
	paused := !m.run.paused.Load()
	m.run.paused.Store(paused)

	if paused {
		m.logger.Println("training paused")
	} else {
		m.logger.Println("training resumed")
	}
	return paused, nil
}

// StopTraining asks the in-flight run to stop at the next episode
// boundary. The call returns immediately; Status reports completion.
func (m *SessionManager) StopTraining() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.running() {
		return ErrNoTraining
	}
	m.run.paused.Store(false)
	m.run.stopped.Store(true)

	m.logger.Println("training stop requested")
	return nil
}

// Step executes one externally chosen action. Rejected while a
// background run owns the agent.
func (m *SessionManager) Step(action int) (*domain.StepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.world == nil {
		return nil, ErrNoWorld
	}
	if m.agent == nil {
		return nil, ErrNoAgent
	}
	if m.running() {
		return nil, ErrTrainingInProgress
	}
	if !sim.Action(action).Valid() {
		return nil, ErrInvalidAction
	}

	_, reward, done := m.agent.Step(sim.Action(action))

	m.status.CurrentPath = append(m.status.CurrentPath, m.agent.Position())
	m.status.VisitedCells = append(m.status.VisitedCells, m.agent.Position())

	return &domain.StepResult{
		Position:  m.agent.Position(),
		Direction: m.agent.Direction(),
		Reward:    reward,
		Done:      done,
		WorldSize: m.world.Size(),
	}, nil
}

// OptimalPath extracts the greedy path from the learned table.
func (m *SessionManager) OptimalPath() ([]sim.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.world == nil {
		return nil, ErrNoWorld
	}
	if m.agent == nil {
		return nil, ErrNoAgent
	}
	if m.running() {
		return nil, ErrTrainingInProgress
	}
	return m.optimalPathLocked(), nil
}

// optimalPathLocked runs the greedy rollout. Callers hold the write
// lock and have checked that no run is in flight.
func (m *SessionManager) optimalPathLocked() []sim.Position {
	if m.trainer == nil {
		trainer, err := sim.NewTrainer(m.agent, m.world, m.logger)
		if err != nil {
			return nil
		}
		m.trainer = trainer
	}
	return m.trainer.FindOptimalPath(0)
}

// ResetAgentPose puts the agent back on the start cell facing North
// and restores the world's agent marker.
func (m *SessionManager) ResetAgentPose() (*domain.StepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.world == nil {
		return nil, ErrNoWorld
	}
	if m.running() {
		return nil, ErrTrainingInProgress
	}

	if marker, ok := m.world.(interface{ ResetAgentMarker() }); ok {
		marker.ResetAgentMarker()
	}

	result := &domain.StepResult{
		Position:  m.world.StartPosition(),
		WorldSize: m.world.Size(),
	}
	if m.agent != nil {
		state := m.agent.Reset()
		result.Position = state.Pos
		result.Direction = state.Dir
	}

	m.logger.Println("agent position reset to start")
	return result, nil
}

// ResetAll discards the world, agent, and all training state. An
// in-flight run is asked to stop first.
func (m *SessionManager) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running() {
		m.run.paused.Store(false)
		m.run.stopped.Store(true)
	}

	m.world = nil
	m.agent = nil
	m.trainer = nil
	m.run = nil
	m.status = domain.TrainingStatus{}

	m.logger.Println("environment reset")
}

// SnapshotAgent persists the agent's table under the agent's id.
func (m *SessionManager) SnapshotAgent(ctx context.Context) (uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.agent == nil {
		return uuid.Nil, ErrNoAgent
	}
	if m.running() {
		return uuid.Nil, ErrTrainingInProgress
	}
	if m.snapshots == nil {
		return uuid.Nil, ErrNoSnapshotStore
	}
	if err := m.snapshots.Save(ctx, m.agentID, m.agent.TableSnapshot()); err != nil {
		return uuid.Nil, err
	}
	return m.agentID, nil
}

// RestoreAgent replaces the agent's table with a stored snapshot.
func (m *SessionManager) RestoreAgent(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.agent == nil {
		return ErrNoAgent
	}
	if m.running() {
		return ErrTrainingInProgress
	}
	if m.snapshots == nil {
		return ErrNoSnapshotStore
	}

	snapshot, err := m.snapshots.Load(ctx, id)
	if err != nil {
		return err
	}
	m.agent.RestoreTable(snapshot)
	return nil
}

// Runs lists archived training runs, most recent first.
func (m *SessionManager) Runs(ctx context.Context, limit int64) ([]*domain.TrainingRun, error) {
	if m.archive == nil {
		return nil, nil
	}
	return m.archive.List(ctx, limit)
}

// RenderReport writes the training-curve chart for the most recent
// run.
func (m *SessionManager) RenderReport(w io.Writer) error {
	m.mu.RLock()
	rewards := append([]float64(nil), m.status.EpisodeRewards...)
	steps := append([]int(nil), m.status.EpisodeSteps...)
	m.mu.RUnlock()

	if len(rewards) == 0 {
		return ErrNoTrainingData
	}
	return report.TrainingCurve(w, rewards, steps)
}

// running reports whether a background run is in flight. Callers hold
// at least the read lock.
func (m *SessionManager) running() bool {
	if m.run == nil {
		return false
	}
	select {
	case <-m.run.done:
		return false
	default:
		return true
	}
}

// archiveRun saves the finished run, tolerating a missing archive.
func (m *SessionManager) archiveRun(run *domain.TrainingRun) {
	if m.archive == nil || run == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.archive.Save(ctx, run); err != nil {
		m.logger.Printf("archiving training run: %v", err)
	}
}
