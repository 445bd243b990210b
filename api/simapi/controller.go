package simapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/service"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/service/i"
)

// Defaults applied when a request omits a field.
type Defaults struct {
	WorldSize       int
	ObstacleDensity float64
	Episodes        int
	MaxSteps        int
}

const (
	defaultLearningRate    = 0.1
	defaultDiscountFactor  = 0.9
	defaultExplorationRate = 0.1
)

// Controller exposes the training orchestrator over HTTP.
type Controller struct {
	orchestrator i.Orchestrator
	defaults     Defaults
}

// NewController initializes a Controller.
func NewController(o i.Orchestrator, defaults Defaults) (*Controller, error) {
	if o == nil {
		return nil, errors.New("controller requires an orchestrator")
	}
	return &Controller{
		orchestrator: o,
		defaults:     defaults,
	}, nil
}

// RegisterPublic registers public routes.
func (c *Controller) RegisterPublic(route *gin.RouterGroup) {
	world := route.Group("/world")
	{
		world.POST("", c.generateWorld)
		world.GET("", c.getWorld)
	}

	agent := route.Group("/agent")
	{
		agent.POST("", c.initAgent)
		agent.GET("", c.getAgent)
		agent.POST("/reset", c.resetAgent)
		agent.POST("/snapshot", c.snapshotAgent)
		agent.POST("/restore", c.restoreAgent)
	}

	train := route.Group("/train")
	{
		train.POST("", c.train)
		train.GET("/status", c.trainingStatus)
		train.GET("/path", c.optimalPath)
		train.GET("/report", c.trainingReport)
		train.POST("/pause", c.togglePause)
		train.POST("/stop", c.stopTraining)
	}

	route.POST("/step", c.step)
	route.POST("/reset", c.reset)
	route.GET("/runs", c.listRuns)
}

// RegisterProtected registers protected routes.
func (c *Controller) RegisterProtected(route *gin.RouterGroup) {}

// generateWorld handles world generation requests.
func (c *Controller) generateWorld(ctx *gin.Context) {
	request := GenerateWorldRequest{Size: c.defaults.WorldSize}
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.Size == 0 {
		request.Size = c.defaults.WorldSize
	}
	density := c.defaults.ObstacleDensity
	if request.ObstacleDensity != nil {
		density = *request.ObstacleDensity
	}

	world, err := c.orchestrator.GenerateWorld(request.Size, density)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, worldResponse(world, nil))
}

// getWorld returns the current world, including the optimal path once
// a table has been learned.
func (c *Controller) getWorld(ctx *gin.Context) {
	world, path, err := c.orchestrator.World()
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, worldResponse(world, path))
}

// initAgent handles agent initialization requests.
func (c *Controller) initAgent(ctx *gin.Context) {
	var request InitAgentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alpha := defaultLearningRate
	if request.LearningRate != nil {
		alpha = *request.LearningRate
	}
	gamma := defaultDiscountFactor
	if request.DiscountFactor != nil {
		gamma = *request.DiscountFactor
	}
	epsilon := defaultExplorationRate
	if request.ExplorationRate != nil {
		epsilon = *request.ExplorationRate
	}

	state, err := c.orchestrator.InitAgent(alpha, gamma, epsilon)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, agentResponse(state))
}

// getAgent returns the current agent's pose.
func (c *Controller) getAgent(ctx *gin.Context) {
	state, err := c.orchestrator.Agent()
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, agentResponse(state))
}

// train starts a training run, synchronously or in the background.
func (c *Controller) train(ctx *gin.Context) {
	request := TrainRequest{Episodes: c.defaults.Episodes, MaxSteps: c.defaults.MaxSteps}
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.Episodes <= 0 {
		request.Episodes = c.defaults.Episodes
	}
	if request.MaxSteps <= 0 {
		request.MaxSteps = c.defaults.MaxSteps
	}

	if request.Visualize {
		delay := time.Duration(request.DelayMs) * time.Millisecond
		if err := c.orchestrator.TrainAsync(request.Episodes, request.MaxSteps, delay); err != nil {
			ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusAccepted, gin.H{"message": "Training started in background"})
		return
	}

	result, err := c.orchestrator.TrainSync(request.Episodes, request.MaxSteps)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, TrainResultResponse{
		EpisodeRewards: result.EpisodeRewards,
		EpisodeSteps:   result.EpisodeSteps,
		GoalsReached:   result.GoalsReached,
	})
}

// trainingStatus returns a snapshot of the training loop.
func (c *Controller) trainingStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, statusResponse(c.orchestrator.Status()))
}

// optimalPath returns the greedy path extracted from the learned table.
func (c *Controller) optimalPath(ctx *gin.Context) {
	path, err := c.orchestrator.OptimalPath()
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"path": pairs(path)})
}

// trainingReport renders the training-curve chart.
func (c *Controller) trainingReport(ctx *gin.Context) {
	ctx.Header("Content-Type", "text/html; charset=utf-8")
	if err := c.orchestrator.RenderReport(ctx.Writer); err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
	}
}

// togglePause pauses or resumes the in-flight run.
func (c *Controller) togglePause(ctx *gin.Context) {
	paused, err := c.orchestrator.TogglePause()
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"paused": paused})
}

// stopTraining stops the in-flight run at the next episode boundary.
func (c *Controller) stopTraining(ctx *gin.Context) {
	if err := c.orchestrator.StopTraining(); err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Training stopped"})
}

// step executes one externally chosen action.
func (c *Controller) step(ctx *gin.Context) {
	var request StepRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := c.orchestrator.Step(*request.Action)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, stepResponse(result))
}

// reset discards the world, agent, and all training state.
func (c *Controller) reset(ctx *gin.Context) {
	c.orchestrator.ResetAll()
	ctx.JSON(http.StatusOK, gin.H{"message": "Environment reset successfully"})
}

// resetAgent puts the agent back on the start cell.
func (c *Controller) resetAgent(ctx *gin.Context) {
	result, err := c.orchestrator.ResetAgentPose()
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"position": pair(result.Position),
		"message":  "Agent position reset to start",
	})
}

// snapshotAgent persists the agent's table.
func (c *Controller) snapshotAgent(ctx *gin.Context) {
	id, err := c.orchestrator.SnapshotAgent(ctx.Request.Context())
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, SnapshotResponse{ID: id.String()})
}

// restoreAgent replaces the agent's table with a stored snapshot.
func (c *Controller) restoreAgent(ctx *gin.Context) {
	var request RestoreAgentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := uuid.Parse(request.ID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot id"})
		return
	}

	if err := c.orchestrator.RestoreAgent(ctx.Request.Context(), id); err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Agent table restored"})
}

// listRuns returns archived training runs.
func (c *Controller) listRuns(ctx *gin.Context) {
	runs, err := c.orchestrator.Runs(ctx.Request.Context(), 0)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"runs": runs})
}

// statusFor maps orchestration errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrTrainingInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrNoWorld),
		errors.Is(err, service.ErrNoAgent),
		errors.Is(err, service.ErrNoTraining),
		errors.Is(err, service.ErrInvalidAction),
		errors.Is(err, service.ErrNoTrainingData):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
