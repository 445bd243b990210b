package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/api"
	api_i "github.com/xrishb/Reinforcement-Learning-Visualizer/api/i"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/api/simapi"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/config"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/infrastructure/qstore"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/infrastructure/runrepo"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/service"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/service/i"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim/gridworld"
	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim/qlearn"
)

// Global variables for dependencies
var (
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	runArchive     i.RunArchive
	snapshotStore  i.AgentSnapshotStore
	sessionManager i.Orchestrator
	simController  api_i.Controller
	router         *api.Router
	appLogger      *log.Logger
)

func initMongo(ctx context.Context) {
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%v", config.Envs.DBUser, config.Envs.DBPassword, config.Envs.DBHost, config.Envs.DBPort)

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	mongoClient, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err = mongoClient.Ping(ctx, nil); err != nil {
		appLogger.Fatalf("MongoDB ping failed: %v", err)
	}
	appLogger.Println("Connected to MongoDB")
}

func initRedis(ctx context.Context) {
	redisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Envs.RedisHost, config.Envs.RedisPort),
		Password: config.Envs.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Fatalf("Redis ping failed: %v", err)
	}
	appLogger.Println("Connected to Redis")
}

func initRunArchive(client *mongo.Client) {
	runArchive = runrepo.NewRunRepo(client, config.Envs.DBName, "training_runs")
	appLogger.Println("Training-run archive initialized")
}

func initSnapshotStore(client *redis.Client) {
	var err error
	snapshotStore, err = qstore.NewRedisStore(client, config.Envs.SnapshotTTL)
	if err != nil {
		appLogger.Fatalf("Creating snapshot store: %v", err)
	}
	appLogger.Println("Agent snapshot store initialized")
}

func initSessionManager() {
	trainerLogger := log.New(os.Stdout, config.ColorCyan+"[TRAINER] "+config.ColorReset, log.LstdFlags)

	var err error
	sessionManager, err = service.NewSessionManager(&service.Config{
		WorldFactory: func(size int, density float64) (sim.World, error) {
			return gridworld.New(size, density)
		},
		AgentFactory: func(world sim.World, alpha, gamma, epsilon float64) (sim.Agent, error) {
			return qlearn.New(qlearn.Config{
				World:           world,
				LearningRate:    alpha,
				DiscountFactor:  gamma,
				ExplorationRate: epsilon,
				Rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
			})
		},
		Archive:   runArchive,
		Snapshots: snapshotStore,
		Logger:    trainerLogger,
	})
	if err != nil {
		appLogger.Fatalf("Creating session manager: %v", err)
	}
	appLogger.Println("Session manager initialized")
}

func initSimController() {
	var err error
	simController, err = simapi.NewController(sessionManager, simapi.Defaults{
		WorldSize:       config.Envs.DefaultWorldSize,
		ObstacleDensity: config.Envs.DefaultObstacleDensity,
		Episodes:        config.Envs.DefaultEpisodes,
		MaxSteps:        config.Envs.DefaultMaxSteps,
	})
	if err != nil {
		appLogger.Fatalf("Creating sim controller: %v", err)
	}
	appLogger.Println("Sim controller initialized")
}

func initRouter() {
	router = api.NewRouter(api.Config{
		Addr:        fmt.Sprintf("%s:%v", config.Envs.HostIP, config.Envs.RESTPort),
		BaseURL:     "/api",
		Controllers: []api_i.Controller{simController},
	})
	appLogger.Println("Router initialized")
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel() // Ensure the context is always canceled

	gin.SetMode(config.Envs.GinMode)

	// Initialize dependencies
	appLogger = log.New(os.Stdout, config.ColorGreen+"[APP] "+config.ColorReset, log.LstdFlags)

	initMongo(ctx)
	defer func() {
		_ = mongoClient.Disconnect(ctx)
	}()

	initRedis(ctx)
	defer func() {
		_ = redisClient.Close()
	}()

	initRunArchive(mongoClient)
	initSnapshotStore(redisClient)
	initSessionManager()
	initSimController()
	initRouter()

	// Run HTTP server
	if err := router.Run(); err != nil {
		appLogger.Fatalf("Starting server: %v", err)
	}
}
