package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockout-service/config"
	"stockout-service/internal/api"
	"stockout-service/internal/broker"
	"stockout-service/internal/feature"
	"stockout-service/internal/learner"
	"stockout-service/internal/lifecycle"
	"stockout-service/internal/monitor"
	"stockout-service/internal/pipeline"
	"stockout-service/internal/redisclient"
	"stockout-service/internal/service"
	"stockout-service/internal/store"
	"stockout-service/internal/util"
	"stockout-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting stockout prediction service")

	tp, err := util.InitTracer("stockout-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	builder := feature.NewBuilder(cfg.Pipeline.HashSpace, cfg.Pipeline.CrossHashSpace)
	controller := lifecycle.NewController(db, cfg.Pipeline.ModelName)
	trainer := learner.NewLogisticLearner(cfg.Pipeline.Seed)

	trainPipeline := pipeline.New(db, controller, db, trainer, builder, cfg.Pipeline, redisClient, eventPublisher)
	evaluator := monitor.NewEvaluator(db, controller, redisClient, db, eventPublisher, redisClient, cfg.Drift, cfg.Pipeline.HorizonDays)
	scoring := service.NewScoringService(db, db, redisClient, builder, cfg.Pipeline.ModelName, cfg.Pipeline.DecisionThreshold)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	monitorConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
	monitorWorker := worker.NewMonitorWorker(monitorConsumer, evaluator)
	go func() {
		if err := monitorWorker.Start(workerCtx); err != nil {
			log.Printf("Monitor worker error: %v", err)
		}
	}()

	pipelineConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, "pipeline-runner-group")
	pipelineWorker := worker.NewPipelineWorker(pipelineConsumer, trainPipeline, db, redisClient)
	go func() {
		if err := pipelineWorker.Start(workerCtx); err != nil {
			log.Printf("Pipeline worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(scoring, trainPipeline, evaluator, controller)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	monitorWorker.Stop()
	pipelineWorker.Stop()

	log.Println("Server exited")
}
