package main

import (
	"context"
	"fmt"
	"log"
	"os"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/depscope/depscope/internal/config"
	"github.com/depscope/depscope/internal/gate"
	"github.com/depscope/depscope/internal/graphstore"
	graphneo4j "github.com/depscope/depscope/internal/graphstore/neo4j"
	"github.com/depscope/depscope/internal/observability"
	"github.com/depscope/depscope/internal/runstore"
	"github.com/depscope/depscope/internal/server"
	temporalmod "github.com/depscope/depscope/internal/temporal"
)

func main() {
	cfg := config.Default()
	if len(os.Args) > 1 {
		loaded, err := config.Load(os.Args[1])
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}

	ctx := context.Background()

	tracing, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:  "depscope-worker",
		OTLPEndpoint: os.Getenv("DEPSCOPE_OTLP_ENDPOINT"),
		SampleRate:   1.0,
	})
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}

	storeDir := cfg.Store.Dir
	if storeDir == "" {
		storeDir = ".depscope"
	}
	runs, err := runstore.NewStore(storeDir)
	if err != nil {
		log.Fatalf("run store: %v", err)
	}

	var graph graphstore.Repository
	if cfg.Graph.URI != "" {
		graph, err = graphneo4j.New(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password)
		if err != nil {
			log.Fatalf("graph store: %v", err)
		}
	}

	temporalmod.SetDependencies(&temporalmod.Dependencies{
		Analysis: cfg.Analysis,
		Gates:    gate.DefaultConfig(),
		Runs:     runs,
		Graph:    graph,
	})

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	fmt.Printf("Worker started on task queue: %s\n", cfg.Temporal.TaskQueue)

	graceful := server.NewGracefulServer(&server.HealthConfig{
		Version: "0.1.0",
		Metrics: observability.Metrics().Handler(),
	}, server.DefaultShutdownConfig())

	graceful.Health.RegisterCheck("temporal", server.TemporalHealthChecker(func(ctx context.Context) error {
		_, err := c.CheckHealth(ctx, &temporalclient.CheckHealthRequest{})
		return err
	}))
	if graph != nil {
		graceful.Health.RegisterCheck("graph-store", server.GraphStoreHealthChecker(func(ctx context.Context) error {
			_, err := graph.QueryDependents(ctx, "healthcheck", "healthcheck")
			return err
		}))
	}
	graceful.Health.RegisterCheck("run-store", server.RunStoreHealthChecker(storeDir, func(ctx context.Context) error {
		_, err := os.Stat(storeDir)
		return err
	}))

	graceful.RegisterHook("temporal-worker", 20, func(ctx context.Context) error {
		w.Stop()
		return nil
	})
	graceful.RegisterHook("tracing", 80, tracing.Shutdown)
	if graph != nil {
		graceful.RegisterHook("graph-store", 90, graph.Close)
	}

	if err := graceful.Start(os.Getenv("DEPSCOPE_HEALTH_ADDR")); err != nil {
		log.Fatalf("health server: %v", err)
	}

	graceful.Wait()
	fmt.Println("Worker stopped")
}
