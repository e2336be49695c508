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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/agentforge/agentforge/internal/adapter/llm"
	"github.com/agentforge/agentforge/internal/adapter/vector"
	"github.com/agentforge/agentforge/internal/config"
	"github.com/agentforge/agentforge/internal/service"
	"github.com/agentforge/agentforge/internal/store"
	"github.com/agentforge/agentforge/internal/tools"
	httpapi "github.com/agentforge/agentforge/internal/transport/http"
	"github.com/agentforge/agentforge/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting agentforge...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("LLM Model: %s", cfg.LLMModel)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize LLM client
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)

	// Initialize vector client (optional)
	var vectorClient *vector.Client
	if cfg.QdrantURL != "" {
		vectorClient = vector.NewClient(cfg.QdrantURL, llmClient, cfg.EmbeddingModel)
	} else {
		log.Printf("WARN: QDRANT_URL not set, knowledge-base agents will fail at setup")
	}

	// Register builtin tools
	registry := tools.NewRegistry()
	registry.MustRegister(tools.NewVectorSearchTool(vectorClient))
	registry.MustRegister(tools.NewSQLQueryTool(db.DB()))
	registry.MustRegister(tools.NewHTTPFetchTool(cfg.HTTPFetchTimeout))
	registry.MustRegister(tools.NewFileFetchTool(db))
	registry.MustRegister(tools.NewWebSearchTool())

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize tool gateway
	gateway, err := tools.NewGateway(registry, policyEngine)
	if err != nil {
		log.Fatalf("Failed to initialize tool gateway: %v", err)
	}

	// Initialize service and start the dispatcher
	svc := service.New(db, llmClient, vectorClient, gateway, cfg)
	svc.Start()

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Register routes
	h := httpapi.NewHandler(svc)
	h.RegisterRoutes(e)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: server shutdown: %v", err)
	}

	// Drain in-flight runs
	svc.Stop()

	log.Printf("Shutdown complete")
}
