package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"docuchat/internal/ai"
	"docuchat/internal/api"
	"docuchat/internal/config"
	"docuchat/internal/rag"
	"docuchat/internal/service"
	"docuchat/internal/store"
	"docuchat/internal/worker"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Storage backend: in-memory by default, sqlite for durable deployments.
	var st store.Store
	switch cfg.Store.Backend {
	case "sqlite":
		st, err = store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			logger.Fatal("Failed to initialize store", zap.Error(err))
		}
	default:
		st = store.NewMemoryStore()
	}
	defer st.Close()

	// One invoker per worker kind: the conversational agent and the
	// chunking/retrieval service each run as their own process per call.
	agentInvoker := worker.NewProcess(cfg.Worker.Interpreter, []string{cfg.Worker.AgentScript}, logger)
	ragInvoker := worker.NewProcess(cfg.Worker.Interpreter, []string{cfg.Worker.RAGScript}, logger)

	retriever := rag.NewRetriever(ragInvoker, logger)
	indexer := rag.NewIndexer(ragInvoker, st, logger, cfg.Indexer.QueueSize, cfg.Indexer.Workers)
	runner := ai.NewRunner(agentInvoker, st, retriever, logger)

	chatService := service.NewChatService(st, runner, logger)
	documentService := service.NewDocumentService(st, runner, indexer, logger, cfg.Upload.Dir)

	handler := api.NewHandler(st, chatService, documentService, cfg.Upload.MaxSizeMB*1024*1024)
	router := api.SetupRouter(handler, api.RouterConfig{
		APIKey:       cfg.Admin.APIKey,
		AllowOrigins: []string{"*"},
	})

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting DocuChat server",
			zap.String("address", cfg.Address()),
			zap.String("store", cfg.Store.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	// Drain queued indexing work before exit.
	indexer.Close()

	logger.Info("Server exited")
}
