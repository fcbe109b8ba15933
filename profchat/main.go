package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"profchat/profchat/config"
	"profchat/profchat/controllers"
	"profchat/profchat/middlewares"
	"profchat/profchat/routes"
	"profchat/profchat/services/llm"
	"profchat/profchat/sources/pinecone"
	"profchat/profchat/sources/psql"
	"profchat/profchat/sources/storage"
	"profchat/profchat/utils/logging"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)
	defer logging.Sync()

	assistant, err := config.LoadAssistant(cfg.AssistantConfigPath)
	if err != nil {
		logging.ErrorLogger.Fatal("assistant config error", zap.Error(err))
	}

	verifier, err := middlewares.NewVerifier(cfg)
	if err != nil {
		logging.ErrorLogger.Fatal("identity key error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	checks := map[string]controllers.ReadinessCheck{}

	// Embeddings always come from the OpenAI compatible API
	openai := llm.NewGPTClient(llm.GPTConfig{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.CompletionModel,
		EmbeddingModel: cfg.EmbeddingModel,
	})
	checks["embedding"] = credentialCheck("OPENAI_API_KEY", cfg.OpenAIAPIKey)

	var completer controllers.Completer
	switch cfg.LLMProvider {
	case "groq":
		completer = llm.NewGroqClient(cfg.GroqAPIKey, cfg.CompletionModel)
		checks["completion"] = credentialCheck("GROQ_API_KEY", cfg.GroqAPIKey)
	case "ollama":
		completer = llm.NewOllamaClient(cfg.OllamaBaseURL, cfg.CompletionModel)
	case "openai":
		completer = openai
		checks["completion"] = credentialCheck("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	default:
		logging.ErrorLogger.Fatal("unknown LLM_PROVIDER", zap.String("provider", cfg.LLMProvider))
	}

	var index controllers.VectorIndex
	switch cfg.VectorIndex {
	case "pgvector":
		db, err := psql.NewDatabase(ctx, cfg)
		if err != nil {
			logging.ErrorLogger.Fatal("database connection error", zap.Error(err))
		}
		defer db.Close()
		index = psql.NewVectorIndex(db, cfg.PGVectorTable)
		checks["index"] = func(ctx context.Context) error {
			sqlDB, err := db.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	case "pinecone":
		pineconeIndex, err := pinecone.NewIndex(pinecone.Config{
			APIKey:    cfg.PineconeAPIKey,
			IndexName: cfg.PineconeIndex,
			Host:      cfg.PineconeIndexHost,
			Namespace: cfg.PineconeNamespace,
			Timeout:   cfg.IndexTimeout,
		})
		if err != nil {
			logging.ErrorLogger.Fatal("pinecone client error", zap.Error(err))
		}
		index = pineconeIndex
		checks["index"] = credentialCheck("PINECONE_API_KEY", cfg.PineconeAPIKey)
	default:
		logging.ErrorLogger.Fatal("unknown VECTOR_INDEX", zap.String("index", cfg.VectorIndex))
	}

	deps := controllers.ChatDeps{
		Embedder:          openai,
		Index:             index,
		Completer:         completer,
		Assistant:         assistant,
		EmbedTimeout:      cfg.EmbedTimeout,
		IndexTimeout:      cfg.IndexTimeout,
		CompletionTimeout: cfg.CompletionTimeout,
	}
	if cfg.ArchiveEnabled() {
		archive, err := storage.NewTranscriptArchive(ctx, cfg)
		if err != nil {
			// the relay works without the archive
			logging.ErrorLogger.Error("minio connection error, transcripts disabled", zap.Error(err))
		} else {
			deps.Archive = archive
		}
	}
	chatCtrl := controllers.NewChatController(deps)
	healthCtrl := controllers.NewHealthController(checks)

	r := routes.NewRouter(routes.RouterDeps{
		Chat:           chatCtrl,
		Health:         healthCtrl,
		Verifier:       verifier,
		RequireSignIn:  cfg.RequireSignIn,
		Welcome:        assistant.Welcome,
		AllowedOrigins: cfg.AllowedOrigins,
		SignInURL:      cfg.SignInURL,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.AppLogger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("llm_provider", cfg.LLMProvider),
			zap.String("vector_index", cfg.VectorIndex))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}

// credentialCheck reports a missing credential without stopping the server.
func credentialCheck(name, value string) controllers.ReadinessCheck {
	return func(context.Context) error {
		if value == "" {
			return fmt.Errorf("%s is not set", name)
		}
		return nil
	}
}
