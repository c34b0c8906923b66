package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zhouzirui/soothe/backend/internal/config"
	"github.com/zhouzirui/soothe/backend/internal/model/chat"
	"github.com/zhouzirui/soothe/backend/internal/service/reply"
	"github.com/zhouzirui/soothe/backend/internal/service/resources"
	"github.com/zhouzirui/soothe/backend/internal/service/session"
	"github.com/zhouzirui/soothe/backend/internal/storage"
)

// App holds the wired services shared by the API server and the CLI.
type App struct {
	Store     storage.Store
	Engine    *reply.Engine
	Resources *resources.Directory
	Sessions  *session.Service
}

// Build wires storage, the reply engine and the orchestrator from cfg.
// The remote client is constructed once; failing to build it is not fatal.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	client, clientErr := cfg.AI.NewClient(ctx)
	if clientErr != nil {
		logger.Info("remote model unavailable, serving local replies", zap.Error(clientErr))
	} else {
		logger.Info("remote model configured",
			zap.String("provider", cfg.AI.Provider),
			zap.String("model", client.Model()),
		)
	}

	replyCfg := reply.DefaultConfig()
	replyCfg.Temperature = cfg.Reply.Temperature
	replyCfg.MaxOutputTokens = cfg.Reply.MaxOutputTokens
	replyCfg.Timeout = cfg.Reply.Timeout

	engine := reply.NewEngine(replyCfg, client, clientErr, nil, logger)

	mode := chat.EngineLocal
	if engine.RemoteAvailable() {
		mode = chat.EngineRemote
	}

	directory := resources.NewDirectory(cfg.Resources.CountryCode)
	sessions := session.NewService(store, engine, directory, session.Options{
		Mode:   mode,
		Model:  engine.Model(),
		Logger: logger,
	})

	return &App{
		Store:     store,
		Engine:    engine,
		Resources: directory,
		Sessions:  sessions,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.StorageMemory:
		return storage.NewMemoryStore(), nil
	default:
		store, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store %s: %w", cfg.SQLitePath, err)
		}
		return store, nil
	}
}
