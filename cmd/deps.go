package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/casequiz/internal/config"
	"github.com/abhisek/casequiz/internal/engine"
	"github.com/abhisek/casequiz/internal/event"
	"github.com/abhisek/casequiz/internal/lease"
	"github.com/abhisek/casequiz/internal/llm"
	"github.com/abhisek/casequiz/internal/logger"
	"github.com/abhisek/casequiz/internal/store"
	"github.com/abhisek/casequiz/internal/store/mongostore"
)

// deps holds everything a command builds from configuration. Close
// releases it in reverse order of construction.
type deps struct {
	cfg *config.Config
	log *logger.Logger

	repo   store.QuizRepo
	sql    *store.Store // nil when the Mongo driver is used
	engine *engine.Engine

	closers []func()
}

func (r *deps) onClose(f func()) {
	r.closers = append(r.closers, f)
}

func (r *deps) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.log.Sync()
}

// loadDeps reads configuration and opens the store. withEngine also
// builds the LLM provider, lease, event publisher and engine.
func loadDeps(cmd *cobra.Command, withEngine bool) (*deps, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		if err := os.Setenv("CASEQUIZ_DB", db); err != nil {
			return nil, err
		}
	}
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}

	rt := &deps{cfg: cfg, log: log}
	if err := rt.openStore(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	if withEngine {
		if err := rt.buildEngine(ctx); err != nil {
			rt.Close()
			return nil, err
		}
	}
	return rt, nil
}

func (r *deps) openStore(ctx context.Context) error {
	switch r.cfg.DBDriver {
	case config.DriverMongo:
		ms, err := mongostore.Open(ctx, r.cfg.DB, r.cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("open mongo store: %w", err)
		}
		r.repo = ms
		r.onClose(func() { _ = ms.Close(context.Background()) })
		r.log.Info("store opened", "driver", "mongo", "database", r.cfg.MongoDatabase)
		return nil

	case config.DriverPostgres:
		st, err := store.OpenDriver(ctx, store.DriverPostgres, r.cfg.DB)
		if err != nil {
			return fmt.Errorf("open postgres store: %w", err)
		}
		r.useSQL(st)
		r.log.Info("store opened", "driver", "postgres")
		return nil
	}

	path := r.cfg.DB
	if path == "" {
		var err error
		if path, err = store.DefaultDBPath(); err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
	} else if err := store.EnsureDir(path); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	st, err := store.OpenDriver(ctx, store.DriverSQLite, path)
	if err != nil {
		return fmt.Errorf("open sqlite store: %w", err)
	}
	r.useSQL(st)
	r.log.Debug("store opened", "driver", "sqlite", "path", path)
	return nil
}

func (r *deps) useSQL(st *store.Store) {
	r.sql = st
	r.repo = st.QuizRepo()
	r.onClose(func() { _ = st.Close() })
}

func (r *deps) buildEngine(ctx context.Context) error {
	provider := r.buildProvider(ctx)

	var locker lease.Locker = lease.Noop{}
	if r.cfg.RedisURL != "" {
		rl, err := lease.NewRedis(ctx, r.cfg.RedisURL, r.cfg.LeaseTTL, r.log)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		locker = rl
		r.onClose(func() { _ = rl.Close() })
	}

	publisher, err := event.NewAMQPPublisher(r.cfg.AMQPURL, r.cfg.AMQPExchange, r.log)
	if err != nil {
		return fmt.Errorf("connect amqp: %w", err)
	}
	r.onClose(func() { _ = publisher.Close() })

	r.engine = engine.New(r.repo, provider, engine.Options{
		Locker:      locker,
		Events:      publisher,
		Logger:      r.log,
		SessionSize: r.cfg.SessionSize,
	})
	return nil
}

// buildProvider returns nil when no LLM is configured; the engine then
// uses the fallback bank and the heuristic judge.
func (r *deps) buildProvider(ctx context.Context) llm.Provider {
	lcfg, ok := llm.ResolveConfig()
	if !ok {
		r.log.Warn("no LLM provider configured; using the general question bank and heuristic scoring")
		return nil
	}

	var events store.EventRepo
	if r.sql != nil {
		events = r.sql.EventRepo()
	}
	provider, err := llm.NewProvider(ctx, lcfg, events, r.log)
	if err != nil {
		r.log.Warn("LLM provider unavailable", "provider", lcfg.Provider, "error", err)
		return nil
	}
	r.log.Debug("LLM provider ready", "provider", lcfg.Provider, "model", provider.ModelID())
	return provider
}

// eventLog returns the LLM event log, which only SQL stores keep.
func (r *deps) eventLog() (*store.LLMEventRepo, error) {
	if r.sql == nil {
		return nil, errors.New("the LLM event log requires a sqlite or postgres store")
	}
	return r.sql.EventRepo(), nil
}

func userFlag(cmd *cobra.Command) (string, error) {
	u, _ := cmd.Flags().GetString("user")
	u = strings.TrimSpace(u)
	if u == "" {
		return "", errors.New("--user must not be empty")
	}
	return u, nil
}
