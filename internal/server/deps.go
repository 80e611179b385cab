package server

import (
	"context"
	"fmt"
	"net"

	"robohub/internal/apiclient"
	"robohub/internal/config"
	"robohub/internal/database"
	"robohub/internal/pricing"
	"robohub/internal/session"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps are the long-lived collaborators shared by the gateway and the CLI.
type Deps struct {
	API     *apiclient.Client
	Session *session.Store
	Rates   pricing.Rates

	db    *database.Service
	redis *redis.Client
}

// NewDeps builds the session store for cfg.Session.Driver and the backend
// client reading its token from that store. The session is not restored yet.
func NewDeps(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Deps, error) {
	d := &Deps{Rates: pricing.NewRates(cfg.Pricing.SavingsRate, cfg.Pricing.TaxRate)}

	tokens, err := d.openTokenStore(ctx, cfg, logger)
	if err != nil {
		d.Close()
		return nil, err
	}

	d.Session = session.NewStore(tokens, logger)
	d.API = apiclient.New(cfg.API.BaseURL, d.Session, logger, apiclient.WithTimeout(cfg.API.Timeout))
	d.Session.Connect(d.API)
	return d, nil
}

func (d *Deps) openTokenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.TokenStore, error) {
	switch cfg.Session.Driver {
	case "", "file":
		return session.NewFileTokenStore(cfg.Session.File), nil
	case "memory":
		return session.NewMemoryTokenStore(), nil
	case "redis":
		d.redis = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := d.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		return session.NewRedisTokenStore(d.redis, cfg.Session.Key), nil
	case "postgres":
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		d.db = db
		if err := database.RunMigrations(db.DB(), logger); err != nil {
			return nil, err
		}
		return session.NewPostgresTokenStore(db.DB(), cfg.Session.Key), nil
	default:
		return nil, fmt.Errorf("unknown session driver %q", cfg.Session.Driver)
	}
}

// Health reports the state of the session backing stores, if any.
func (d *Deps) Health(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{"status": "ok"}
	if d.db != nil {
		health["database"] = d.db.Health(ctx)
	}
	if d.redis != nil {
		status := "up"
		if err := d.redis.Ping(ctx).Err(); err != nil {
			status = "down"
		}
		health["redis"] = status
	}
	return health
}

// Close releases the backing stores.
func (d *Deps) Close() error {
	var firstErr error
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			firstErr = err
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
