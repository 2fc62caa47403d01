package cli

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"yatube/admin"
	"yatube/audit"
	"yatube/cache"
	"yatube/config"
	"yatube/database"
	"yatube/graph"
	"yatube/handlers"
	"yatube/messaging"
	"yatube/metrics"
	"yatube/services"
	"yatube/storage"
	"yatube/utils"
)

// app owns every connection the server opens. Optional backends that are not
// configured fall back to in-process stand-ins.
type app struct {
	cfg *config.Config
	log *slog.Logger
	db  *gorm.DB

	cache  cache.PageCache
	events messaging.Publisher
	graph  services.FollowGraph
	audit  audit.Log

	closers []func(context.Context)
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		cache:  cache.Noop{},
		events: messaging.Noop{},
		audit:  &audit.Memory{},
	}
	a.onClose(func(context.Context) { database.Close(db, log) })

	if cfg.Redis.Addr != "" {
		r, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, log)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.cache = r
		a.onClose(func(context.Context) { r.Close() })
	}

	if cfg.NATS.URL != "" {
		n, err := messaging.Connect(cfg.NATS.URL, log)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.events = n
		a.onClose(func(context.Context) { n.Close() })
	}

	if cfg.Neo4j.URI != "" {
		g, err := graph.Connect(ctx, cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Pass, log)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.graph = g
		a.onClose(func(ctx context.Context) { g.Close(ctx) })
	}

	if cfg.Mongo.URI != "" {
		m, err := audit.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, log)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.audit = m
		a.onClose(func(ctx context.Context) { m.Disconnect(ctx) })
	}
	return a, nil
}

func (a *app) onClose(fn func(context.Context)) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
	a.closers = nil
}

func (a *app) deps() handlers.Deps {
	m := metrics.New()
	media := storage.NewLocal(a.cfg.MediaRoot)
	return handlers.Deps{
		Content:     services.NewContentService(a.db, media, a.events, m, a.log),
		Follows:     services.NewFollowService(a.db, a.graph, a.events, m, a.log),
		Users:       services.NewUserService(a.db, a.log),
		Admin:       admin.NewService(a.db, a.audit, a.events, media, a.log),
		Tokens:      utils.NewTokenManager(a.cfg.JWTSecret),
		Cache:       a.cache,
		IndexTTL:    a.cfg.Redis.IndexTTL,
		Metrics:     m,
		MediaRoot:   a.cfg.MediaRoot,
		CORSOrigins: a.cfg.CORSOrigins,
		Log:         a.log,
	}
}
