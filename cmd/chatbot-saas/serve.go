package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/ain9900/custom-chatbot-saas/internal/bots"
	"github.com/ain9900/custom-chatbot-saas/internal/channel"
	"github.com/ain9900/custom-chatbot-saas/internal/channel/adapters/messenger"
	"github.com/ain9900/custom-chatbot-saas/internal/channel/adapters/widget"
	"github.com/ain9900/custom-chatbot-saas/internal/channel/bindings"
	"github.com/ain9900/custom-chatbot-saas/internal/completion"
	"github.com/ain9900/custom-chatbot-saas/internal/config"
	"github.com/ain9900/custom-chatbot-saas/internal/conversation/flow"
	"github.com/ain9900/custom-chatbot-saas/internal/db"
	dbsqlc "github.com/ain9900/custom-chatbot-saas/internal/db/sqlc"
	"github.com/ain9900/custom-chatbot-saas/internal/dedupe"
	"github.com/ain9900/custom-chatbot-saas/internal/embeddings"
	"github.com/ain9900/custom-chatbot-saas/internal/handlers"
	"github.com/ain9900/custom-chatbot-saas/internal/healthcheck"
	channelchecker "github.com/ain9900/custom-chatbot-saas/internal/healthcheck/checkers/channel"
	postgreschecker "github.com/ain9900/custom-chatbot-saas/internal/healthcheck/checkers/postgres"
	qdrantchecker "github.com/ain9900/custom-chatbot-saas/internal/healthcheck/checkers/qdrant"
	"github.com/ain9900/custom-chatbot-saas/internal/identity"
	"github.com/ain9900/custom-chatbot-saas/internal/memory"
	"github.com/ain9900/custom-chatbot-saas/internal/retrieval"
	"github.com/ain9900/custom-chatbot-saas/internal/secrets"
	"github.com/ain9900/custom-chatbot-saas/internal/server"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideDBQueries,
			provideSecretsBox,
			provideRetrieval,
			provideCompleter,
			provideMemoryStore,
			provideMemoryService,
			provideMemoryJanitor,
			bots.NewService,
			provideBindingService,
			identity.NewServiceResolver,
			provideChannelRegistry,
			provideDispatcher,
			provideDedupeCache,
			provideOrchestrator,
			provideServerHandler(provideHealthHandler),
			provideServerHandler(handlers.NewChatbotsHandler),
			provideServerHandler(handlers.NewMemoryHandler),
			provideServerHandler(handlers.NewChannelBindingsHandler),
			provideServerHandler(widget.NewWebhookServerHandler),
			provideServerHandler(messenger.NewWebhookServerHandler),
			provideServer,
		),
		fx.Invoke(
			startMemoryJanitor,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideDBQueries(conn *pgxpool.Pool) *dbsqlc.Queries {
	return dbsqlc.New(conn)
}

func provideSecretsBox(cfg config.Config) (*secrets.Box, error) {
	box, err := secrets.NewBox(cfg.Secrets.Key)
	if err != nil {
		return nil, fmt.Errorf("secrets key: %w", err)
	}
	return box, nil
}

type retrievalResult struct {
	fx.Out
	Retriever retrieval.Retriever
	Ingester  retrieval.Ingester
	Health    *qdrantchecker.Checker
}

// provideRetrieval builds one index that serves both lookups and document
// ingestion, so a chatbot reads back what it was fed.
func provideRetrieval(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (retrievalResult, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Retrieval.Backend))
	switch backend {
	case config.RetrievalBackendNone, "":
		log.Info("retrieval disabled")
		return retrievalResult{Retriever: retrieval.Noop{}, Ingester: retrieval.Noop{}}, nil
	case config.RetrievalBackendQdrant:
	default:
		return retrievalResult{}, fmt.Errorf("unknown retrieval backend: %s", cfg.Retrieval.Backend)
	}

	client, err := retrieval.NewQdrantClient(cfg.Qdrant)
	if err != nil {
		return retrievalResult{}, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	embedder := embeddings.NewOpenAIEmbedder(log, embeddings.OpenAIConfig{
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    config.Duration(cfg.Embedding.Timeout, 15*time.Second),
	})
	index := retrieval.NewQdrantIndex(log, client, embedder, cfg.Retrieval.ChunkWords, cfg.Retrieval.ChunkOverlap)
	log.Info("retrieval enabled",
		slog.String("backend", backend),
		slog.String("qdrant_host", cfg.Qdrant.Host),
		slog.Int("qdrant_port", cfg.Qdrant.Port),
	)
	return retrievalResult{Retriever: index, Ingester: index, Health: qdrantchecker.NewChecker(client)}, nil
}

func provideCompleter(log *slog.Logger, cfg config.Config) (completion.Completer, error) {
	return completion.New(log, cfg.Completion)
}

func provideMemoryStore(log *slog.Logger, cfg config.Config, conn *pgxpool.Pool, queries *dbsqlc.Queries) (memory.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Memory.Backend)) {
	case config.MemoryBackendPostgres, "":
		return memory.NewPostgresStore(conn, queries), nil
	case config.MemoryBackendLocal:
		log.Warn("conversation memory is process local and lost on restart")
		return memory.NewLocalStore(), nil
	default:
		return nil, fmt.Errorf("unknown memory backend: %s", cfg.Memory.Backend)
	}
}

func provideMemoryService(log *slog.Logger, cfg config.Config, store memory.Store) *memory.Service {
	return memory.NewService(log, store, memory.Options{
		WindowSize: cfg.Memory.WindowSize,
		Expiry:     config.Duration(cfg.Memory.Expiry, memory.DefaultExpiry),
	})
}

func provideMemoryJanitor(log *slog.Logger, cfg config.Config, svc *memory.Service) *memory.Janitor {
	return memory.NewJanitor(log, svc, cfg.Memory.SweepSchedule)
}

func provideBindingService(log *slog.Logger, queries *dbsqlc.Queries, box *secrets.Box) *bindings.Service {
	return bindings.NewService(log, queries, box)
}

func provideChannelRegistry(log *slog.Logger, cfg config.Config, pages *bindings.Service) (*channel.Registry, error) {
	registry := channel.NewRegistry()
	if err := registry.Register(widget.NewAdapter()); err != nil {
		return nil, err
	}
	graph := messenger.NewGraphClient(log, cfg.Messenger.GraphBaseURL, config.Duration(cfg.Messenger.SendTimeout, 10*time.Second))
	if err := registry.Register(messenger.NewAdapter(log, graph, pages, cfg.Messenger.TextLimit)); err != nil {
		return nil, err
	}
	return registry, nil
}

func provideDispatcher(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, registry *channel.Registry) *channel.Dispatcher {
	dispatcher := channel.NewDispatcher(log, registry, config.Duration(cfg.Dispatch.Timeout, channel.DefaultDispatchTimeout))
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return dispatcher.Wait(ctx)
		},
	})
	return dispatcher
}

func provideDedupeCache(lc fx.Lifecycle, cfg config.Config) *dedupe.Cache {
	cache := dedupe.New(config.Duration(cfg.Messenger.DedupeTTL, dedupe.DefaultTTL), dedupe.DefaultMaxSize)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			cache.Close()
			return nil
		},
	})
	return cache
}

func provideOrchestrator(
	log *slog.Logger,
	cfg config.Config,
	resolver *identity.Resolver,
	mem *memory.Service,
	retriever retrieval.Retriever,
	completer completion.Completer,
	dispatcher *channel.Dispatcher,
) *flow.Orchestrator {
	return flow.NewOrchestrator(log, resolver, mem, retriever, completer, dispatcher, flow.Options{
		TopK:              cfg.Retrieval.TopK,
		RetrievalTimeout:  config.Duration(cfg.Retrieval.Timeout, flow.DefaultRetrievalTimeout),
		CompletionTimeout: config.Duration(cfg.Completion.Timeout, flow.DefaultCompletionTimeout),
	})
}

func provideHealthHandler(log *slog.Logger, conn *pgxpool.Pool, registry *channel.Registry, qdrantHealth *qdrantchecker.Checker) *handlers.PingHandler {
	checkers := []healthcheck.Checker{
		postgreschecker.NewChecker(conn),
		channelchecker.NewChecker(log, registry),
	}
	if qdrantHealth != nil {
		checkers = append(checkers, qdrantHealth)
	}
	return handlers.NewPingHandler(log, checkers...)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, server.Options{
		Addr:      params.Config.Server.Addr,
		JWTSecret: params.Config.Auth.JWTSecret,
	}, params.ServerHandlers...)
}

func startMemoryJanitor(lc fx.Lifecycle, janitor *memory.Janitor) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return janitor.Start() },
		OnStop:  func(ctx context.Context) error { return janitor.Stop(ctx) },
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config) {
	fmt.Printf("Starting chatbot-saas %s\n", version)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
				return errors.New("auth.jwt_secret is required")
			}
			if strings.TrimSpace(cfg.Messenger.VerifyToken) == "" {
				logger.Warn("messenger.verify_token is empty, webhook verification will always fail")
			}
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			logger.Info("server listening", slog.String("addr", cfg.Server.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
