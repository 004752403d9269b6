package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"smellcheck/internal/gateway/config"
	"smellcheck/internal/gateway/handler"
	"smellcheck/internal/gateway/server"
	"smellcheck/internal/gateway/session"
	"smellcheck/internal/llm"
	"smellcheck/internal/review"
)

// App owns the wiring: config -> completion client -> session registry ->
// HTTP server.
type App struct {
	server *server.Server
	client llm.CompletionClient
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	base, err := llm.New(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to build completion client: %w", err)
	}
	mws := []llm.Middleware{
		llm.WithLogging(nil),
		llm.RateLimitFromEnv("SMELLCHECK", strings.ToUpper(cfg.Provider)),
	}
	if cfg.UsageLedger != "" {
		mws = append(mws, llm.WithUsageLedger(cfg.UsageLedger))
	}
	client := llm.Wrap(base, mws...)

	if strings.TrimSpace(cfg.Credential) == "" {
		log.Printf("no completion credential configured; analyze requests will be refused until one is set")
	}

	// One shared client, one session per browser cookie.
	sessions := session.NewStore(cfg.SessionMax, cfg.SessionTTL, func() *review.Service {
		return review.NewService(client, review.NewSession(cfg.Credential))
	})

	mux := server.NewMux(handler.NewSessionHandler(sessions))

	return &App{
		server: server.New(cfg.Port, mux),
		client: client,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	_ = a.client.Close()
	return a.server.Shutdown(ctx)
}
