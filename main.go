package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/go-chi/chi/v5"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/api/handler"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/api/middleware"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/auth"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/logger"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/openai"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/repository"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/services"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/slack"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/workers"
)

type Config struct {
	OpenAIToken         string        `env:"OPEN_AI_TOKEN,required"`
	SlackBotToken       string        `env:"SLACK_BOT_TOKEN,required"`
	DefaultSlackChannel string        `env:"DEFAULT_SLACK_CHANNEL,required"`
	APIKey              string        `env:"API_KEY"`
	ServerAddr          string        `env:"SERVER_ADDR" envDefault:":8000"`
	OpenAIModel         string        `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	OpenAIMaxTokens     int           `env:"OPENAI_MAX_TOKENS" envDefault:"4096"`
	OpenAITemperature   float64       `env:"OPENAI_TEMPERATURE" envDefault:"0.7"`
	ContextCharBudget   int           `env:"CONTEXT_CHAR_BUDGET" envDefault:"8000"`
	ContextMessageLimit int           `env:"CONTEXT_MESSAGE_LIMIT" envDefault:"10"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	ExternalCallTimeout time.Duration `env:"EXTERNAL_CALL_TIMEOUT" envDefault:"30s"`
	MessageChunkLimit   int           `env:"MESSAGE_CHUNK_LIMIT" envDefault:"2900"`
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	workerGroup, err := setupWorkers()
	if err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGHUP)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return workerGroup.Start(ctx)
}

func setupWorkers() (workers.Group, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	if cfg.APIKey == "" {
		key, err := generateAPIKey()
		if err != nil {
			return nil, fmt.Errorf("generating api key: %w", err)
		}
		cfg.APIKey = key
		slog.Info("API_KEY not set, generated one for this run", "api_key", key)
	}

	var worker workers.Worker
	var workerGroup workers.Group

	slackClient, err := slack.NewClient(cfg.SlackBotToken, cfg.ExternalCallTimeout)
	if err != nil {
		return nil, fmt.Errorf("creating slack client: %w", err)
	}

	openAIClient, err := openai.NewClient(cfg.OpenAIToken, cfg.ExternalCallTimeout)
	if err != nil {
		return nil, fmt.Errorf("creating open ai client: %w", err)
	}

	sessionRepository := repository.NewSessionRepository(cfg.SessionTTL)
	contextFormatter := services.NewContextFormatter(slackClient, cfg.ContextCharBudget)

	askService := services.NewAskService(
		openAIClient,
		slackClient,
		contextFormatter,
		sessionRepository,
		services.AskConfig{
			DefaultModel:        cfg.OpenAIModel,
			DefaultMaxTokens:    cfg.OpenAIMaxTokens,
			DefaultTemperature:  cfg.OpenAITemperature,
			DefaultChannel:      cfg.DefaultSlackChannel,
			ContextMessageLimit: cfg.ContextMessageLimit,
			MessageChunkLimit:   cfg.MessageChunkLimit,
		},
	)

	authenticator := auth.NewAPIKeyAuthenticator(cfg.APIKey)

	askHandler := handler.NewAsk(askService)
	channelsHandler := handler.NewChannels(slackClient)
	messagesHandler := handler.NewMessages(slackClient)
	postMessageHandler := handler.NewPostMessage(slackClient, cfg.MessageChunkLimit)
	sessionsHandler := handler.NewSessions(sessionRepository)
	healthHandler := handler.NewHealth()

	router := chi.NewRouter()
	router.Use(middleware.RequestLogger)
	router.Use(middleware.APIKeyAuth(authenticator))

	router.Post("/ask", askHandler.Handle)
	router.Get("/channels", channelsHandler.List)
	router.Get("/channels/search", channelsHandler.Search)
	router.Get("/channels/{channelID}/messages", messagesHandler.Recent)
	router.Post("/messages", postMessageHandler.Handle)
	router.Delete("/sessions/{sessionID}", sessionsHandler.Clear)
	router.Get("/health", healthHandler.Check)

	if worker, err = workers.NewHTTPServer(cfg.ServerAddr, router); err == nil {
		workerGroup = append(workerGroup, worker)
	} else {
		return nil, err
	}

	return workerGroup, nil
}

func generateAPIKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
