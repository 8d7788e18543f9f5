package http

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/auth"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/service/rooms"
	"github.com/vovakirdan/roomchat-server/internal/store"
	"github.com/vovakirdan/roomchat-server/internal/store/sqlite"
)

const testJWTSecret = "test-secret-for-transport-tests"

// testEnv is a fully wired server backed by an in-memory store.
type testEnv struct {
	store  store.Store
	auth   *auth.Service
	rooms  *rooms.Service
	hub    *core.Hub
	server *Server
}

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// testConfig returns a valid config; mutate adjusts it before the server is built.
func testConfig(mutate func(*config.Config)) *config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = testJWTSecret
	cfg.BcryptCost = 4
	cfg.AllowedOrigins = []string{"*"}
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	if mutate != nil {
		mutate(&cfg)
	}
	return &cfg
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()

	st := createTestStore(t)
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}, cfg.BcryptCost)

	roomService, err := rooms.New(st, cfg.InviteCodeLength)
	if err != nil {
		t.Fatalf("failed to create room service: %v", err)
	}

	disabledLogger := zerolog.Nop()
	hub := core.NewHub(core.HubConfig{
		AuthTimeout:     cfg.AuthTimeout,
		HistoryPageSize: cfg.HistoryPageSize,
		WarnThreshold:   cfg.RateLimitWarnThreshold,
		RateLimit: core.RateLimitConfig{
			MaxMessages:   cfg.MessageLimitPerWindow,
			Window:        cfg.MessageLimitWindow,
			SweepInterval: cfg.RateLimitSweepInterval,
		},
	}, authService, st, core.WithLogger(&disabledLogger))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return &testEnv{
		store:  st,
		auth:   authService,
		rooms:  roomService,
		hub:    hub,
		server: NewServer(hub, authService, roomService, st, cfg, &disabledLogger),
	}
}

// registerAndLogin creates a user and returns its id and token.
func (e *testEnv) registerAndLogin(t *testing.T, username string) (int64, string) {
	t.Helper()

	ctx := context.Background()
	email := username + "@example.com"
	if _, err := e.auth.Register(ctx, username, email, "password123"); err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	token, user, err := e.auth.Login(ctx, email, "password123")
	if err != nil {
		t.Fatalf("failed to login %s: %v", username, err)
	}
	return user.ID, token
}
