package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/classtrack/gatehouse/internal/admission/domain"
	"github.com/classtrack/gatehouse/internal/admission/service"
	"github.com/classtrack/gatehouse/pkg/cryptox"
	"github.com/classtrack/gatehouse/pkg/guard"
	"github.com/classtrack/gatehouse/pkg/httpx"
	"github.com/classtrack/gatehouse/pkg/jwtx"
	"github.com/classtrack/gatehouse/pkg/ratelimit"
	"github.com/classtrack/gatehouse/pkg/reputation"
	"github.com/classtrack/gatehouse/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the admission core together: codec, registries, limiter
// tiers, reputation tracker, password hasher, input guard, sweeper, and the
// HTTP server that exposes the health and session endpoints.
type Application struct {
	cfg    Config
	logger *slog.Logger

	admission *service.AdmissionService
	sweeper   *service.SweeperService

	server *http.Server
}

// New creates an Application with all dependencies initialized. The identity
// store is the collaborator owned by the CRUD side of the system.
func New(cfg Config, identities domain.IdentityStore) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatehouse",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	secret := cfg.Secret
	if secret == "" {
		// Validate already made this fatal in prod; outside prod a random
		// per-process secret keeps dev setups working.
		secret = randomDevSecret()
		app.logger.Warn("no signing secret configured, generated an ephemeral one")
	}

	revocations := jwtx.NewRevocationRegistry(cfg.TokenTTL, nil)
	replay := jwtx.NewReplayMonitor(jwtx.ReplayMonitorConfig{
		HighWater: cfg.ReplayHighWater,
		Staleness: cfg.ReplayStaleness,
	})

	codec, err := jwtx.NewCodec(jwtx.CodecConfig{
		Secret:   []byte(secret),
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
		TTL:      cfg.TokenTTL,
	}, revocations, replay)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	limits := ratelimit.NewSet(cfg.RateGlobal, cfg.RateAuth, cfg.RateSensitive, nil)
	tracker := reputation.NewTracker(reputation.Config{
		Threshold: cfg.IPThreshold,
		Window:    cfg.IPWindow,
		BlockTTL:  cfg.IPBlockTTL,
	})

	app.admission = &service.AdmissionService{
		Identities: identities,
		Codec:      codec,
		Limits:     limits,
		Reputation: tracker,
		Hasher: cryptox.NewHasher(cryptox.HasherConfig{
			Cost:          cfg.HashCost,
			Pepper:        cfg.Pepper,
			MaxConcurrent: int64(cfg.MaxHashes),
			Timeout:       cfg.HashTimeout,
		}),
		Guard: guard.NewValidator(),
	}

	app.sweeper = service.NewSweeperService(
		revocations, replay, limits, tracker,
		app.logger, cfg.SweepInterval,
	)

	app.initHTTP(codec, tracker, limits)

	return app, nil
}

// Admission exposes the wired service for embedding hosts.
func (app *Application) Admission() *service.AdmissionService {
	return app.admission
}

// Handler exposes the composed HTTP handler, middleware included, for
// embedding hosts that run their own server.
func (app *Application) Handler() http.Handler {
	return app.server.Handler
}

func (app *Application) initHTTP(codec *jwtx.Codec, tracker *reputation.Tracker, limits *ratelimit.Set) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	// The one route this service answers itself: who the presented token
	// belongs to. Everything else consumes the middleware from its own mux.
	whoami := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := httpx.ClaimsFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"sub":   claims.Subject,
			"email": claims.Email,
		})
	})
	mux.Handle("GET /v1/whoami", httpx.AuthnMiddleware(codec)(whoami))

	// Session lifecycle. Both take the raw bearer token straight from the
	// header: refresh has to re-present the old token, and revoking an
	// already-dead token is still a clean logout from the client's side.
	authTier := httpx.AdmitMiddleware(tracker, limits, ratelimit.TierAuth, httpx.IPKeyExtractor)

	refresh := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := httpx.BearerToken(r)
		if raw == "" {
			httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing_token"})
			return
		}

		fresh, err := app.admission.RefreshToken(r.Context(), raw)
		if err != nil {
			httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "cannot_refresh"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"token":      fresh,
			"expires_in": int(codec.TTL().Seconds()),
		})
	})
	mux.Handle("POST /v1/session/refresh", authTier(refresh))

	revoke := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := httpx.BearerToken(r)
		if raw == "" {
			httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing_token"})
			return
		}

		// An already-revoked or expired token is a no-op logout.
		_ = app.admission.RevokeToken(raw)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Handle("POST /v1/session/revoke", authTier(revoke))

	handler := httpx.Chain(mux,
		slogx.HTTPMiddleware(app.logger),
		httpx.CORSMiddleware(app.cfg.AllowedOrigins),
		httpx.AdmitMiddleware(tracker, limits, ratelimit.TierGlobal, httpx.IPKeyExtractor),
	)

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.sweeper.Start()

	app.logger.Info("gatehouse starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops the sweeper and drains the HTTP server within the grace
// period.
func (app *Application) Shutdown() error {
	app.sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	app.logger.Info("gatehouse stopped")
	return nil
}

func randomDevSecret() string {
	buf := make([]byte, MinSecretLength)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("generate dev secret: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
