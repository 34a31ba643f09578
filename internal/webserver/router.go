package webserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/flipperbot/internal/registry"
	"github.com/dmitrymomot/flipperbot/pkg/async"
	"github.com/dmitrymomot/flipperbot/pkg/clientip"
	"github.com/dmitrymomot/flipperbot/pkg/logger"
	"github.com/dmitrymomot/flipperbot/pkg/ratelimiter"
)

// CallbackHandler resolves a verification callback. Implemented by the
// verification service; the job runs on the bot's dispatcher, not on the
// HTTP worker goroutine.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, token, code string) error
}

// Router holds the HTTP handler dependencies.
type Router struct {
	cfg        Config
	handler    CallbackHandler
	dispatcher *async.Dispatcher
	registry   *registry.Registry
	log        *slog.Logger
}

// Option configures the router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(rt *Router) { rt.log = log }
}

// New builds the chi router serving the liveness page, the health
// endpoint and the rate-limited OAuth callback.
func New(cfg Config, handler CallbackHandler, dispatcher *async.Dispatcher, reg *registry.Registry, opts ...Option) (http.Handler, error) {
	if handler == nil || dispatcher == nil || reg == nil {
		return nil, ErrMissingDependency
	}

	rt := &Router{
		cfg:        cfg,
		handler:    handler,
		dispatcher: dispatcher,
		registry:   reg,
		log:        logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(rt)
	}

	store := ratelimiter.NewMemoryStore()
	perClient, err := ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       cfg.ClientLimit,
		RefillRate:     cfg.ClientLimit,
		RefillInterval: cfg.ClientWindow,
	})
	if err != nil {
		return nil, err
	}
	global, err := ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       1,
		RefillRate:     1,
		RefillInterval: cfg.GlobalSpacing,
	})
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/", rt.handleHome)
	r.Get("/health", rt.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(ratelimiter.Middleware(perClient, clientip.GetIP))
		r.Use(ratelimiter.GlobalMiddleware(global))
		r.Get("/callback", rt.handleCallback)
	})

	return r, nil
}

func (rt *Router) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "Bot is alive!")
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "OK")
}

// handleCallback receives the identity provider's redirect. The token in
// the state parameter routes the request, and the actual resolution is
// submitted to the bot's dispatcher. The browser gets its answer after a
// bounded wait regardless of how long the Discord-side work takes.
func (rt *Router) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Error(w, "Missing code or state parameter. Please restart verification from Discord.", http.StatusBadRequest)
		return
	}

	kind := rt.registry.PeekKind(state)
	rt.log.InfoContext(r.Context(), "verification callback received",
		logger.Event("webserver.callback"),
		slog.String("kind", kind.String()),
		logger.Redacted("state", state),
		slog.String("client_ip", clientip.GetIP(r)),
	)

	future, err := rt.dispatcher.Submit(context.WithoutCancel(r.Context()), func(ctx context.Context) error {
		return rt.handler.HandleCallback(ctx, state, code)
	})
	if err != nil {
		rt.log.ErrorContext(r.Context(), "failed to schedule callback resolution",
			logger.Event("webserver.callback_dropped"),
			logger.Error(err),
		)
		http.Error(w, "The bot is overloaded right now. Please try again in a minute.", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	switch _, err := future.AwaitWithTimeout(rt.cfg.SchedulingWait); {
	case err == nil:
		fmt.Fprint(w, "Verification complete! You can close this tab and return to Discord.")
	case errors.Is(err, async.ErrTimeout):
		// Still in flight on the bot side; that is fine.
		fmt.Fprint(w, "Verification in progress. You can close this tab and return to Discord.")
	default:
		// The job finished fast with a rejection. Keep the message
		// generic: unknown, replayed and expired attempts must read the
		// same to the caller.
		fmt.Fprint(w, "Verification could not be completed. Please start over from Discord.")
	}
}
