// Package webapi exposes the public HTTP surface: health text, the cached
// snapshot page, the PIN-guarded manual test trigger, the voice-call script
// document, and the static asset proxy.
package webapi

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/temblor/internal/alerter"
	"github.com/linnemanlabs/temblor/internal/pinmw"
)

const testDispatchTimeout = 30 * time.Second

// SnapshotSource serves the cached snapshot page.
type SnapshotSource interface {
	Get(ctx context.Context) (body []byte, contentType string, err error)
}

// Options configures the optional pieces of the HTTP surface.
type Options struct {
	// Snapshot backs GET /public. Nil means the route returns 404.
	Snapshot SnapshotSource
	// Dispatcher sends the manual test notification.
	Dispatcher alerter.Dispatcher
	// Channel selects how test alerts go out: alerter.ChannelSMS or
	// alerter.ChannelCall.
	Channel string
	// VoiceScriptURL is the base script URL handed to the carrier for calls.
	VoiceScriptURL string
	// TestAlertEnabled gates GET /test-alert; when false the route 404s.
	TestAlertEnabled bool
	// TestAlertPIN is the shared secret for the test trigger.
	TestAlertPIN string
	// StaticOrigin backs GET /static/*. Nil means the route is not mounted.
	StaticOrigin *url.URL
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	opts   Options
}

// New creates a new API handler.
func New(logger log.Logger, opts Options) *API {
	if logger == nil {
		logger = log.Nop()
	}
	return &API{
		logger: logger,
		opts:   opts,
	}
}

// RegisterRoutes attaches the public endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/", a.handleRoot)
	r.Get("/public", a.handlePublic)
	r.Get("/twiml", a.handleTwiML)
	r.Method(http.MethodGet, "/test-alert", a.testAlertHandler())
	if a.opts.StaticOrigin != nil {
		proxy := httputil.NewSingleHostReverseProxy(a.opts.StaticOrigin)
		r.Handle("/static/*", proxy)
	}
}

func (a *API) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("temblor ok"))
}

func (a *API) handlePublic(w http.ResponseWriter, r *http.Request) {
	if a.opts.Snapshot == nil {
		http.NotFound(w, r)
		return
	}

	body, contentType, err := a.opts.Snapshot.Get(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "snapshot unavailable")
		http.Error(w, "snapshot unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(body)
}

// testAlertHandler builds the guard chain once at registration time. The
// route exists but answers 404 while the feature is disabled, so probing it
// reveals nothing.
func (a *API) testAlertHandler() http.Handler {
	if !a.opts.TestAlertEnabled {
		return http.NotFoundHandler()
	}
	return pinmw.RequirePIN(a.opts.TestAlertPIN)(http.HandlerFunc(a.handleTestAlert))
}

func (a *API) handleTestAlert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to := q.Get("to")
	if to == "" {
		http.Error(w, `{"error":"missing to parameter"}`, http.StatusBadRequest)
		return
	}
	msg := q.Get("msg")
	if msg == "" {
		msg = "Mensaje de prueba del sistema de alertas"
	}

	// Acknowledge immediately; the dispatch outcome is only reported via
	// logs, same as the engine's.
	go a.sendTest(to, msg)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("triggered"))
}

func (a *API) sendTest(to, msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), testDispatchTimeout)
	defer cancel()

	var err error
	switch a.opts.Channel {
	case alerter.ChannelCall:
		scriptURL := a.opts.VoiceScriptURL + "?text=" + url.QueryEscape(msg)
		err = a.opts.Dispatcher.SendCall(ctx, to, scriptURL)
	default:
		err = a.opts.Dispatcher.SendSMS(ctx, to, msg)
	}
	if err != nil {
		a.logger.Error(ctx, err, "test alert dispatch failed", "to", to, "channel", a.opts.Channel)
		return
	}
	a.logger.Info(ctx, "test alert dispatched", "to", to, "channel", a.opts.Channel)
}
