// Package api provides the HTTP server for NimaCare.
//
// It exposes the chat endpoint that drives the intake workflow, direct session
// operations (privacy tier, category override, habit tracking), the Twilio SMS
// webhook, and health and metrics endpoints.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/BTreeMap/NimaCare/internal/catalog"
	"github.com/BTreeMap/NimaCare/internal/flow"
	"github.com/BTreeMap/NimaCare/internal/genai"
	"github.com/BTreeMap/NimaCare/internal/lockfile"
	"github.com/BTreeMap/NimaCare/internal/metrics"
	"github.com/BTreeMap/NimaCare/internal/session"
	"github.com/BTreeMap/NimaCare/internal/sms"
	"github.com/BTreeMap/NimaCare/internal/store"
)

// Server defaults.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultHealthTimeout   = 5 * time.Second
	// SMSWebhookPath is the route Twilio posts inbound messages to.
	SMSWebhookPath = "/sms/webhook"

	maxRequestBodyBytes = 1 << 20
	readHeaderTimeout   = 10 * time.Second
)

// Opts holds API server configuration.
type Opts struct {
	Addr            string
	StateDir        string // locked for the lifetime of the server when set
	CatalogFile     string
	PublicURL       string // enables Twilio signature checks when set
	SessionTTL      time.Duration
	JanitorInterval time.Duration
	ShutdownTimeout time.Duration
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithStateDir locks dir so only one process serves a file-backed store.
func WithStateDir(dir string) Option {
	return func(o *Opts) { o.StateDir = dir }
}

// WithCatalogFile loads the counselor, habit and group catalog from a YAML file.
func WithCatalogFile(path string) Option {
	return func(o *Opts) { o.CatalogFile = path }
}

// WithPublicURL sets the externally visible base URL used to verify Twilio
// webhook signatures.
func WithPublicURL(url string) Option {
	return func(o *Opts) { o.PublicURL = url }
}

// WithSessionTTL sets how long an idle session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.SessionTTL = ttl }
}

// WithJanitorInterval sets how often idle sessions are purged.
func WithJanitorInterval(d time.Duration) Option {
	return func(o *Opts) { o.JanitorInterval = d }
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Opts) { o.ShutdownTimeout = d }
}

func buildOpts(opts []Option) Opts {
	cfg := Opts{
		Addr:            DefaultAddr,
		SessionTTL:      store.DefaultSessionTTL,
		JanitorInterval: session.DefaultJanitorInterval,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	manager  *session.Manager
	st       store.Store
	sms      sms.Sender
	gatherer prometheus.Gatherer

	smsValidator *sms.SignatureValidator
	webhookURL   string
}

// NewServer creates a Server. sender may be nil, in which case SMS replies
// are logged and dropped. gatherer may be nil to disable /metrics.
func NewServer(manager *session.Manager, st store.Store, sender sms.Sender, gatherer prometheus.Gatherer) *Server {
	return &Server{
		manager:  manager,
		st:       st,
		sms:      sender,
		gatherer: gatherer,
	}
}

// requireSignature makes the SMS webhook reject requests whose Twilio
// signature does not match webhookURL.
func (s *Server) requireSignature(v *sms.SignatureValidator, webhookURL string) {
	s.smsValidator = v
	s.webhookURL = webhookURL
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.chatHandler)
	mux.HandleFunc("GET /sessions/{id}", s.getSessionHandler)
	mux.HandleFunc("DELETE /sessions/{id}", s.deleteSessionHandler)
	mux.HandleFunc("GET /sessions/{id}/messages", s.messagesHandler)
	mux.HandleFunc("GET /sessions/{id}/contributions", s.contributionsHandler)
	mux.HandleFunc("GET /sessions/{id}/habits", s.habitsHandler)
	mux.HandleFunc("GET /sessions/{id}/habits/stats", s.habitStatsHandler)
	mux.HandleFunc("GET /sessions/{id}/habits/{habitID}/history", s.habitHistoryHandler)
	mux.HandleFunc("POST /habits/complete", s.completeHabitHandler)
	mux.HandleFunc("GET /sessions/{id}/appointments", s.appointmentsHandler)
	mux.HandleFunc("GET /sessions/{id}/appointments/slots", s.availableSlotsHandler)
	mux.HandleFunc("POST /appointments", s.createAppointmentHandler)
	mux.HandleFunc("PUT /appointments", s.updateAppointmentHandler)
	mux.HandleFunc("POST /appointments/book", s.bookSessionHandler)
	mux.HandleFunc("POST /support-groups/match", s.matchSupportGroupsHandler)
	mux.HandleFunc("POST /privacy", s.privacyHandler)
	mux.HandleFunc("POST /category", s.categoryHandler)
	mux.HandleFunc("POST "+SMSWebhookPath, s.smsWebhookHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return withRequestLogging(mux)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("Server: request handled", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start))
	})
}

// Run wires every module from the given options and serves HTTP until
// SIGINT or SIGTERM, then shuts down gracefully.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, smsOpts []sms.Option, apiOpts []Option) error {
	cfg := buildOpts(apiOpts)

	if cfg.StateDir != "" {
		lock, err := lockfile.AcquireLock(cfg.StateDir)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	st, err := store.New(storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	var gen genai.ClientInterface
	if client, err := genai.NewClient(genaiOpts...); err != nil {
		slog.Warn("Run: GenAI client unavailable, every reply will use fallback responses", "error", err)
	} else {
		gen = client
	}

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		if cat, err = catalog.LoadFile(cfg.CatalogFile); err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		slog.Info("Run: catalog loaded", "path", cfg.CatalogFile)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	coordinator := flow.NewCoordinator(gen, flow.WithCatalog(cat), flow.WithMetrics(m))
	manager := session.NewManager(st, coordinator, session.WithMetrics(m), session.WithRoster(cat))

	var sender sms.Sender
	var smsClient *sms.Client
	if len(smsOpts) > 0 {
		if smsClient, err = sms.NewClient(smsOpts...); err != nil {
			slog.Warn("Run: SMS channel disabled", "error", err)
		} else {
			sender = smsClient
		}
	}

	srv := NewServer(manager, st, sender, reg)
	if smsClient != nil && cfg.PublicURL != "" {
		srv.requireSignature(smsClient.SignatureValidator(), cfg.PublicURL+SMSWebhookPath)
		slog.Debug("Run: Twilio signature validation enabled", "url", cfg.PublicURL+SMSWebhookPath)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("NimaCare API running", "addr", cfg.Addr, "genai", gen != nil, "sms", sender != nil)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return manager.RunJanitor(gctx, cfg.JanitorInterval, cfg.SessionTTL)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
