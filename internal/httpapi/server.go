package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"embedd/internal/embed"
	"embedd/internal/manager"
	"embedd/pkg/types"
)

// Service defines the methods required by the HTTP API layer. Acquire hands
// out a model together with a release func the caller must invoke once it
// is done encoding.
type Service interface {
	Acquire(ctx context.Context) (manager.Model, func(), error)
	Evict(reason string) bool
	Status() types.StatusResponse
	Loaded() bool
	Ready() bool
}

// Options carries the request-layer settings.
type Options struct {
	Version          string
	Model            types.ModelInfo
	APIKey           string
	MaxBatchSize     int
	DefaultBatchSize int
	// IdleTimeout is reported by GET /; zero means auto-unload is disabled.
	IdleTimeout time.Duration
}

type server struct {
	svc       Service
	opts      Options
	pipeline  embed.Pipeline
	startedAt time.Time
}

func NewMux(svc Service, opts Options) http.Handler {
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 100
	}
	if opts.DefaultBatchSize <= 0 || opts.DefaultBatchSize > opts.MaxBatchSize {
		opts.DefaultBatchSize = min(embed.DefaultBatchSize, opts.MaxBatchSize)
	}
	s := &server{
		svc:       svc,
		opts:      opts,
		pipeline:  embed.New(opts.Model.NativeDim, opts.DefaultBatchSize),
		startedAt: time.Now(),
	}

	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	r.Use(MetricsMiddleware)
	r.Use(AccessLog)

	r.Get("/", s.handleInfo)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireBearer(opts.APIKey))
		r.Post("/embed", s.handleEmbed)
		r.Post("/v1/embeddings", s.handleOpenAIEmbeddings)
		r.Post("/admin/unload", s.handleUnload)
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// handleInfo godoc
// @Summary      Service information
// @Tags         meta
// @Produce      json
// @Success      200  {object}  types.InfoResponse
// @Router       / [get]
func (s *server) handleInfo(w http.ResponseWriter, r *http.Request) {
	auth := "not required"
	if s.opts.APIKey != "" {
		auth = "required"
	}
	var unload any = "disabled"
	if s.opts.IdleTimeout > 0 {
		unload = int64(s.opts.IdleTimeout / time.Second)
	}
	tasks := make([]string, len(embed.TaskTypes))
	for i, t := range embed.TaskTypes {
		tasks[i] = string(t)
	}
	writeJSON(w, types.InfoResponse{
		Name:                     "embedd",
		Version:                  s.opts.Version,
		Model:                    s.opts.Model.Name,
		Device:                   s.opts.Model.Device,
		Backend:                  s.opts.Model.Backend,
		MaxBatchSize:             s.opts.MaxBatchSize,
		DefaultBatchSize:         s.opts.DefaultBatchSize,
		Authentication:           auth,
		AutoUnloadTimeoutSeconds: unload,
		TaskTypes:                tasks,
		Dimensions:               append([]int(nil), embed.Dimensions...),
	})
}

// handleHealth godoc
// @Summary      Health check
// @Description  Reports whether the model is resident. Never loads it and never delays its eviction.
// @Tags         meta
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Router       /health [get]
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, types.HealthResponse{
		Status:       "healthy",
		ModelLoaded:  s.svc.Loaded(),
		Device:       s.opts.Model.Device,
		MaxBatchSize: s.opts.MaxBatchSize,
	})
}

// handleStatus godoc
// @Summary      Model lifecycle status
// @Tags         meta
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Status()
	st.UptimeSeconds = int64(time.Since(s.startedAt) / time.Second)
	writeJSON(w, st)
}

// handleUnload godoc
// @Summary      Unload the model now
// @Description  Releases the resident model; the next embedding request reloads it.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  types.UnloadResponse
// @Failure      401  {object}  types.ErrorResponse
// @Router       /admin/unload [post]
func (s *server) handleUnload(w http.ResponseWriter, r *http.Request) {
	unloaded := s.svc.Evict("admin")
	if ev := logEvent(r); ev != nil {
		ev.Bool("unloaded", unloaded).Msg("admin unload")
	}
	writeJSON(w, types.UnloadResponse{Unloaded: unloaded})
}
