package api

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/go-pkgz/rest"
	restlog "github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"github.com/maxaizer/apply-archive/internal/config"
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/maxaizer/apply-archive/internal/logger"
	"github.com/maxaizer/apply-archive/internal/metrics"
	log "github.com/sirupsen/logrus"
	"net/http"
	"strconv"
	"time"
)

const maxRequestSize = 16 << 20

type applicationStore interface {
	GetAll(ctx context.Context) ([]entities.JobRecord, error)
	GetByID(ctx context.Context, id string) (*entities.JobRecord, error)
	Add(ctx context.Context, record entities.JobRecord) error
	Update(ctx context.Context, record entities.JobRecord) (bool, error)
	Remove(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
}

// Server exposes job applications and their uploaded files over REST.
type Server struct {
	records    applicationStore
	basePath   string
	uploadsDir string
	version    string
	now        func() time.Time
}

func NewServer(records applicationStore, cfg config.ServerConfig, version string) *Server {
	return &Server{
		records:    records,
		basePath:   cfg.BasePath,
		uploadsDir: cfg.UploadsDir,
		version:    version,
		now:        time.Now,
	}
}

func (s *Server) Run(ctx context.Context, address string) error {

	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warnf("failed to shutdown server: %v", err)
		}
	}()

	log.Infof("starting applications server on %s%s", address, s.basePath)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("applications server failed: %w", err)
	}
	return nil
}

func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(logger.RestBackend{Level: log.ErrorLevel}),
		rest.AppInfo("apply-archive", "maxaizer", s.version),
		rest.Ping,
		rest.SizeLimit(maxRequestSize),
		countRequests,
		restlog.New(restlog.Log(logger.RestBackend{Level: log.DebugLevel}), restlog.Prefix("[DEBUG]")).Handler,
	)

	router.Handle("GET /metrics", metrics.Handler())

	router.Mount(s.basePath).Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)

		api.HandleFunc("GET /applications", s.handleListApplications)
		api.HandleFunc("GET /applications/{id}", s.handleGetApplication)
		api.HandleFunc("POST /applications", s.handleCreateApplication)
		api.HandleFunc("PUT /applications/{id}", s.handleUpdateApplication)
		api.HandleFunc("DELETE /applications/{id}", s.handleDeleteApplication)

		api.HandleFunc("POST /upload", s.handleUpload)
		api.HandleFunc("GET /files/{filename}", s.handleFile)
		api.HandleFunc("GET /health", s.handleHealth)
	})

	return router
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warnf("failed to encode JSON response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(recorder.status)).Inc()
	})
}
