// Package api - Thin HTTP layer over the budget service
// The API is ONLY responsible for: input decoding, service orchestration, output serialization.
// The API NEVER performs budget arithmetic.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"uncertainty-budget/core/budget"
	"uncertainty-budget/core/service"
	"uncertainty-budget/internal/errors"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// Server is the API server
type Server struct {
	svc     *service.Service
	mux     *http.ServeMux
	version string
	logger  *zap.Logger
}

// NewServer creates a new API server
func NewServer(version string, svc *service.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		svc:     svc,
		mux:     http.NewServeMux(),
		version: version,
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Budgets
	s.mux.HandleFunc("POST /budgets/compute", s.handleCompute)

	// Calculation history
	s.mux.HandleFunc("POST /calculations", s.handleSaveCalculation)
	s.mux.HandleFunc("GET /calculations", s.handleListCalculations)
	s.mux.HandleFunc("GET /calculations/{id}", s.handleGetCalculation)

	// Instrument catalogue
	s.mux.HandleFunc("GET /instruments", s.handleListInstruments)
	s.mux.HandleFunc("POST /instruments", s.handleCreateInstrument)
	s.mux.HandleFunc("GET /instruments/{id}", s.handleGetInstrument)
	s.mux.HandleFunc("GET /instruments/{id}/quantities/{qid}/ranges/{rid}/defaults", s.handleDefaults)

	// Supporting endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// handleCompute handles POST /budgets/compute
func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ComputeRequest
	if !s.decode(w, r, &req) {
		return
	}

	sheet, err := budget.Calculate(req.Components, req.Range)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	hash, err := computeInputHash(&req)
	if err != nil {
		s.writeServiceError(w, r, errors.Internal("hash request", err))
		return
	}

	s.writeJSON(w, &ComputeResponse{
		Sheet: sheet,
		Metadata: &ResponseMetadata{
			RequestID:     requestID(r),
			InputHash:     hash,
			EngineVersion: s.version,
			DurationMs:    time.Since(start).Milliseconds(),
		},
	}, http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "uncertainty-budget",
		"api_version": "v1",
	}, http.StatusOK)
}

// decode reads a JSON body into v, writing the error response on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		// Unknown distributions surface from the component decoder
		if _, ok := errors.As(err); ok {
			s.writeServiceError(w, r, err)
			return false
		}
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON encodes data before the status goes out, so an encoding failure
// becomes a 500 rather than a truncated response.
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("encode response", zap.Error(err))
		body = []byte(`{"error":{"code":"` + string(errors.TypeInternal) + `","message":"internal error"}}`)
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Warn("write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, &ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	}, status)
}

// writeServiceError maps a typed error onto a status code
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := errors.As(err)
	if !ok {
		e = errors.Internal("unexpected error", err)
	}

	switch {
	case errors.IsBudgetInput(e), e.Type == errors.TypeInput, e.Type == errors.TypeParsing:
		s.writeError(w, string(e.Type), e.Message, http.StatusBadRequest)
	case e.Type == errors.TypeNotFound:
		s.writeError(w, string(e.Type), e.Message, http.StatusNotFound)
	default:
		s.logger.Error("request failed",
			zap.String("request_id", requestID(r)),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		s.writeError(w, string(errors.TypeInternal), "internal error", http.StatusInternalServerError)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.New().String()
		r.Header.Set("X-Request-ID", id)
	}
	w.Header().Set("X-Request-ID", id)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)

	s.logger.Info("request",
		zap.String("request_id", id),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", time.Since(start)))
}

// Mount serves s under /api/.
func Mount(s *Server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", s))
	return mux
}

// Run serves s under /api/ on addr until ctx is cancelled, then drains
// in-flight requests.
func Run(ctx context.Context, addr string, s *Server) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Mount(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down", zap.String("addr", addr))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Helper functions

func requestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}

func computeInputHash(req *ComputeRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
