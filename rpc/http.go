package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"capitafund/core"
	"capitafund/observability"
	"capitafund/observability/logging"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeExecutionError = -32003
	codeRateLimited    = -32020
)

// Config tunes the HTTP server.
type Config struct {
	Auth              AuthConfig
	RequestsPerSecond float64
	Burst             int
	// TrustProxyHeaders keys rate limiting on X-Real-IP or X-Forwarded-For.
	// Enable it only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
	Logger            *slog.Logger
}

type Server struct {
	node       *core.Node
	auth       *Authenticator
	limiter    *RateLimiter
	trustProxy bool
	logger     *slog.Logger
	methods    map[string]method
}

func NewServer(node *core.Node, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		node:       node,
		auth:       NewAuthenticator(cfg.Auth),
		limiter:    NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		trustProxy: cfg.TrustProxyHeaders,
		logger:     logger,
	}
	s.methods = s.methodTable()
	return s
}

// Handler returns the HTTP surface: JSON-RPC on POST /, plus /healthz and
// /metrics.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return otelhttp.NewHandler(r, "capitafund.rpc")
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting JSON-RPC server", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	if !s.limiter.Allow(clientSource(r, s.trustProxy)) {
		observability.ModuleMetrics().RecordThrottle("rpc", "rate_limit")
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded", nil)
		return
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	m, ok := s.methods[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}

	code := s.dispatch(w, r, req, m)
	module, name, _ := strings.Cut(req.Method, "_")
	observability.ModuleMetrics().Observe(module, name, code, time.Since(start))
	s.logger.Debug("rpc call",
		slog.String("request", w.Header().Get(requestIDHeader)),
		slog.String("method", req.Method),
		slog.Int("code", code),
		slog.Duration("duration", time.Since(start)),
		slog.String("authorization", logging.MaskBearer(r.Header.Get("Authorization"))))
}

// dispatch runs m and writes the response. It returns the JSON-RPC error
// code, zero on success.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest, m method) int {
	var caller common.Address
	if m.mutating {
		addr, authErr := s.auth.Caller(r)
		if authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return authErr.Code
		}
		caller = addr
	}
	params, perr := decodeParams(req)
	if perr != nil {
		writeError(w, http.StatusBadRequest, req.ID, perr.Code, perr.Message, perr.Data)
		return perr.Code
	}
	result, err := m.fn(r.Context(), caller, params)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
			return rpcErr.Code
		}
		status, mapped := platformError(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("rpc call failed", slog.String("method", req.Method), slog.Any("error", err))
		}
		writeError(w, status, req.ID, mapped.Code, mapped.Message, mapped.Data)
		return mapped.Code
	}
	writeResult(w, req.ID, result)
	return 0
}
