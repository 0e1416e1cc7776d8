package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sprout-finance/sprout/internal/config"
	"github.com/sprout-finance/sprout/internal/logger"
	"github.com/sprout-finance/sprout/internal/node"
	"github.com/sprout-finance/sprout/internal/state"
	"github.com/sprout-finance/sprout/internal/strategy"
	"github.com/sprout-finance/sprout/internal/types"
)

const maxBodyBytes = 1 << 16

// Service is the node surface the API exposes.
type Service interface {
	Strategy() (node.StrategyView, error)
	Allocation(asset types.AssetID) (types.TokenAllocation, bool, error)
	Treasury() (node.TreasuryView, error)
	Balances(who types.Identity) ([]types.Coin, error)
	Height() uint64
	Pools() ([]node.PoolView, error)
	PreviewDeposit(amount uint64) (strategy.DepositPlan, error)
	PreviewWithdraw(receipts uint64) (strategy.WithdrawPlan, error)
	RecentActions(ctx context.Context, limit int) ([]types.ActionReceipt, error)
	ActionSummary(ctx context.Context) (state.Summary, error)

	Deposit(ctx context.Context, caller types.Identity, amount uint64) (node.DepositResult, error)
	Withdraw(ctx context.Context, caller types.Identity, receipts uint64) (node.WithdrawResult, error)
	WithdrawFees(ctx context.Context, caller types.Identity) (node.TxResult, error)
	SetWithdrawalFee(ctx context.Context, caller types.Identity, feeBps uint64) (node.TxResult, error)
	SetSlippageTolerance(ctx context.Context, caller types.Identity, slippageBps uint64) (node.TxResult, error)
	SetFeeTreasury(ctx context.Context, caller, recipient types.Identity) (node.TxResult, error)
	SetStrategyOwner(ctx context.Context, caller, newOwner types.Identity) (node.TxResult, error)
	SetAMMContract(ctx context.Context, caller types.Identity, amm types.ContractID) (node.TxResult, error)
	SetReceiptToken(ctx context.Context, caller types.Identity, receiptToken types.ContractID) (node.TxResult, error)
	SetTreasuryStrategy(ctx context.Context, caller, strategyIdentity types.Identity) (node.TxResult, error)
	SetProxyTarget(ctx context.Context, caller types.Identity, target types.ContractID) (node.TxResult, error)
	SetTokenApproval(ctx context.Context, caller types.Identity, strategyID types.ContractID, approved bool) (node.TxResult, error)
	Faucet(to types.Identity, asset types.AssetID, amount uint64) error
}

var _ Service = (*node.Node)(nil)

// WebServer serves the REST API and the Prometheus endpoint
type WebServer struct {
	router   *mux.Router
	port     string
	service  Service
	gatherer prometheus.Gatherer
	started  time.Time
	logger   zerolog.Logger
	server   *http.Server
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, service Service, gatherer prometheus.Gatherer) *WebServer {
	if port == "" {
		port = "8080"
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	server := &WebServer{
		router:   mux.NewRouter(),
		port:     port,
		service:  service,
		gatherer: gatherer,
		started:  time.Now(),
		logger:   logger.GetForComponent("web_server"),
	}

	server.setupRoutes()
	server.server = &http.Server{
		Addr:         ":" + port,
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

// Handler exposes the router, mainly for tests.
func (ws *WebServer) Handler() http.Handler { return ws.router }

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	ws.router.Handle("/metrics", promhttp.HandlerFor(ws.gatherer, promhttp.HandlerOpts{})).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/strategy", ws.handleGetStrategy).Methods("GET")
	api.HandleFunc("/strategy/allocations/{asset}", ws.handleGetAllocation).Methods("GET")
	api.HandleFunc("/strategy/preview/deposit", ws.handlePreviewDeposit).Methods("GET")
	api.HandleFunc("/strategy/preview/withdraw", ws.handlePreviewWithdraw).Methods("GET")
	api.HandleFunc("/treasury", ws.handleGetTreasury).Methods("GET")
	api.HandleFunc("/amm/pools", ws.handleGetPools).Methods("GET")
	api.HandleFunc("/balances/{identity}", ws.handleGetBalances).Methods("GET")
	api.HandleFunc("/actions", ws.handleGetActions).Methods("GET")
	api.HandleFunc("/actions/summary", ws.handleGetActionSummary).Methods("GET")

	api.HandleFunc("/tx/deposit", ws.handleDeposit).Methods("POST")
	api.HandleFunc("/tx/withdraw", ws.handleWithdraw).Methods("POST")
	api.HandleFunc("/tx/treasury/withdraw-fees", ws.handleWithdrawFees).Methods("POST")
	api.HandleFunc("/tx/strategy/set-fee", ws.handleSetFee).Methods("POST")
	api.HandleFunc("/tx/strategy/set-slippage", ws.handleSetSlippage).Methods("POST")
	api.HandleFunc("/tx/strategy/set-fee-treasury", ws.handleSetFeeTreasury).Methods("POST")
	api.HandleFunc("/tx/strategy/set-owner", ws.handleSetStrategyOwner).Methods("POST")
	api.HandleFunc("/tx/strategy/set-amm", ws.handleSetAMM).Methods("POST")
	api.HandleFunc("/tx/strategy/set-receipt-token", ws.handleSetReceiptToken).Methods("POST")
	api.HandleFunc("/tx/treasury/set-strategy", ws.handleSetTreasuryStrategy).Methods("POST")
	api.HandleFunc("/tx/treasury/set-proxy-target", ws.handleSetProxyTarget).Methods("POST")
	api.HandleFunc("/tx/token/set-strategy", ws.handleSetTokenApproval).Methods("POST")
	api.HandleFunc("/faucet", ws.handleFaucet).Methods("POST")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server and blocks until it stops
func (ws *WebServer) Start() error {
	ws.logger.Info().Str("port", ws.port).Msg("Starting web server")

	if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (ws *WebServer) Shutdown(ctx context.Context) error {
	return ws.server.Shutdown(ctx)
}

// handleHealth returns server health and chain status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := "OK"
	recorderHealthy := true
	summary, err := ws.service.ActionSummary(r.Context())
	if err != nil {
		ws.logger.Error().Err(err).Msg("Recorder summary failed during health check")
		recorderHealthy = false
		status = "DEGRADED"
	}

	response := map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]any{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
			"uptime_seconds":   int64(time.Since(ws.started).Seconds()),
		},
		"component": map[string]any{
			"name":    "sproutd",
			"version": "1.0.0",
		},
		"chain_status": map[string]any{
			"height":           ws.service.Height(),
			"recorder_healthy": recorderHealthy,
			"recorded_actions": summary.TotalActions,
			"failed_actions":   summary.FailedActions,
		},
	}

	statusCode := http.StatusOK
	if !recorderHealthy {
		statusCode = http.StatusServiceUnavailable
	}
	ws.writeJSONResponse(w, statusCode, response)
}

func (ws *WebServer) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	view, err := ws.service.Strategy()
	if err != nil {
		ws.writeError(w, err, nil)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, view)
}

func (ws *WebServer) handleGetAllocation(w http.ResponseWriter, r *http.Request) {
	asset, err := config.ResolveAsset(mux.Vars(r)["asset"])
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "", err.Error())
		return
	}
	alloc, ok, err := ws.service.Allocation(asset)
	if err != nil {
		ws.writeError(w, err, nil)
		return
	}
	if !ok {
		ws.writeErrorResponse(w, http.StatusNotFound, "", "Asset is not part of the basket")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, alloc)
}

func (ws *WebServer) handlePreviewDeposit(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseUint(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "", "Invalid amount")
		return
	}
	plan, err := ws.service.PreviewDeposit(amount)
	if err != nil {
		ws.writeError(w, err, nil)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, plan)
}

func (ws *WebServer) handlePreviewWithdraw(w http.ResponseWriter, r *http.Request) {
	receipts, err := strconv.ParseUint(r.URL.Query().Get("receipts"), 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "", "Invalid receipts")
		return
	}
	plan, err := ws.service.PreviewWithdraw(receipts)
	if err != nil {
		ws.writeError(w, err, nil)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, plan)
}

func (ws *WebServer) handleGetTreasury(w http.ResponseWriter, r *http.Request) {
	view, err := ws.service.Treasury()
	if err != nil {
		ws.writeError(w, err, nil)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, view)
}

func (ws *WebServer) handleGetPools(w http.ResponseWriter, r *http.Request) {
	pools, err := ws.service.Pools()
	if err != nil {
		ws.writeError(w, err, nil)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, PoolsResponse{Pools: pools, Count: len(pools)})
}

func (ws *WebServer) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	who, err := types.ParseIdentity(mux.Vars(r)["identity"])
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "", "Invalid identity")
		return
	}
	coins, err := ws.service.Balances(who)
	if err != nil {
		ws.writeError(w, err, nil)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, BalancesResponse{Identity: who, Balances: coins})
}

// handleGetActions returns the most recent receipts
func (ws *WebServer) handleGetActions(w http.ResponseWriter, r *http.Request) {
	limit := state.DefaultRecentLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= state.MaxRecentLimit {
			limit = parsedLimit
		}
	}

	actions, err := ws.service.RecentActions(r.Context(), limit)
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to get recent actions")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "", "Failed to retrieve actions")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, ActionsResponse{Actions: actions, Count: len(actions), Limit: limit})
}

func (ws *WebServer) handleGetActionSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := ws.service.ActionSummary(r.Context())
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to get action summary")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "", "Failed to retrieve action summary")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, summary)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		ws.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, kind, message string) {
	ws.writeJSONResponse(w, statusCode, ErrorResponse{
		Error:     true,
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// writeError maps a contract error to its status code and attaches the reverted receipt when there is one.
func (ws *WebServer) writeError(w http.ResponseWriter, err error, receipt *types.ActionReceipt) {
	kind := types.ErrorKind(err)
	ws.writeJSONResponse(w, statusForKind(kind), ErrorResponse{
		Error:     true,
		Kind:      kind,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
		Receipt:   receipt,
	})
}

func statusForKind(kind string) int {
	switch kind {
	case types.ErrNotOwner.Error(), types.ErrUnauthorized.Error():
		return http.StatusForbidden
	case types.ErrUnknownContract.Error():
		return http.StatusNotFound
	case types.ErrAlreadyInitialized.Error(), types.ErrNotInitialized.Error():
		return http.StatusConflict
	case "Unknown", types.ErrPanic.Error():
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		ws.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
