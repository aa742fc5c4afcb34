// Package httpapi exposes the simulator and its collaborators over HTTP.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"trading-psych-analyzer/internal/analysis"
	"trading-psych-analyzer/internal/models"
	"trading-psych-analyzer/internal/simulator"
	"trading-psych-analyzer/internal/store"
	"trading-psych-analyzer/internal/wallet"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SeedSourceHeader reports how the seed behind a trade history was derived.
const SeedSourceHeader = "X-Seed-Source"

// TradeGenerator produces the simulated trade history of an address.
type TradeGenerator interface {
	Generate(address string) (*simulator.History, error)
}

// PriceSource returns the current SOL/USD price. It never fails.
type PriceSource interface {
	SOLPrice(ctx context.Context) float64
}

// ReportAnalyzer turns trades into a psychology report. It never fails.
type ReportAnalyzer interface {
	Analyze(ctx context.Context, trades []simulator.Trade) *analysis.Report
}

// WalletConnector simulates wallet connections.
type WalletConnector interface {
	Connect(ctx context.Context, mode wallet.Mode, address string) (*wallet.Connection, error)
}

// Options tune request validation and analysis reuse.
type Options struct {
	MinAddressLength int
	ReuseWindow      time.Duration
	BcryptCost       int
}

// Handlers holds dependencies for the API endpoints.
type Handlers struct {
	trades   TradeGenerator
	prices   PriceSource
	analyzer ReportAnalyzer
	wallets  WalletConnector
	store    store.Storage
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandlers creates Handlers. Zero Options fields take their defaults.
func NewHandlers(
	trades TradeGenerator,
	prices PriceSource,
	analyzer ReportAnalyzer,
	wallets WalletConnector,
	records store.Storage,
	opts Options,
	logger *zap.Logger,
) *Handlers {
	if opts.MinAddressLength <= 0 {
		opts.MinAddressLength = 32
	}
	if opts.ReuseWindow <= 0 {
		opts.ReuseWindow = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Handlers{
		trades:   trades,
		prices:   prices,
		analyzer: analyzer,
		wallets:  wallets,
		store:    records,
		opts:     opts,
		logger:   logger.Named("api"),
		now:      time.Now,
	}
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// SolanaPrice returns the current SOL/USD price.
func (h *Handlers) SolanaPrice(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"price": h.prices.SOLPrice(c.Request.Context())})
}

// Trades returns the simulated trade history of a wallet.
func (h *Handlers) Trades(c *gin.Context) {
	address := c.Param("walletAddress")
	if len(address) < h.opts.MinAddressLength {
		BadRequest(c, "Invalid wallet address")
		return
	}

	history, err := h.trades.Generate(address)
	if err != nil {
		if errors.Is(err, simulator.ErrInvalidInput) {
			BadRequest(c, "Invalid wallet address")
			return
		}
		h.logger.Error("Failed to generate trades", zap.String("address", address), zap.Error(err))
		InternalError(c, "Failed to fetch trading data")
		return
	}

	c.Header(SeedSourceHeader, string(history.Seed.Source))
	c.JSON(http.StatusOK, history)
}

type analyzeRequest struct {
	WalletAddress string          `json:"walletAddress"`
	Trades        json.RawMessage `json:"trades"`
}

func (r analyzeRequest) trades() ([]simulator.Trade, bool) {
	raw := bytes.TrimSpace(r.Trades)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var trades []simulator.Trade
	if err := json.Unmarshal(raw, &trades); err != nil || len(trades) == 0 {
		return nil, false
	}
	return trades, true
}

// Analyze returns a psychology report for the posted trades. A stored report
// younger than the reuse window is returned as is.
func (h *Handlers) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request data")
		return
	}
	trades, ok := req.trades()
	if req.WalletAddress == "" || !ok {
		BadRequest(c, "Invalid request data")
		return
	}

	ctx := c.Request.Context()
	w, err := h.walletFor(ctx, req.WalletAddress)
	if err != nil {
		h.logger.Error("Failed to load wallet", zap.String("address", req.WalletAddress), zap.Error(err))
		InternalError(c, "Analysis failed")
		return
	}

	latest, err := h.store.GetLatestAnalysisByWalletID(ctx, w.ID)
	switch {
	case err == nil && h.now().Sub(latest.CreatedAt) < h.opts.ReuseWindow:
		c.Data(http.StatusOK, "application/json; charset=utf-8", latest.AnalysisData)
		return
	case err != nil && !errors.Is(err, store.ErrNotFound):
		h.logger.Error("Failed to load latest analysis", zap.Uint("walletId", w.ID), zap.Error(err))
		InternalError(c, "Analysis failed")
		return
	}

	report := h.analyzer.Analyze(ctx, trades)
	if report.Placeholder {
		c.JSON(http.StatusOK, report)
		return
	}

	data, err := json.Marshal(report)
	if err != nil {
		h.logger.Error("Failed to encode report", zap.Error(err))
		InternalError(c, "Analysis failed")
		return
	}
	if _, err := h.store.CreateTradingAnalysis(ctx, w.ID, data); err != nil {
		h.logger.Error("Failed to store analysis", zap.Uint("walletId", w.ID), zap.Error(err))
		InternalError(c, "Analysis failed")
		return
	}
	if _, err := h.store.UpdateWalletLastAnalyzed(ctx, w.ID, h.now()); err != nil {
		h.logger.Warn("Failed to stamp wallet", zap.Uint("walletId", w.ID), zap.Error(err))
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// walletFor returns the wallet for address, creating it on first use.
func (h *Handlers) walletFor(ctx context.Context, address string) (*models.Wallet, error) {
	w, err := h.store.GetWalletByAddress(ctx, address)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	w, err = h.store.CreateWallet(ctx, address)
	if errors.Is(err, store.ErrDuplicate) {
		// lost a race with a concurrent request
		return h.store.GetWalletByAddress(ctx, address)
	}
	return w, err
}

// WalletAnalyses lists the stored analyses of a wallet, newest first.
func (h *Handlers) WalletAnalyses(c *gin.Context) {
	ctx := c.Request.Context()
	w, err := h.store.GetWalletByAddress(ctx, c.Param("walletAddress"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "Wallet not found")
			return
		}
		h.logger.Error("Failed to load wallet", zap.Error(err))
		InternalError(c, "Failed to fetch analyses")
		return
	}

	analyses, err := h.store.GetAnalysesByWalletID(ctx, w.ID)
	if err != nil {
		h.logger.Error("Failed to load analyses", zap.Uint("walletId", w.ID), zap.Error(err))
		InternalError(c, "Failed to fetch analyses")
		return
	}
	c.JSON(http.StatusOK, analyses)
}

type connectRequest struct {
	Mode    string `json:"mode"`
	Address string `json:"address"`
}

// ConnectWallet simulates connecting a wallet.
func (h *Handlers) ConnectWallet(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request data")
		return
	}
	mode, err := wallet.ParseMode(req.Mode)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	if mode == wallet.ModeSeeded && len(req.Address) < h.opts.MinAddressLength {
		BadRequest(c, "Invalid wallet address")
		return
	}

	conn, err := h.wallets.Connect(c.Request.Context(), mode, req.Address)
	if err != nil {
		if errors.Is(err, simulator.ErrInvalidInput) || errors.Is(err, wallet.ErrInvalidMode) {
			BadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to connect wallet", zap.Error(err))
		InternalError(c, "Failed to connect wallet")
		return
	}
	c.JSON(http.StatusOK, conn)
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateUser registers a user. The password is stored as a bcrypt hash.
func (h *Handlers) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Username and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.opts.BcryptCost)
	if err != nil {
		// bcrypt rejects passwords longer than 72 bytes
		BadRequest(c, err.Error())
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), req.Username, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			Conflict(c, "Username already exists")
			return
		}
		h.logger.Error("Failed to create user", zap.Error(err))
		InternalError(c, "Failed to create user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser returns a user by id.
func (h *Handlers) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		BadRequest(c, "Invalid user id")
		return
	}

	user, err := h.store.GetUser(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "User not found")
			return
		}
		h.logger.Error("Failed to load user", zap.Error(err))
		InternalError(c, "Failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, user)
}
