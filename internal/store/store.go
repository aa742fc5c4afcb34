// Package store persists users, wallets and trading analyses.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trading-psych-analyzer/internal/config"
	"trading-psych-analyzer/internal/database"
	"trading-psych-analyzer/internal/models"

	"go.uber.org/zap"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Storage is the record store used by the HTTP API.
type Storage interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)

	GetWallet(ctx context.Context, id uint) (*models.Wallet, error)
	GetWalletByAddress(ctx context.Context, address string) (*models.Wallet, error)
	CreateWallet(ctx context.Context, address string) (*models.Wallet, error)
	UpdateWalletLastAnalyzed(ctx context.Context, id uint, at time.Time) (*models.Wallet, error)

	GetTradingAnalysis(ctx context.Context, id uint) (*models.TradingAnalysis, error)
	// GetAnalysesByWalletID returns analyses newest first.
	GetAnalysesByWalletID(ctx context.Context, walletID uint) ([]models.TradingAnalysis, error)
	GetLatestAnalysisByWalletID(ctx context.Context, walletID uint) (*models.TradingAnalysis, error)
	CreateTradingAnalysis(ctx context.Context, walletID uint, data json.RawMessage) (*models.TradingAnalysis, error)
}

// New opens the backend named by cfg.Driver.
func New(cfg *config.Database, logger *zap.Logger) (Storage, error) {
	switch cfg.Driver {
	case "", "memory":
		logger.Info("Using in-memory record store")
		return NewMemoryStore(time.Now), nil
	case "sqlite":
		db, err := database.NewDatabase(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Using sqlite record store", zap.String("dsn", cfg.DSN))
		return NewGormStore(db, time.Now), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
