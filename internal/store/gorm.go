package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"trading-psych-analyzer/internal/models"

	"gorm.io/gorm"
)

// GormStore implements Storage on a gorm database.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// ensure GormStore implements the interface
var _ Storage = (*GormStore)(nil)

// NewGormStore wraps an already migrated database.
func NewGormStore(db *gorm.DB, now func() time.Time) *GormStore {
	return &GormStore{db: db, now: now}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func first[T any](db *gorm.DB, query interface{}, args ...interface{}) (*T, error) {
	var r T
	if err := db.Where(query, args...).First(&r).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return first[models.User](s.db.WithContext(ctx), "id = ?", id)
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return first[models.User](s.db.WithContext(ctx), "username = ?", username)
}

func (s *GormStore) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user := models.User{Username: username, PasswordHash: passwordHash}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetWallet(ctx context.Context, id uint) (*models.Wallet, error) {
	return first[models.Wallet](s.db.WithContext(ctx), "id = ?", id)
}

func (s *GormStore) GetWalletByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	return first[models.Wallet](s.db.WithContext(ctx), "address = ?", address)
}

func (s *GormStore) CreateWallet(ctx context.Context, address string) (*models.Wallet, error) {
	wallet := models.Wallet{Address: address}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Wallet{}).Where("address = ?", address).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		return tx.Create(&wallet).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &wallet, nil
}

func (s *GormStore) UpdateWalletLastAnalyzed(ctx context.Context, id uint, at time.Time) (*models.Wallet, error) {
	db := s.db.WithContext(ctx)
	res := db.Model(&models.Wallet{}).Where("id = ?", id).Update("last_analyzed", at)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetWallet(ctx, id)
}

func (s *GormStore) GetTradingAnalysis(ctx context.Context, id uint) (*models.TradingAnalysis, error) {
	return first[models.TradingAnalysis](s.db.WithContext(ctx), "id = ?", id)
}

func (s *GormStore) GetAnalysesByWalletID(ctx context.Context, walletID uint) ([]models.TradingAnalysis, error) {
	var analyses []models.TradingAnalysis
	err := s.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at desc").Order("id desc").
		Find(&analyses).Error
	if err != nil {
		return nil, translate(err)
	}
	return analyses, nil
}

func (s *GormStore) GetLatestAnalysisByWalletID(ctx context.Context, walletID uint) (*models.TradingAnalysis, error) {
	var analysis models.TradingAnalysis
	err := s.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at desc").Order("id desc").
		First(&analysis).Error
	if err != nil {
		return nil, translate(err)
	}
	return &analysis, nil
}

func (s *GormStore) CreateTradingAnalysis(ctx context.Context, walletID uint, data json.RawMessage) (*models.TradingAnalysis, error) {
	analysis := models.TradingAnalysis{
		WalletID:     walletID,
		AnalysisData: data,
		CreatedAt:    s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&analysis).Error; err != nil {
		return nil, translate(err)
	}
	return &analysis, nil
}
