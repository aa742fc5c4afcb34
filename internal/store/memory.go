package store

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"trading-psych-analyzer/internal/models"
)

// MemoryStore keeps every record in process memory. Nothing survives a restart.
type MemoryStore struct {
	users    *Arena[models.User]
	wallets  *Arena[models.Wallet]
	analyses *Arena[models.TradingAnalysis]
	now      func() time.Time
}

// ensure MemoryStore implements the interface
var _ Storage = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store. now stamps analysis creation times.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		users:    NewArena[models.User](),
		wallets:  NewArena[models.Wallet](),
		analyses: NewArena[models.TradingAnalysis](),
		now:      now,
	}
}

func found[T any](r T, ok bool) (*T, error) {
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id uint) (*models.User, error) {
	u, ok := s.users.Get(id)
	return found(u, ok)
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := s.users.First(func(u models.User) bool { return u.Username == username })
	return found(u, ok)
}

func (s *MemoryStore) CreateUser(_ context.Context, username, passwordHash string) (*models.User, error) {
	u, err := s.users.Insert(
		func(u models.User) bool { return u.Username == username },
		func(id uint) models.User {
			return models.User{ID: id, Username: username, PasswordHash: passwordHash}
		},
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MemoryStore) GetWallet(_ context.Context, id uint) (*models.Wallet, error) {
	w, ok := s.wallets.Get(id)
	return found(w, ok)
}

func (s *MemoryStore) GetWalletByAddress(_ context.Context, address string) (*models.Wallet, error) {
	w, ok := s.wallets.First(func(w models.Wallet) bool { return w.Address == address })
	return found(w, ok)
}

func (s *MemoryStore) CreateWallet(_ context.Context, address string) (*models.Wallet, error) {
	w, err := s.wallets.Insert(
		func(w models.Wallet) bool { return w.Address == address },
		func(id uint) models.Wallet { return models.Wallet{ID: id, Address: address} },
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *MemoryStore) UpdateWalletLastAnalyzed(_ context.Context, id uint, at time.Time) (*models.Wallet, error) {
	w, err := s.wallets.Update(id, func(w models.Wallet) models.Wallet {
		w.LastAnalyzed = &at
		return w
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *MemoryStore) GetTradingAnalysis(_ context.Context, id uint) (*models.TradingAnalysis, error) {
	a, ok := s.analyses.Get(id)
	return found(a, ok)
}

func (s *MemoryStore) GetAnalysesByWalletID(_ context.Context, walletID uint) ([]models.TradingAnalysis, error) {
	out := s.analyses.Find(func(a models.TradingAnalysis) bool { return a.WalletID == walletID })
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetLatestAnalysisByWalletID(ctx context.Context, walletID uint) (*models.TradingAnalysis, error) {
	analyses, err := s.GetAnalysesByWalletID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, ErrNotFound
	}
	return &analyses[0], nil
}

func (s *MemoryStore) CreateTradingAnalysis(_ context.Context, walletID uint, data json.RawMessage) (*models.TradingAnalysis, error) {
	createdAt := s.now()
	a, err := s.analyses.Insert(nil, func(id uint) models.TradingAnalysis {
		return models.TradingAnalysis{
			ID:           id,
			WalletID:     walletID,
			AnalysisData: append(json.RawMessage(nil), data...),
			CreatedAt:    createdAt,
		}
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}
