package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"trading-psych-analyzer/internal/config"
	"trading-psych-analyzer/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stepClock returns a clock that advances one second on every call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func backends(t *testing.T) map[string]func() Storage {
	return map[string]func() Storage{
		"memory": func() Storage { return NewMemoryStore(stepClock()) },
		"gorm": func() Storage {
			db, err := database.NewDatabase(&config.Database{DSN: filepath.Join(t.TempDir(), "store.db")})
			require.NoError(t, err)
			return NewGormStore(db, stepClock())
		},
	}
}

func TestStorage_Users(t *testing.T) {
	ctx := context.Background()
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()

			u, err := s.CreateUser(ctx, "alice", "hash")
			require.NoError(t, err)
			assert.NotZero(t, u.ID)
			assert.Equal(t, "alice", u.Username)

			got, err := s.GetUser(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "hash", got.PasswordHash)

			got, err = s.GetUserByUsername(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, u.ID, got.ID)

			_, err = s.CreateUser(ctx, "alice", "other")
			assert.ErrorIs(t, err, ErrDuplicate)

			_, err = s.GetUser(ctx, u.ID+100)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.GetUserByUsername(ctx, "bob")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStorage_Wallets(t *testing.T) {
	ctx := context.Background()
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()

			w, err := s.CreateWallet(ctx, "wallet-a")
			require.NoError(t, err)
			assert.Nil(t, w.LastAnalyzed)

			_, err = s.CreateWallet(ctx, "wallet-a")
			assert.ErrorIs(t, err, ErrDuplicate)

			got, err := s.GetWalletByAddress(ctx, "wallet-a")
			require.NoError(t, err)
			assert.Equal(t, w.ID, got.ID)

			at := time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)
			updated, err := s.UpdateWalletLastAnalyzed(ctx, w.ID, at)
			require.NoError(t, err)
			require.NotNil(t, updated.LastAnalyzed)
			assert.True(t, at.Equal(*updated.LastAnalyzed))

			got, err = s.GetWallet(ctx, w.ID)
			require.NoError(t, err)
			require.NotNil(t, got.LastAnalyzed)
			assert.True(t, at.Equal(*got.LastAnalyzed))

			_, err = s.UpdateWalletLastAnalyzed(ctx, w.ID+100, at)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.GetWalletByAddress(ctx, "wallet-b")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStorage_Analyses(t *testing.T) {
	ctx := context.Background()
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()

			w, err := s.CreateWallet(ctx, "wallet-a")
			require.NoError(t, err)
			other, err := s.CreateWallet(ctx, "wallet-b")
			require.NoError(t, err)

			_, err = s.GetLatestAnalysisByWalletID(ctx, w.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			first, err := s.CreateTradingAnalysis(ctx, w.ID, json.RawMessage(`{"summary":"first"}`))
			require.NoError(t, err)
			second, err := s.CreateTradingAnalysis(ctx, w.ID, json.RawMessage(`{"summary":"second"}`))
			require.NoError(t, err)
			_, err = s.CreateTradingAnalysis(ctx, other.ID, json.RawMessage(`{}`))
			require.NoError(t, err)

			assert.NotEqual(t, first.ID, second.ID)
			assert.True(t, second.CreatedAt.After(first.CreatedAt))

			list, err := s.GetAnalysesByWalletID(ctx, w.ID)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, second.ID, list[0].ID)
			assert.Equal(t, first.ID, list[1].ID)
			assert.JSONEq(t, `{"summary":"second"}`, string(list[0].AnalysisData))

			latest, err := s.GetLatestAnalysisByWalletID(ctx, w.ID)
			require.NoError(t, err)
			assert.Equal(t, second.ID, latest.ID)

			got, err := s.GetTradingAnalysis(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, w.ID, got.WalletID)

			none, err := s.GetAnalysesByWalletID(ctx, other.ID+100)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestMemoryStore_ConcurrentInsertsGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Now)

	const n = 200
	ids := make(chan uint, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := s.CreateTradingAnalysis(ctx, 1, json.RawMessage(`{}`))
			if assert.NoError(t, err) {
				ids <- a.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestMemoryStore_ConcurrentWalletCreateIsUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Now)

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CreateWallet(ctx, "same"); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Now)

	w, err := s.CreateWallet(ctx, "wallet-a")
	require.NoError(t, err)
	w.Address = "mutated"

	got, err := s.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "wallet-a", got.Address)
}

func TestNew(t *testing.T) {
	logger := zap.NewNop()

	s, err := New(&config.Database{Driver: "memory"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(&config.Database{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "new.db")}, logger)
	require.NoError(t, err)
	assert.IsType(t, &GormStore{}, s)

	_, err = New(&config.Database{Driver: "postgres"}, logger)
	assert.Error(t, err)
}
