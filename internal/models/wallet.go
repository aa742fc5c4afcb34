package models

import "time"

// Wallet is a wallet address that has been seen by the API.
// There is at most one row per address.
type Wallet struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Address      string     `gorm:"uniqueIndex;not null" json:"address"`
	LastAnalyzed *time.Time `json:"lastAnalyzed"`
}
