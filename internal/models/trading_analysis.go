package models

import (
	"encoding/json"
	"time"
)

// TradingAnalysis is a stored psychology report for a wallet.
type TradingAnalysis struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	WalletID     uint            `gorm:"index;not null" json:"walletId"`
	AnalysisData json.RawMessage `gorm:"type:text;not null" json:"analysisData"`
	CreatedAt    time.Time       `gorm:"not null" json:"createdAt"`
}
