package analysis

// Report is a trading psychology report as returned to clients.
type Report struct {
	Summary         Summary   `json:"summary"`
	Patterns        Patterns  `json:"patterns"`
	Strengths       []Insight `json:"strengths"`
	Weaknesses      []Insight `json:"weaknesses"`
	Recommendations []Insight `json:"recommendations"`
	Date            string    `json:"date"`
	// Placeholder marks a locally computed report used when the model is unavailable.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Summary holds headline figures.
type Summary struct {
	TradingVolume  string `json:"tradingVolume"`
	WinRate        string `json:"winRate"`
	EmotionalIndex string `json:"emotionalIndex"`
	WinRateStats   string `json:"winRateStats"`
}

// Patterns holds the narrative plus 1-100 scores.
type Patterns struct {
	Summary        string  `json:"summary"`
	RiskManagement float64 `json:"riskManagement"`
	EntryTiming    float64 `json:"entryTiming"`
	ExitDiscipline float64 `json:"exitDiscipline"`
}

// Insight is a titled strength, weakness or recommendation.
type Insight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
