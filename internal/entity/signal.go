package entity

import (
	"strings"
	"time"
)

// Action is the trading verdict for a ticker.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// ParseAction normalizes s, returning HOLD for anything unrecognized.
func ParseAction(s string) Action {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy
	case ActionSell:
		return ActionSell
	default:
		return ActionHold
	}
}

// Actionable reports whether the action produces a signal.
func (a Action) Actionable() bool {
	return a == ActionBuy || a == ActionSell
}

// Sentiment of a news item toward a ticker.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// ParseSentiment normalizes s, returning NEUTRAL for anything unrecognized.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(strings.ToUpper(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Signal is a generated BUY/SELL verdict. It is never mutated after creation.
type Signal struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Seq           int64     `gorm:"not null;index" json:"-"`
	Ticker        string    `gorm:"size:16;not null;index" json:"ticker"`
	Action        Action    `gorm:"size:8;not null" json:"action"`
	Sentiment     Sentiment `gorm:"size:16" json:"sentiment,omitempty"`
	ImpactPercent int       `gorm:"not null" json:"impact_percent"`
	Reason        string    `json:"reason"`
	Title         string    `json:"title,omitempty"`
	Feed          string    `gorm:"size:128" json:"feed,omitempty"`
	SourceURL     string    `json:"source_url"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for the Signal model.
func (Signal) TableName() string {
	return "signals"
}
