package dto

import (
	"golang-news-signal/internal/entity"
)

// Delivery outcomes for one subscriber and one signal.
const (
	OutcomeSent             = "sent"
	OutcomeSkippedDeny      = "skipped_deny"
	OutcomeSkippedAllow     = "skipped_allow"
	OutcomeSkippedThreshold = "skipped_threshold"
	OutcomeFailed           = "failed"
)

// DeliveryOutcome records the routing decision and transport result for one subscriber.
type DeliveryOutcome struct {
	RecipientID string `json:"recipient_id"`
	Outcome     string `json:"outcome"`
	Error       error  `json:"-"`
}

// FeedReport summarizes one feed within a poll.
type FeedReport struct {
	Feed     string `json:"feed"`
	Fetched  int    `json:"fetched"`
	NewItems int    `json:"new_items"`
	Error    string `json:"error,omitempty"`
}

// PollResult is the output of one poll over all feeds.
type PollResult struct {
	Items   []entity.FeedItem `json:"-"`
	Reports []FeedReport      `json:"reports"`
}

// FailedFeeds returns the names of the feeds that could not be fetched.
func (p PollResult) FailedFeeds() []string {
	var failed []string
	for _, r := range p.Reports {
		if r.Error != "" {
			failed = append(failed, r.Feed)
		}
	}
	return failed
}

// CycleResult summarizes one monitor cycle.
type CycleResult struct {
	NewItems    int             `json:"new_items"`
	FailedFeeds []string        `json:"failed_feeds,omitempty"`
	Signals     []entity.Signal `json:"signals"`
	Deliveries  map[string]int  `json:"deliveries"`
}

// FoundNew reports whether the cycle saw at least one unseen item.
func (c CycleResult) FoundNew() bool {
	return c.NewItems > 0
}
