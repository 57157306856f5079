package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang-news-signal/internal/entity"
	"golang-news-signal/internal/monitor/dto"
	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/metrics"
	"golang-news-signal/pkg/notifier"
	"golang-news-signal/pkg/utils"
)

// NotificationRouter delivers a signal to every subscriber whose preferences accept it.
type NotificationRouter interface {
	Route(ctx context.Context, signal entity.Signal, prefs map[string]entity.Preference) []dto.DeliveryOutcome
}

// NewNotificationRouter creates a router sending through transport with at most
// maxConcurrent sends in flight, each bounded by sendTimeout.
func NewNotificationRouter(transport notifier.Notifier, maxConcurrent int, sendTimeout time.Duration, log *logger.Logger) NotificationRouter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &notificationRouter{
		transport:     transport,
		maxConcurrent: maxConcurrent,
		sendTimeout:   sendTimeout,
		logger:        log,
	}
}

type notificationRouter struct {
	transport     notifier.Notifier
	maxConcurrent int
	sendTimeout   time.Duration
	logger        *logger.Logger
}

// Decide applies the subscriber filters in order: deny list, allow list, then
// threshold. It returns OutcomeSent when the signal should be delivered.
func Decide(signal entity.Signal, pref entity.Preference) string {
	if pref.Denies(signal.Ticker) {
		return dto.OutcomeSkippedDeny
	}
	if len(pref.AllowList) > 0 && !pref.Allows(signal.Ticker) {
		return dto.OutcomeSkippedAllow
	}
	switch signal.Action {
	case entity.ActionBuy:
		if signal.ImpactPercent >= pref.MinBuyImpact {
			return dto.OutcomeSent
		}
	case entity.ActionSell:
		if abs(signal.ImpactPercent) >= abs(pref.MinSellImpact) {
			return dto.OutcomeSent
		}
	}
	return dto.OutcomeSkippedThreshold
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// BuildMessage renders the push notification for signal.
func BuildMessage(signal entity.Signal, recipientID string) notifier.Message {
	return notifier.Message{
		RecipientID: recipientID,
		Title:       fmt.Sprintf("%s: %s", signal.Ticker, signal.Action),
		Body:        fmt.Sprintf("Estimativa: %+d%%\n%s", signal.ImpactPercent, signal.Reason),
		Data: map[string]string{
			"url":       signal.SourceURL,
			"signal_id": signal.ID,
		},
	}
}

// Route returns one outcome per subscriber, ordered by recipient id. A failed
// send is reported and never prevents the remaining sends.
func (r *notificationRouter) Route(ctx context.Context, signal entity.Signal, prefs map[string]entity.Preference) []dto.DeliveryOutcome {
	recipients := make([]string, 0, len(prefs))
	for id := range prefs {
		recipients = append(recipients, id)
	}
	sort.Strings(recipients)

	outcomes := make([]dto.DeliveryOutcome, len(recipients))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, r.maxConcurrent)

	for i, recipient := range recipients {
		outcomes[i] = dto.DeliveryOutcome{RecipientID: recipient, Outcome: Decide(signal, prefs[recipient])}
		if outcomes[i].Outcome != dto.OutcomeSent {
			continue
		}

		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := r.send(ctx, BuildMessage(signal, recipient)); err != nil {
				r.logger.Error("Failed to deliver notification",
					logger.KindField(logger.KindTransient),
					logger.ErrorField(err),
					logger.StringField("recipient", recipient),
					logger.StringField("ticker", signal.Ticker),
					logger.StringField("signal_id", signal.ID),
				)
				outcomes[i].Outcome = dto.OutcomeFailed
				outcomes[i].Error = err
			}
		})
	}
	wg.Wait()

	for _, o := range outcomes {
		metrics.IncDelivery(o.Outcome)
	}
	return outcomes
}

func (r *notificationRouter) send(ctx context.Context, msg notifier.Message) error {
	sctx, cancel := withOptionalTimeout(ctx, r.sendTimeout)
	defer cancel()
	return utils.RunSafe(func() error {
		return r.transport.Send(sctx, msg)
	})
}
