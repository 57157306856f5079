package service

import (
	"context"
	"os"
	"time"

	"golang-news-signal/internal/entity"
	"golang-news-signal/internal/monitor/repository"
	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/metrics"
)

// heartbeatWriter overwrites the liveness record. Write failures are logged only.
type heartbeatWriter struct {
	repo   repository.HeartbeatRepository
	logger *logger.Logger
	now    func() time.Time
	pid    int
}

func newHeartbeatWriter(repo repository.HeartbeatRepository, log *logger.Logger) *heartbeatWriter {
	return &heartbeatWriter{repo: repo, logger: log, now: time.Now, pid: os.Getpid()}
}

func (h *heartbeatWriter) beat(ctx context.Context, phase, message string) {
	hb := entity.Heartbeat{
		Status:     phase,
		LastUpdate: h.now().Unix(),
		Message:    message,
		PID:        h.pid,
	}
	if err := h.repo.Save(ctx, hb); err != nil {
		h.logger.Error("Failed to write heartbeat",
			logger.KindField(logger.KindStorage),
			logger.ErrorField(err),
			logger.StringField("phase", phase),
		)
		metrics.IncStorageError("heartbeat")
	}
}
