package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"golang-news-signal/internal/entity"
	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/metrics"
)

// DefaultMaxSignals is the retention cap used when none is configured.
const DefaultMaxSignals = 1000

// SignalRepository is the bounded, insertion-ordered log of generated signals.
type SignalRepository interface {
	// Append stores signal, assigning its ID and CreatedAt when unset, and evicts
	// the oldest entries beyond the retention cap. On failure an ID assigned by
	// the call is cleared again.
	Append(ctx context.Context, signal *entity.Signal) (string, error)
	// List returns at most limit of the most recent signals. A non-positive
	// limit returns everything retained.
	List(ctx context.Context, limit int, newestFirst bool) ([]entity.Signal, error)
}

func prepareSignal(signal *entity.Signal) error {
	if signal.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate signal id: %w", err)
		}
		signal.ID = id.String()
	}
	if signal.CreatedAt.IsZero() {
		signal.CreatedAt = time.Now().UTC()
	}
	return nil
}

// tail returns the last limit entries of the oldest-first slice in the requested order.
func tail(signals []entity.Signal, limit int, newestFirst bool) []entity.Signal {
	if limit > 0 && len(signals) > limit {
		signals = signals[len(signals)-limit:]
	}
	out := make([]entity.Signal, len(signals))
	copy(out, signals)
	if newestFirst {
		reverseSignals(out)
	}
	return out
}

func reverseSignals(s []entity.Signal) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

type fileSignalRepository struct {
	mu     sync.Mutex
	path   string
	max    int
	logger *logger.Logger
}

// NewFileSignalRepository stores the log as a JSON array, oldest first.
func NewFileSignalRepository(path string, maxSignals int, log *logger.Logger) SignalRepository {
	if maxSignals <= 0 {
		maxSignals = DefaultMaxSignals
	}
	return &fileSignalRepository{path: path, max: maxSignals, logger: log}
}

func (r *fileSignalRepository) load() []entity.Signal {
	var signals []entity.Signal
	if _, err := readJSON(r.path, &signals); err != nil {
		r.logger.Error("Signal log unreadable, treating as empty", logger.KindField(logger.KindStorage), logger.ErrorField(err), logger.StringField("path", r.path))
		metrics.IncStorageError("signal_log")
		return nil
	}
	return signals
}

func (r *fileSignalRepository) Append(_ context.Context, signal *entity.Signal) (string, error) {
	assigned := signal.ID == ""
	if err := prepareSignal(signal); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	signals := append(r.load(), *signal)
	if len(signals) > r.max {
		signals = signals[len(signals)-r.max:]
	}
	if err := writeJSONAtomic(r.path, signals); err != nil {
		if assigned {
			signal.ID = ""
		}
		return "", fmt.Errorf("failed to persist signal log: %w", err)
	}
	return signal.ID, nil
}

func (r *fileSignalRepository) List(_ context.Context, limit int, newestFirst bool) ([]entity.Signal, error) {
	r.mu.Lock()
	signals := r.load()
	r.mu.Unlock()
	return tail(signals, limit, newestFirst), nil
}

type databaseSignalRepository struct {
	mu  sync.Mutex
	db  *gorm.DB
	max int
}

// NewDatabaseSignalRepository stores the log in the signals table, creating it when missing.
func NewDatabaseSignalRepository(db *gorm.DB, maxSignals int) (SignalRepository, error) {
	if maxSignals <= 0 {
		maxSignals = DefaultMaxSignals
	}
	if err := db.AutoMigrate(&entity.Signal{}); err != nil {
		return nil, fmt.Errorf("failed to migrate signals table: %w", err)
	}
	return &databaseSignalRepository{db: db, max: maxSignals}, nil
}

func (r *databaseSignalRepository) Append(ctx context.Context, signal *entity.Signal) (string, error) {
	assigned := signal.ID == ""
	if err := prepareSignal(signal); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int64
		if err := tx.Model(&entity.Signal{}).Select("COALESCE(MAX(seq), 0)").Scan(&last).Error; err != nil {
			return fmt.Errorf("failed to read last sequence: %w", err)
		}
		signal.Seq = last + 1
		if err := tx.Create(signal).Error; err != nil {
			return fmt.Errorf("failed to insert signal: %w", err)
		}
		if cutoff := signal.Seq - int64(r.max); cutoff > 0 {
			if err := tx.Where("seq <= ?", cutoff).Delete(&entity.Signal{}).Error; err != nil {
				return fmt.Errorf("failed to evict old signals: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		signal.Seq = 0
		if assigned {
			signal.ID = ""
		}
		return "", err
	}
	return signal.ID, nil
}

func (r *databaseSignalRepository) List(ctx context.Context, limit int, newestFirst bool) ([]entity.Signal, error) {
	var signals []entity.Signal
	q := r.db.WithContext(ctx).Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&signals).Error; err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	if !newestFirst {
		reverseSignals(signals)
	}
	return signals, nil
}
