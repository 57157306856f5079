package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"golang-news-signal/internal/entity"
)

// HeartbeatRepository holds the single current-value liveness record.
type HeartbeatRepository interface {
	Save(ctx context.Context, hb entity.Heartbeat) error
	// Load reports found=false when no heartbeat has been written yet.
	Load(ctx context.Context) (hb entity.Heartbeat, found bool, err error)
}

type fileHeartbeatRepository struct {
	path string
}

// NewFileHeartbeatRepository stores the heartbeat as a JSON object at path.
func NewFileHeartbeatRepository(path string) HeartbeatRepository {
	return &fileHeartbeatRepository{path: path}
}

func (r *fileHeartbeatRepository) Save(_ context.Context, hb entity.Heartbeat) error {
	if err := writeJSONAtomic(r.path, hb); err != nil {
		return fmt.Errorf("failed to save heartbeat: %w", err)
	}
	return nil
}

func (r *fileHeartbeatRepository) Load(_ context.Context) (entity.Heartbeat, bool, error) {
	var hb entity.Heartbeat
	found, err := readJSON(r.path, &hb)
	if err != nil {
		return entity.Heartbeat{}, false, fmt.Errorf("failed to load heartbeat: %w", err)
	}
	return hb, found, nil
}

type redisHeartbeatRepository struct {
	client redis.Cmdable
	key    string
}

// NewRedisHeartbeatRepository stores the heartbeat as a Redis hash.
func NewRedisHeartbeatRepository(client redis.Cmdable, key string) HeartbeatRepository {
	return &redisHeartbeatRepository{client: client, key: key}
}

func (r *redisHeartbeatRepository) Save(ctx context.Context, hb entity.Heartbeat) error {
	err := r.client.HSet(ctx, r.key,
		"status", hb.Status,
		"last_update", hb.LastUpdate,
		"message", hb.Message,
		"pid", hb.PID,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save heartbeat: %w", err)
	}
	return nil
}

func (r *redisHeartbeatRepository) Load(ctx context.Context) (entity.Heartbeat, bool, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return entity.Heartbeat{}, false, fmt.Errorf("failed to load heartbeat: %w", err)
	}
	if len(fields) == 0 {
		return entity.Heartbeat{}, false, nil
	}

	hb := entity.Heartbeat{Status: fields["status"], Message: fields["message"]}
	if hb.LastUpdate, err = strconv.ParseInt(fields["last_update"], 10, 64); err != nil {
		return entity.Heartbeat{}, false, fmt.Errorf("failed to parse heartbeat last_update: %w", err)
	}
	if pid := fields["pid"]; pid != "" {
		if hb.PID, err = strconv.Atoi(pid); err != nil {
			return entity.Heartbeat{}, false, fmt.Errorf("failed to parse heartbeat pid: %w", err)
		}
	}
	return hb, true, nil
}
