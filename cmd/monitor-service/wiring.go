package main

import (
	"context"
	"fmt"

	"golang-news-signal/internal/monitor/config"
	"golang-news-signal/internal/monitor/repository"
	"golang-news-signal/pkg/common"
	"golang-news-signal/pkg/database"
	"golang-news-signal/pkg/expo"
	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/notifier"
	"golang-news-signal/pkg/redis"
	"golang-news-signal/pkg/telegram"
)

// stores holds the persistence backends selected by configuration.
type stores struct {
	cfg     *config.Config
	logger  *logger.Logger
	redis   *redis.Client
	db      *database.DB
	closers []func()
}

func newStores(cfg *config.Config, log *logger.Logger) *stores {
	return &stores{cfg: cfg, logger: log}
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func (s *stores) redisClient() (*redis.Client, error) {
	if s.redis != nil {
		return s.redis, nil
	}
	client, err := redis.NewClient(redis.Config{
		Host:     s.cfg.Redis.Host,
		Port:     s.cfg.Redis.Port,
		Password: s.cfg.Redis.Password,
		DB:       s.cfg.Redis.DB,
		PoolSize: s.cfg.Redis.PoolSize,
	})
	if err != nil {
		return nil, err
	}
	s.redis = client
	s.closers = append(s.closers, func() { _ = client.Close() })
	return client, nil
}

func (s *stores) database() (*database.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	db, err := database.NewDB(database.Config{
		Driver:          s.cfg.Database.Driver,
		Host:            s.cfg.Database.Host,
		Port:            s.cfg.Database.Port,
		User:            s.cfg.Database.User,
		Password:        s.cfg.Database.Password,
		DBName:          s.cfg.Database.DBName,
		SSLMode:         s.cfg.Database.SSLMode,
		TimeZone:        s.cfg.Database.TimeZone,
		MaxIdleConns:    s.cfg.Database.MaxIdleConns,
		MaxOpenConns:    s.cfg.Database.MaxOpenConns,
		ConnMaxLifetime: s.cfg.Database.ConnMaxLifetime,
		LogLevel:        s.cfg.Database.LogLevel,
	})
	if err != nil {
		return nil, err
	}
	s.db = db
	if sqlDB, err := db.DB.DB(); err == nil {
		s.closers = append(s.closers, func() { _ = sqlDB.Close() })
	}
	return db, nil
}

func (s *stores) seenItems(ctx context.Context) (repository.SeenItemRepository, error) {
	if s.cfg.Storage.Ledger != common.StorageRedis {
		return repository.NewFileSeenItemRepository(s.cfg.Storage.SeenFile, s.logger), nil
	}
	client, err := s.redisClient()
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf(common.RedisKeySeen, s.cfg.Redis.KeyPrefix)
	return repository.NewRedisSeenItemRepository(ctx, client.Client, key, s.logger), nil
}

func (s *stores) signals() (repository.SignalRepository, error) {
	if s.cfg.Storage.SignalLog != common.StorageDatabase {
		return repository.NewFileSignalRepository(s.cfg.Storage.SignalsFile, s.cfg.Storage.MaxSignals, s.logger), nil
	}
	db, err := s.database()
	if err != nil {
		return nil, err
	}
	return repository.NewDatabaseSignalRepository(db.DB, s.cfg.Storage.MaxSignals)
}

func (s *stores) heartbeat() (repository.HeartbeatRepository, error) {
	if s.cfg.Storage.Heartbeat != common.StorageRedis {
		return repository.NewFileHeartbeatRepository(s.cfg.Storage.HeartbeatFile), nil
	}
	client, err := s.redisClient()
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf(common.RedisKeyHeartbeat, s.cfg.Redis.KeyPrefix)
	return repository.NewRedisHeartbeatRepository(client.Client, key), nil
}

func newTransport(cfg *config.Config, log *logger.Logger) (notifier.Notifier, error) {
	switch cfg.Notification.Transport {
	case common.TransportTelegram:
		return telegram.NewClient(cfg.Telegram.BotToken)
	default:
		return expo.NewClient(expo.Config{
			PushURL:     cfg.Expo.PushURL,
			AccessToken: cfg.Expo.AccessToken,
			Timeout:     cfg.Monitor.SendTimeout,
		}, log), nil
	}
}
