package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/buildcrew/fieldreport-api/internal/domain/report"
	domainRepo "github.com/buildcrew/fieldreport-api/internal/domain/repository"
	"github.com/buildcrew/fieldreport-api/pkg/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type redisBackupStore struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Logger
}

// NewRedisBackupStore creates a Redis-backed snapshot cache for editing
// sessions. Snapshots expire after ttl so abandoned sessions do not pile up.
func NewRedisBackupStore(rdb *redis.Client, ttl time.Duration, log *logrus.Logger) domainRepo.BackupStore {
	return &redisBackupStore{rdb: rdb, ttl: ttl, log: log}
}

func backupKey(actorID uuid.UUID, date time.Time) string {
	return "report:backup:" + actorID.String() + ":" + utils.FormatDate(date)
}

func (s *redisBackupStore) Get(ctx context.Context, actorID uuid.UUID, date time.Time) (*report.Snapshot, error) {
	val, err := s.rdb.Get(ctx, backupKey(actorID, date)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap report.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		// A value that decodes to a JSON string instead of an object was
		// encoded twice somewhere upstream. Treat it as corruption and log
		// it rather than unwrapping a second time.
		var doubled string
		if json.Unmarshal([]byte(val), &doubled) == nil {
			s.log.WithFields(logrus.Fields{
				"actor_id": actorID,
				"date":     utils.FormatDate(date),
			}).Warn("backup snapshot is double-encoded, discarding as corrupt")
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (s *redisBackupStore) Set(ctx context.Context, actorID uuid.UUID, date time.Time, snap *report.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, backupKey(actorID, date), data, s.ttl).Err()
}

func (s *redisBackupStore) Remove(ctx context.Context, actorID uuid.UUID, date time.Time) error {
	return s.rdb.Del(ctx, backupKey(actorID, date)).Err()
}
