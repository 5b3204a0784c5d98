package promo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/redis"
)

// Store persists the session's applied promotion.
type Store interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*Applied, error)
	Save(ctx context.Context, sessionID uuid.UUID, applied Applied) error
	Clear(ctx context.Context, sessionID uuid.UUID) error
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a promotion store backed by the session key-value store.
func NewRedisStore(client *redis.Client, ttl time.Duration) (Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &redisStore{client: client, ttl: ttl}, nil
}

func (s *redisStore) Get(ctx context.Context, sessionID uuid.UUID) (*Applied, error) {
	raw, err := s.client.Get(ctx, s.client.PromoKey(sessionID.String()))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	var applied Applied
	if err := json.Unmarshal([]byte(raw), &applied); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode promotion")
	}
	return &applied, nil
}

func (s *redisStore) Save(ctx context.Context, sessionID uuid.UUID, applied Applied) error {
	payload, err := json.Marshal(applied)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode promotion")
	}
	if err := s.client.Set(ctx, s.client.PromoKey(sessionID.String()), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save promotion")
	}
	return nil
}

func (s *redisStore) Clear(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.client.Del(ctx, s.client.PromoKey(sessionID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear promotion")
	}
	return nil
}
