package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/redis"
)

// Repository persists cart snapshots in the session key-value store.
type Repository interface {
	Load(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

type redisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepository returns a snapshot repository. The TTL should outlive the
// hold window so an expired-but-uncleaned key cannot resurrect a cart.
func NewRedisRepository(client *redis.Client, ttl time.Duration) (Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &redisRepository{client: client, ttl: ttl}, nil
}

func (r *redisRepository) Load(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	raw, err := r.client.Get(ctx, r.client.CartKey(sessionID.String()))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart snapshot")
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart snapshot")
	}
	return &snapshot, nil
}

func (r *redisRepository) Save(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil || snapshot.SessionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "snapshot requires a session id")
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart snapshot")
	}
	if err := r.client.Set(ctx, r.client.CartKey(snapshot.SessionID.String()), string(payload), r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart snapshot")
	}
	return nil
}

func (r *redisRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if err := r.client.Del(ctx, r.client.CartKey(sessionID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart snapshot")
	}
	return nil
}
