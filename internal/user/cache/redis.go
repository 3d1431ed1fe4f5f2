package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/course-payments/internal"
	"github.com/frahmantamala/course-payments/internal/user"
)

const DefaultTTL = 5 * time.Minute

func NewClient(cfg internal.CacheConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Directory is a read-through Redis cache in front of a user.Directory.
// Redis failures never fail a lookup; the wrapped directory answers instead.
type Directory struct {
	next   user.Directory
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewDirectory(next user.Directory, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Directory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func profileKey(userID int64) string {
	return fmt.Sprintf("user:profile:%d", userID)
}

func (d *Directory) Lookup(ctx context.Context, userID int64) (*user.Profile, error) {
	raw, err := d.client.Get(ctx, profileKey(userID)).Bytes()
	switch {
	case err == nil:
		var p user.Profile
		if jerr := json.Unmarshal(raw, &p); jerr == nil {
			return &p, nil
		}
		d.logger.Warn("user cache: dropping undecodable entry", "user_id", userID)
	case !errors.Is(err, redis.Nil):
		d.logger.Warn("user cache: get failed, using directory", "user_id", userID, "error", err)
	}

	p, err := d.next.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.store(ctx, p)
	return p, nil
}

func (d *Directory) LookupMany(ctx context.Context, userIDs []int64) (map[int64]*user.Profile, error) {
	out := make(map[int64]*user.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = profileKey(id)
	}

	missing := userIDs
	vals, err := d.client.MGet(ctx, keys...).Result()
	if err != nil {
		d.logger.Warn("user cache: mget failed, using directory", "count", len(userIDs), "error", err)
	} else {
		missing = make([]int64, 0, len(userIDs))
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, userIDs[i])
				continue
			}
			var p user.Profile
			if jerr := json.Unmarshal([]byte(s), &p); jerr != nil {
				missing = append(missing, userIDs[i])
				continue
			}
			out[userIDs[i]] = &p
		}
	}

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := d.next.LookupMany(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, p := range fetched {
		out[id] = p
		d.store(ctx, p)
	}
	return out, nil
}

func (d *Directory) store(ctx context.Context, p *user.Profile) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := d.client.Set(ctx, profileKey(p.ID), raw, d.ttl).Err(); err != nil {
		d.logger.Warn("user cache: set failed", "user_id", p.ID, "error", err)
	}
}
