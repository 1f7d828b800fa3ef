package oddsfeed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"pickmarket/models"
)

// Feed is the narrow interface the settlement core consumes.
type Feed interface {
	FetchLeagues(ctx context.Context) ([]models.League, error)
	FetchOdds(ctx context.Context, sportKey string) ([]models.MatchOdds, error)
}

// CachedFeed wraps a Feed with a short-TTL Redis cache keyed by sport. One
// settlement pass fetches each sport at most once, and passes running within
// the TTL reuse the snapshot instead of hitting the provider again.
type CachedFeed struct {
	feed   Feed
	client *redis.Client
	ttl    time.Duration
}

// NewCachedFeed creates a cached feed with the given TTL
func NewCachedFeed(feed Feed, client *redis.Client, ttl time.Duration) *CachedFeed {
	return &CachedFeed{
		feed:   feed,
		client: client,
		ttl:    ttl,
	}
}

func snapshotKey(sportKey string) string { return "odds:snapshot:" + sportKey }

// FetchLeagues passes through to the underlying feed; league listings are
// cheap and infrequent enough not to cache.
func (c *CachedFeed) FetchLeagues(ctx context.Context) ([]models.League, error) {
	return c.feed.FetchLeagues(ctx)
}

// FetchOdds returns the cached snapshot for the sport when present,
// otherwise fetches from the provider and stores the result. Cache failures
// degrade to direct fetches.
func (c *CachedFeed) FetchOdds(ctx context.Context, sportKey string) ([]models.MatchOdds, error) {
	cached, err := c.client.Get(ctx, snapshotKey(sportKey)).Bytes()
	if err == nil {
		var odds []models.MatchOdds
		if err := json.Unmarshal(cached, &odds); err == nil {
			return odds, nil
		}
		// Corrupt entry, fall through to a fresh fetch
	} else if err != redis.Nil {
		log.WithError(err).WithField("sportKey", sportKey).Warn("Snapshot cache read failed, fetching directly")
	}

	odds, err := c.feed.FetchOdds(ctx, sportKey)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(odds); err == nil {
		// Best effort; a failed write just means the next pass fetches again
		c.client.Set(ctx, snapshotKey(sportKey), encoded, c.ttl)
	}

	return odds, nil
}

// Invalidate drops the cached snapshot for a sport
func (c *CachedFeed) Invalidate(ctx context.Context, sportKey string) error {
	return c.client.Del(ctx, snapshotKey(sportKey)).Err()
}
