package profile

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedProvider memoizes profile lookups so a multi-turn conversation does
// not hit the user service on every message. Only successful lookups are
// cached; errors always retry.
type CachedProvider struct {
	inner Provider
	cache *gocache.Cache
}

var _ Provider = &CachedProvider{}

func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProvider{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachedProvider) GetProfile(ctx context.Context, userID string) (string, error) {
	if cached, found := c.cache.Get(userID); found {
		return cached.(string), nil
	}

	profile, err := c.inner.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}

	c.cache.SetDefault(userID, profile)
	return profile, nil
}
