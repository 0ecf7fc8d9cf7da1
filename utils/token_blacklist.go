package utils

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// revoked holds token ids when Redis is unavailable; entries expire with the token.
var revoked = newRevokedSet()

func newRevokedSet() *ttlcache.Cache[string, struct{}] {
	c := ttlcache.New[string, struct{}](ttlcache.WithDisableTouchOnHit[string, struct{}]())
	go c.Start()
	return c
}

// BlacklistToken revokes the token with the given jti until it would have expired.
func BlacklistToken(tokenID string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if tokenID == "" || ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, "jwt:blacklist:"+tokenID, "1", ttl).Err(); err == nil {
			return
		}
	}
	revoked.Set(tokenID, struct{}{}, ttl)
}

// IsTokenBlacklisted checks if the token with the given jti was revoked before natural expiration.
func IsTokenBlacklisted(tokenID string) bool {
	if tokenID == "" {
		return false
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := rc.Exists(ctx, "jwt:blacklist:"+tokenID).Result(); err == nil && n > 0 {
			return true
		}
	}
	return revoked.Get(tokenID) != nil
}
