package config

import (
	"context"
	"sync"
	"time"
)

// TenantConfig is the per-tenant configuration: processor credentials for
// the gateway, the webhook signing secret for ingress, and dunning
// grace-period policy.
type TenantConfig struct {
	AppID                     string
	ProcessorAPIKey           string
	ProcessorAccount          string
	WebhookSecret             string
	Sandbox                   bool
	DunningGraceDays          int
	DunningMaxAttempts        int
	DunningRetryIntervalHours int
	RetentionDays             int
}

// TenantConfigLoader fetches the authoritative configuration for a tenant,
// typically backed by the Billing Repository's tenant/config table.
type TenantConfigLoader interface {
	LoadTenantConfig(ctx context.Context, appID string) (TenantConfig, error)
}

// TenantConfigCache is a read-mostly cache with explicit refresh; nothing
// mutates an entry across requests.
type TenantConfigCache struct {
	loader TenantConfigLoader
	mu     sync.RWMutex
	byApp  map[string]TenantConfig
	ttl    time.Duration
	stamp  map[string]time.Time
}

func NewTenantConfigCache(loader TenantConfigLoader, ttl time.Duration) *TenantConfigCache {
	return &TenantConfigCache{
		loader: loader,
		byApp:  make(map[string]TenantConfig),
		stamp:  make(map[string]time.Time),
		ttl:    ttl,
	}
}

// Get returns the cached config for appID, loading (and caching) it on
// first use or after TTL expiry.
func (c *TenantConfigCache) Get(ctx context.Context, appID string) (TenantConfig, error) {
	c.mu.RLock()
	cfg, ok := c.byApp[appID]
	stamp := c.stamp[appID]
	c.mu.RUnlock()

	if ok && time.Since(stamp) < c.ttl {
		return cfg, nil
	}
	return c.Refresh(ctx, appID)
}

// Refresh forces a reload of appID's configuration, bypassing TTL.
func (c *TenantConfigCache) Refresh(ctx context.Context, appID string) (TenantConfig, error) {
	cfg, err := c.loader.LoadTenantConfig(ctx, appID)
	if err != nil {
		return TenantConfig{}, err
	}
	c.mu.Lock()
	c.byApp[appID] = cfg
	c.stamp[appID] = time.Now()
	c.mu.Unlock()
	return cfg, nil
}

// Invalidate drops the cached entry for appID, forcing the next Get to
// reload.
func (c *TenantConfigCache) Invalidate(appID string) {
	c.mu.Lock()
	delete(c.byApp, appID)
	delete(c.stamp, appID)
	c.mu.Unlock()
}
