package config

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLoader implements TenantConfigLoader against the Billing
// database's tenant_configs table, querying its *pgxpool.Pool directly.
type PostgresLoader struct {
	pool *pgxpool.Pool
}

func NewPostgresLoader(pool *pgxpool.Pool) *PostgresLoader {
	return &PostgresLoader{pool: pool}
}

func (l *PostgresLoader) LoadTenantConfig(ctx context.Context, appID string) (TenantConfig, error) {
	const q = `
		SELECT app_id, processor_api_key, processor_account, webhook_secret, sandbox,
		       dunning_grace_days, dunning_max_attempts, dunning_retry_interval_hours, retention_days
		FROM tenant_configs
		WHERE app_id = $1`

	var cfg TenantConfig
	err := l.pool.QueryRow(ctx, q, appID).Scan(
		&cfg.AppID, &cfg.ProcessorAPIKey, &cfg.ProcessorAccount, &cfg.WebhookSecret, &cfg.Sandbox,
		&cfg.DunningGraceDays, &cfg.DunningMaxAttempts, &cfg.DunningRetryIntervalHours, &cfg.RetentionDays,
	)
	if err != nil {
		return TenantConfig{}, fmt.Errorf("load tenant config for %s: %w", appID, err)
	}
	return cfg, nil
}

// ListActiveAppIDs returns every tenant with a configured row, used by
// background jobs to iterate tenants without a hardcoded list.
func (l *PostgresLoader) ListActiveAppIDs(ctx context.Context) ([]string, error) {
	rows, err := l.pool.Query(ctx, `SELECT app_id FROM tenant_configs`)
	if err != nil {
		return nil, fmt.Errorf("list tenant app ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
