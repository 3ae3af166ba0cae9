package infrastructure

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"adsimport/internal/domain"
	"adsimport/pkg/logger"
)

const campaignsTable = "campaigns"

// PgxPool is the part of *pgxpool.Pool the repository uses.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS campaigns (
	position        INTEGER NOT NULL,
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	type            TEXT NOT NULL,
	status          TEXT NOT NULL,
	budget          DOUBLE PRECISION NOT NULL DEFAULT 0,
	budget_type     TEXT NOT NULL,
	impressions     BIGINT NOT NULL DEFAULT 0,
	clicks          BIGINT NOT NULL DEFAULT 0,
	ctr             DOUBLE PRECISION NOT NULL DEFAULT 0,
	spend           DOUBLE PRECISION NOT NULL DEFAULT 0,
	conversions     DOUBLE PRECISION NOT NULL DEFAULT 0,
	cpc             DOUBLE PRECISION NOT NULL DEFAULT 0,
	conversion_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
	cpa             DOUBLE PRECISION NOT NULL DEFAULT 0,
	strategy        TEXT NOT NULL,
	period          TEXT NOT NULL,
	currency_code   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_campaigns_position ON campaigns(position);
`

// PostgresRepository stores the campaign collection in PostgreSQL. Replace
// rewrites the table inside one transaction using COPY.
type PostgresRepository struct {
	pool   PgxPool
	logger *logger.Logger
}

func NewPostgresRepository(pool PgxPool, logger *logger.Logger) *PostgresRepository {
	return &PostgresRepository{pool: pool, logger: logger}
}

// OpenPostgresPool connects and pings a pgx pool.
func OpenPostgresPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return pool, nil
}

func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]domain.Campaign, error) {
	query := "SELECT " + strings.Join(campaignColumns, ", ") + " FROM " + campaignsTable + " ORDER BY position"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query campaigns")
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan campaign")
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate campaigns")
	}
	return campaigns, nil
}

func (r *PostgresRepository) Replace(ctx context.Context, campaigns []domain.Campaign) error {
	assignIDs(campaigns)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "DELETE FROM "+campaignsTable); err != nil {
		return eris.Wrap(err, "postgres: clear campaigns")
	}

	if len(campaigns) > 0 {
		rows := make([][]any, len(campaigns))
		for i, c := range campaigns {
			rows[i] = campaignRow(i, c)
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{campaignsTable}, campaignColumns, pgx.CopyFromRows(rows)); err != nil {
			return eris.Wrap(err, "postgres: copy campaigns")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit tx")
	}

	r.logger.WithContext(ctx).WithField("count", len(campaigns)).Info("Replaced campaigns in PostgreSQL")
	return nil
}
