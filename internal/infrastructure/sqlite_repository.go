package infrastructure

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"adsimport/internal/domain"
	"adsimport/pkg/logger"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS campaigns (
	position        INTEGER NOT NULL,
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	type            TEXT NOT NULL,
	status          TEXT NOT NULL,
	budget          REAL NOT NULL DEFAULT 0,
	budget_type     TEXT NOT NULL,
	impressions     INTEGER NOT NULL DEFAULT 0,
	clicks          INTEGER NOT NULL DEFAULT 0,
	ctr             REAL NOT NULL DEFAULT 0,
	spend           REAL NOT NULL DEFAULT 0,
	conversions     REAL NOT NULL DEFAULT 0,
	cpc             REAL NOT NULL DEFAULT 0,
	conversion_rate REAL NOT NULL DEFAULT 0,
	cpa             REAL NOT NULL DEFAULT 0,
	strategy        TEXT NOT NULL,
	period          TEXT NOT NULL,
	currency_code   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_campaigns_position ON campaigns(position);
`

// SQLiteRepository keeps the campaign collection in a single SQLite file.
type SQLiteRepository struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSQLiteRepository opens the database at dsn and configures WAL mode.
func NewSQLiteRepository(dsn string, logger *logger.Logger) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]domain.Campaign, error) {
	query := "SELECT " + strings.Join(campaignColumns, ", ") + " FROM " + campaignsTable + " ORDER BY position"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query campaigns")
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan campaign")
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, eris.Wrap(rows.Err(), "sqlite: iterate campaigns")
}

func (r *SQLiteRepository) Replace(ctx context.Context, campaigns []domain.Campaign) error {
	assignIDs(campaigns)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+campaignsTable); err != nil {
		return eris.Wrap(err, "sqlite: clear campaigns")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(campaignColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+campaignsTable+" ("+strings.Join(campaignColumns, ", ")+") VALUES ("+placeholders+")")
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	for i, c := range campaigns {
		if _, err := stmt.ExecContext(ctx, campaignRow(i, c)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert campaign %s", c.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit tx")
	}

	r.logger.WithContext(ctx).WithField("count", len(campaigns)).Info("Replaced campaigns in SQLite")
	return nil
}
