package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"

	"github.com/jmanzanog/stonk/internal/domain"
	"github.com/jmanzanog/stonk/internal/infrastructure/persistence/sqldb/migrations"
)

const pgUniqueViolation = "23505"

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.PostgresFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "postgres"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

func (d *PostgresDialect) UpsertPortfolio(ctx context.Context, tx *sql.Tx, p *domain.Portfolio) error {
	query := `
		INSERT INTO portfolios (id, name, last_updated, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			last_updated = EXCLUDED.last_updated
	`
	_, err := tx.ExecContext(ctx, query, p.ID, p.Name, p.LastUpdated(), p.CreatedAt)
	return err
}

func (d *PostgresDialect) UpsertHolding(ctx context.Context, tx *sql.Tx, row HoldingRow) error {
	query := `
		INSERT INTO holdings (` + holdingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (portfolio_id, ticker) DO UPDATE SET
			sort_order = EXCLUDED.sort_order,
			num_shares = EXCLUDED.num_shares,
			average_price = EXCLUDED.average_price,
			last_price = EXCLUDED.last_price,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry,
			country = EXCLUDED.country,
			website = EXCLUDED.website,
			employees = EXCLUDED.employees,
			market_cap = EXCLUDED.market_cap,
			pe_ratio = EXCLUDED.pe_ratio,
			dividend_yield = EXCLUDED.dividend_yield,
			beta = EXCLUDED.beta,
			fifty_two_week_high = EXCLUDED.fifty_two_week_high,
			fifty_two_week_low = EXCLUDED.fifty_two_week_low,
			previous_close = EXCLUDED.previous_close,
			average_volume = EXCLUDED.average_volume,
			last_updated = EXCLUDED.last_updated
	`
	_, err := tx.ExecContext(ctx, query, row.args()...)
	return err
}

func (d *PostgresDialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
