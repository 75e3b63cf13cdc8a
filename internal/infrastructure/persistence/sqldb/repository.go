package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmanzanog/stonk/internal/domain"
)

const holdingColumns = `portfolio_id, ticker, sort_order, num_shares, average_price, last_price,
	name, description, sector, industry, country, website, employees,
	market_cap, pe_ratio, dividend_yield, beta, fifty_two_week_high, fifty_two_week_low,
	previous_close, average_volume, last_updated`

const selectPortfolios = `
        SELECT
            p.id, p.name, p.created_at, p.last_updated,
            h.ticker, h.num_shares, h.average_price, h.last_price,
            h.name, h.description, h.sector, h.industry, h.country, h.website, h.employees,
            h.market_cap, h.pe_ratio, h.dividend_yield, h.beta, h.fifty_two_week_high, h.fifty_two_week_low,
            h.previous_close, h.average_volume, h.last_updated
        FROM portfolios p
        LEFT JOIN holdings h ON p.id = h.portfolio_id
    `

type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Migrate brings the schema up to date for the configured dialect.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.Dialect.Migrate(ctx, r.db.DB)
}

// Insert stores a new portfolio. A taken name yields domain.ErrDuplicatePortfolio.
func (r *Repository) Insert(ctx context.Context, p *domain.Portfolio) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var count int
		q := r.rebind("SELECT COUNT(*) FROM portfolios WHERE name = $1")
		if err := tx.QueryRowContext(ctx, q, p.Name).Scan(&count); err != nil {
			return fmt.Errorf("checking portfolio name: %w", err)
		}
		if count > 0 {
			return domain.ErrDuplicatePortfolio
		}
		if err := r.db.Dialect.UpsertPortfolio(ctx, tx, p); err != nil {
			slog.Error("Failed to insert portfolio", "portfolio", p.Name, "error", err)
			return fmt.Errorf("insert portfolio: %w", err)
		}
		return r.saveHoldings(ctx, tx, p)
	})
	if err != nil && r.db.Dialect.IsUniqueViolation(err) {
		return domain.ErrDuplicatePortfolio
	}
	return err
}

// Save updates an existing portfolio and replaces its stored holdings with the
// current set. A portfolio that is no longer stored yields
// domain.ErrPortfolioNotFound and nothing is written.
func (r *Repository) Save(ctx context.Context, p *domain.Portfolio) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := r.rebind("UPDATE portfolios SET name = $1, last_updated = $2 WHERE id = $3")
		res, err := tx.ExecContext(ctx, q, p.Name, p.LastUpdated(), p.ID)
		if err != nil {
			slog.Error("Failed to save portfolio", "portfolio", p.Name, "error", err)
			return fmt.Errorf("update portfolio: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update portfolio: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", domain.ErrPortfolioNotFound, p.Name)
		}
		return r.saveHoldings(ctx, tx, p)
	})
}

func (r *Repository) saveHoldings(ctx context.Context, tx *sql.Tx, p *domain.Portfolio) error {
	holdings := p.Holdings()
	current := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		current[h.Ticker()] = true
	}

	stored, err := r.storedTickers(ctx, tx, p.ID)
	if err != nil {
		return err
	}
	for _, ticker := range stored {
		if current[ticker] {
			continue
		}
		q := r.rebind("DELETE FROM holdings WHERE portfolio_id = $1 AND ticker = $2")
		if _, err := tx.ExecContext(ctx, q, p.ID, ticker); err != nil {
			return fmt.Errorf("delete holding %s: %w", ticker, err)
		}
	}

	for i, h := range holdings {
		row := HoldingRow{PortfolioID: p.ID, SortOrder: i, Holding: h.Snapshot()}
		if err := r.db.Dialect.UpsertHolding(ctx, tx, row); err != nil {
			slog.Error("Failed to save holding", "portfolio", p.Name, "ticker", h.Ticker(), "error", err)
			return fmt.Errorf("upsert holding: %w", err)
		}
	}
	return nil
}

func (r *Repository) storedTickers(ctx context.Context, tx *sql.Tx, portfolioID string) ([]string, error) {
	q := r.rebind("SELECT ticker FROM holdings WHERE portfolio_id = $1")
	rows, err := tx.QueryContext(ctx, q, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("querying holdings: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			slog.Error("Failed to close rows", "error", err)
		}
	}(rows)

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("scanning ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	return tickers, rows.Err()
}

func (r *Repository) FindByName(ctx context.Context, name string) (*domain.Portfolio, error) {
	name = strings.TrimSpace(name)
	query := r.rebind(selectPortfolios + `WHERE p.name = $1 ORDER BY h.sort_order`)

	portfolios, err := r.query(ctx, query, name)
	if err != nil {
		slog.Error("Failed to find portfolio", "name", name, "error", err)
		return nil, err
	}
	if len(portfolios) == 0 {
		slog.Debug("Portfolio not found", "name", name)
		return nil, fmt.Errorf("%w: %s", domain.ErrPortfolioNotFound, name)
	}
	return portfolios[0], nil
}

func (r *Repository) FindAll(ctx context.Context) ([]*domain.Portfolio, error) {
	return r.query(ctx, r.rebind(selectPortfolios+`ORDER BY p.name, h.sort_order`))
}

func (r *Repository) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var id string
		q := r.rebind("SELECT id FROM portfolios WHERE name = $1")
		if err := tx.QueryRowContext(ctx, q, name).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", domain.ErrPortfolioNotFound, name)
			}
			return fmt.Errorf("finding portfolio: %w", err)
		}

		// 1. Delete Holdings
		if _, err := tx.ExecContext(ctx, r.rebind("DELETE FROM holdings WHERE portfolio_id = $1"), id); err != nil {
			return fmt.Errorf("failed to delete holdings: %w", err)
		}

		// 2. Delete Portfolio
		if _, err := tx.ExecContext(ctx, r.rebind("DELETE FROM portfolios WHERE id = $1"), id); err != nil {
			return fmt.Errorf("failed to delete portfolio: %w", err)
		}

		return nil
	})
}

// query runs a selectPortfolios query and groups the joined rows, keeping row order.
func (r *Repository) query(ctx context.Context, query string, args ...any) ([]*domain.Portfolio, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying portfolios: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			slog.Error("Failed to close rows", "error", err)
		}
	}(rows)

	type group struct {
		id, name               string
		createdAt, lastUpdated time.Time
		holdings               []*domain.Holding
	}
	groups := make(map[string]*group)
	var ids []string

	for rows.Next() {
		var (
			pID, pName               string
			pCreated, pUpdated       time.Time
			ticker                   sql.NullString
			shares, avg, last        domain.NullDecimal
			name, desc, sector       sql.NullString
			industry, country, web   sql.NullString
			employees, avgVolume     sql.NullInt64
			mcap, pe, divYield, beta domain.NullDecimal
			high, low, prevClose     domain.NullDecimal
			hUpdated                 sql.NullTime
		)
		err := rows.Scan(
			&pID, &pName, &pCreated, &pUpdated,
			&ticker, &shares, &avg, &last,
			&name, &desc, &sector, &industry, &country, &web, &employees,
			&mcap, &pe, &divYield, &beta, &high, &low,
			&prevClose, &avgVolume, &hUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		g, exists := groups[pID]
		if !exists {
			g = &group{id: pID, name: pName, createdAt: pCreated, lastUpdated: pUpdated}
			groups[pID] = g
			ids = append(ids, pID)
		}

		if !ticker.Valid {
			continue
		}
		g.holdings = append(g.holdings, domain.RestoreHolding(domain.HoldingSnapshot{
			Ticker:       ticker.String,
			NumShares:    shares.Decimal,
			AveragePrice: avg.Decimal,
			LastPrice:    last.Decimal,
			Details: domain.HoldingDetails{
				Name:             stringPtr(name),
				Description:      stringPtr(desc),
				Sector:           stringPtr(sector),
				Industry:         stringPtr(industry),
				Country:          stringPtr(country),
				Website:          stringPtr(web),
				Employees:        int64Ptr(employees),
				MarketCap:        mcap.Ptr(),
				PERatio:          pe.Ptr(),
				DividendYield:    divYield.Ptr(),
				Beta:             beta.Ptr(),
				FiftyTwoWeekHigh: high.Ptr(),
				FiftyTwoWeekLow:  low.Ptr(),
				PreviousClose:    prevClose.Ptr(),
				AverageVolume:    int64Ptr(avgVolume),
			},
			LastUpdated: hUpdated.Time,
		}))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	portfolios := make([]*domain.Portfolio, 0, len(ids))
	for _, id := range ids {
		g := groups[id]
		portfolios = append(portfolios, domain.RestorePortfolio(g.id, g.name, g.createdAt, g.lastUpdated, g.holdings))
	}
	return portfolios, nil
}

func (r *Repository) rebind(query string) string {
	if r.db.Dialect.Name() == "oracle" {
		// "$1" -> ":1" also rewrites "$10".."$19" correctly, so single digits suffice.
		for i := 1; i <= 9; i++ {
			query = strings.ReplaceAll(query, fmt.Sprintf("$%d", i), fmt.Sprintf(":%d", i))
		}
	}
	return query
}

var _ domain.PortfolioRepository = (*Repository)(nil)
