package sqldb

import (
	"context"
	"database/sql"

	"github.com/jmanzanog/stonk/internal/domain"
)

type Dialect interface {
	Name() string
	Migrate(ctx context.Context, db *sql.DB) error
	UpsertPortfolio(ctx context.Context, tx *sql.Tx, p *domain.Portfolio) error
	UpsertHolding(ctx context.Context, tx *sql.Tx, row HoldingRow) error
	IsUniqueViolation(err error) bool
}

// HoldingRow is one holdings table row.
type HoldingRow struct {
	PortfolioID string
	SortOrder   int
	Holding     domain.HoldingSnapshot
}

// args returns the column values in holdingColumns order.
func (r HoldingRow) args() []any {
	s := r.Holding
	d := s.Details
	return []any{
		r.PortfolioID,
		s.Ticker,
		r.SortOrder,
		s.NumShares,
		s.AveragePrice,
		s.LastPrice,
		nullString(d.Name),
		nullString(d.Description),
		nullString(d.Sector),
		nullString(d.Industry),
		nullString(d.Country),
		nullString(d.Website),
		nullInt64(d.Employees),
		domain.NewNullDecimal(d.MarketCap),
		domain.NewNullDecimal(d.PERatio),
		domain.NewNullDecimal(d.DividendYield),
		domain.NewNullDecimal(d.Beta),
		domain.NewNullDecimal(d.FiftyTwoWeekHigh),
		domain.NewNullDecimal(d.FiftyTwoWeekLow),
		domain.NewNullDecimal(d.PreviousClose),
		nullInt64(d.AverageVolume),
		s.LastUpdated,
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
