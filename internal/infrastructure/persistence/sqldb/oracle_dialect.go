package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jmanzanog/stonk/internal/domain"
	"github.com/jmanzanog/stonk/internal/infrastructure/persistence/sqldb/migrations"
)

// oracleMaxVarchar is the VARCHAR2 limit used for free-text columns.
const oracleMaxVarchar = 4000

type OracleDialect struct{}

func (d *OracleDialect) Name() string { return "oracle" }

func (d *OracleDialect) Migrate(ctx context.Context, db *sql.DB) error {
	// goose has no go-ora dialect, so the init script is applied statement by statement.
	content, err := migrations.OracleFS.ReadFile("oracle/20240101000000_init.sql")
	if err != nil {
		return fmt.Errorf("reading migration file: %w", err)
	}

	// Split statements by '/' which is standard in Oracle scripts
	statements := strings.Split(string(content), "/")

	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		if _, err := db.ExecContext(ctx, stmt); err != nil {
			// ORA-00955: name is already used by an existing object
			if !strings.Contains(err.Error(), "ORA-00955") {
				return fmt.Errorf("migrating: %s: %w", stmt, err)
			}
		}
	}
	return nil
}

func (d *OracleDialect) UpsertPortfolio(ctx context.Context, tx *sql.Tx, p *domain.Portfolio) error {
	query := `MERGE INTO portfolios p
             USING (SELECT :1 as id_val FROM dual) s
             ON (p.id = s.id_val)
             WHEN MATCHED THEN
               UPDATE SET name = :2, last_updated = :3
             WHEN NOT MATCHED THEN
               INSERT (id, name, last_updated, created_at)
               VALUES (:4, :5, :6, :7)`

	lastUpdated := p.LastUpdated()
	_, err := tx.ExecContext(ctx, query,
		p.ID,        // 1 (s.id_val)
		p.Name,      // 2 (UPDATE)
		lastUpdated, // 3 (UPDATE)
		p.ID,        // 4 (INSERT)
		p.Name,      // 5 (INSERT)
		lastUpdated, // 6 (INSERT)
		p.CreatedAt, // 7 (INSERT)
	)
	return err
}

// UpsertHolding binds every column once in the USING row and reads it back
// from there in both branches.
func (d *OracleDialect) UpsertHolding(ctx context.Context, tx *sql.Tx, row HoldingRow) error {
	query := `MERGE INTO holdings h
             USING (SELECT :1 AS portfolio_id, :2 AS ticker, :3 AS sort_order,
                           :4 AS num_shares, :5 AS average_price, :6 AS last_price,
                           :7 AS name, :8 AS description, :9 AS sector, :10 AS industry,
                           :11 AS country, :12 AS website, :13 AS employees,
                           :14 AS market_cap, :15 AS pe_ratio, :16 AS dividend_yield, :17 AS beta,
                           :18 AS fifty_two_week_high, :19 AS fifty_two_week_low,
                           :20 AS previous_close, :21 AS average_volume, :22 AS last_updated
                    FROM dual) s
             ON (h.portfolio_id = s.portfolio_id AND h.ticker = s.ticker)
             WHEN MATCHED THEN
               UPDATE SET
                 h.sort_order = s.sort_order,
                 h.num_shares = s.num_shares,
                 h.average_price = s.average_price,
                 h.last_price = s.last_price,
                 h.name = s.name,
                 h.description = s.description,
                 h.sector = s.sector,
                 h.industry = s.industry,
                 h.country = s.country,
                 h.website = s.website,
                 h.employees = s.employees,
                 h.market_cap = s.market_cap,
                 h.pe_ratio = s.pe_ratio,
                 h.dividend_yield = s.dividend_yield,
                 h.beta = s.beta,
                 h.fifty_two_week_high = s.fifty_two_week_high,
                 h.fifty_two_week_low = s.fifty_two_week_low,
                 h.previous_close = s.previous_close,
                 h.average_volume = s.average_volume,
                 h.last_updated = s.last_updated
             WHEN NOT MATCHED THEN
               INSERT (` + holdingColumns + `)
               VALUES (s.portfolio_id, s.ticker, s.sort_order, s.num_shares, s.average_price, s.last_price,
                       s.name, s.description, s.sector, s.industry, s.country, s.website, s.employees,
                       s.market_cap, s.pe_ratio, s.dividend_yield, s.beta, s.fifty_two_week_high,
                       s.fifty_two_week_low, s.previous_close, s.average_volume, s.last_updated)`

	args := row.args()
	// description is column 8
	if desc, ok := args[7].(sql.NullString); ok && len(desc.String) > oracleMaxVarchar {
		desc.String = truncateUTF8(desc.String, oracleMaxVarchar)
		args[7] = desc
	}

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// IsUniqueViolation matches ORA-00001 (unique constraint violated).
func (d *OracleDialect) IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "ORA-00001")
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
