package domain

import "context"

// PortfolioRepository defines the interface for portfolio persistence.
// Portfolios are identified by name; FindAll returns them ordered by name.
// All methods accept context.Context to enable proper timeout handling and
// cancellation propagation.
type PortfolioRepository interface {
	// Insert stores a new portfolio and fails with ErrDuplicatePortfolio when
	// the name is taken.
	Insert(ctx context.Context, portfolio *Portfolio) error
	// Save writes the portfolio and its current holdings. It fails with
	// ErrPortfolioNotFound once the portfolio has been deleted.
	Save(ctx context.Context, portfolio *Portfolio) error
	FindByName(ctx context.Context, name string) (*Portfolio, error)
	FindAll(ctx context.Context) ([]*Portfolio, error)
	Delete(ctx context.Context, name string) error
}
