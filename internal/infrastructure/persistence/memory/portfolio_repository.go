package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jmanzanog/stonk/internal/domain"
)

// PortfolioRepository keeps live portfolios in memory keyed by name. Callers
// share the stored pointers, so mutations are visible without a Save.
type PortfolioRepository struct {
	mu         sync.RWMutex
	portfolios map[string]*domain.Portfolio
}

func NewPortfolioRepository() *PortfolioRepository {
	return &PortfolioRepository{
		portfolios: make(map[string]*domain.Portfolio),
	}
}

func (r *PortfolioRepository) Insert(_ context.Context, portfolio *domain.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.portfolios[portfolio.Name]; exists {
		return domain.ErrDuplicatePortfolio
	}
	r.portfolios[portfolio.Name] = portfolio
	return nil
}

// Save fails with ErrPortfolioNotFound once the portfolio has been deleted,
// including when a new portfolio has since taken its name.
func (r *PortfolioRepository) Save(_ context.Context, portfolio *domain.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.portfolios[portfolio.Name]
	if !exists || stored.ID != portfolio.ID {
		return domain.ErrPortfolioNotFound
	}
	r.portfolios[portfolio.Name] = portfolio
	return nil
}

func (r *PortfolioRepository) FindByName(_ context.Context, name string) (*domain.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	portfolio, exists := r.portfolios[strings.TrimSpace(name)]
	if !exists {
		return nil, domain.ErrPortfolioNotFound
	}

	return portfolio, nil
}

func (r *PortfolioRepository) FindAll(_ context.Context) ([]*domain.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	portfolios := make([]*domain.Portfolio, 0, len(r.portfolios))
	for _, p := range r.portfolios {
		portfolios = append(portfolios, p)
	}
	sort.Slice(portfolios, func(i, j int) bool {
		return portfolios[i].Name < portfolios[j].Name
	})

	return portfolios, nil
}

func (r *PortfolioRepository) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.TrimSpace(name)
	if _, exists := r.portfolios[name]; !exists {
		return domain.ErrPortfolioNotFound
	}

	delete(r.portfolios, name)
	return nil
}

var _ domain.PortfolioRepository = (*PortfolioRepository)(nil)
