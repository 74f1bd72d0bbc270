// Package fake is an in-memory billing provider for local development and
// tests. Subscriptions are keyed by customer ID.
package fake

import (
	"context"
	"strings"
	"sync"

	"github.com/fintutto/zugang/internal/billing/domain"
)

type Provider struct {
	mu   sync.RWMutex
	subs map[string][]domain.Subscription
	err  error
}

func New() *Provider {
	return &Provider{subs: map[string][]domain.Subscription{}}
}

// Set replaces the subscriptions for a customer.
func (p *Provider) Set(customerID string, subs ...domain.Subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[customerID] = subs
}

// Fail makes every subsequent call return err. Pass nil to recover.
func (p *Provider) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *Provider) ListSubscriptions(ctx context.Context, customerID, appID string) ([]domain.Subscription, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.err != nil {
		return nil, p.err
	}

	appID = strings.ToLower(strings.TrimSpace(appID))
	out := make([]domain.Subscription, 0)
	for _, sub := range p.subs[customerID] {
		if sub.Status == domain.StatusCanceled {
			continue
		}
		if appID != "" && sub.Product.App() != "" && sub.Product.App() != appID {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}
