// Package stripe reads subscription state from the Stripe API. It only ever
// issues GET requests; Stripe stays the system of record.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fintutto/zugang/internal/billing/domain"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.stripe.com"

type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func New(apiKey, baseURL string, log *zap.Logger) *Provider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 12 * time.Second},
		log:     log.Named("billing.stripe"),
	}
}

type stripeProduct struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

type stripePrice struct {
	ID      string        `json:"id"`
	Product stripeProduct `json:"product"`
}

type stripeItem struct {
	ID    string      `json:"id"`
	Price stripePrice `json:"price"`
}

type stripeSubscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []stripeItem `json:"data"`
	} `json:"items"`
}

type subscriptionList struct {
	Data    []stripeSubscription `json:"data"`
	HasMore bool                 `json:"has_more"`
}

// ListSubscriptions fetches every non-ended subscription for the customer and
// keeps the ones whose product metadata targets appID. Canceled agreements
// are dropped; past-due ones are returned so the caller can degrade access.
func (p *Provider) ListSubscriptions(ctx context.Context, customerID, appID string) ([]domain.Subscription, error) {
	values := url.Values{}
	values.Set("customer", customerID)
	values.Set("status", "all")
	values.Set("limit", "100")
	values.Add("expand[]", "data.items.data.price.product")

	list, err := p.fetch(ctx, "/v1/subscriptions?"+values.Encode())
	if err != nil {
		return nil, err
	}

	appID = strings.ToLower(strings.TrimSpace(appID))
	out := make([]domain.Subscription, 0, len(list.Data))
	for _, raw := range list.Data {
		sub, ok := mapSubscription(raw)
		if !ok {
			continue
		}
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

func (p *Provider) fetch(ctx context.Context, path string) (*subscriptionList, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: missing api key", domain.ErrUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn("stripe request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		p.log.Warn("stripe returned error status", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", domain.ErrUnavailable, resp.StatusCode)
	}

	var list subscriptionList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return &list, nil
}

func mapSubscription(raw stripeSubscription) (domain.Subscription, bool) {
	if strings.TrimSpace(raw.ID) == "" || len(raw.Items.Data) == 0 {
		return domain.Subscription{}, false
	}
	product := raw.Items.Data[0].Price.Product
	return domain.Subscription{
		ID:         raw.ID,
		CustomerID: raw.Customer,
		Status:     domain.SubscriptionStatus(strings.TrimSpace(raw.Status)),
		Product: domain.Product{
			ID:       product.ID,
			Name:     product.Name,
			Metadata: product.Metadata,
		},
	}, true
}
