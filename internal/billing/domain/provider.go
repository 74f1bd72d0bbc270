// Package domain defines the read-only port to the billing provider. The
// subscription lifecycle is fully owned by the provider; this service only
// reads it.
package domain

import (
	"context"
	"errors"
	"strings"
)

type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusTrialing SubscriptionStatus = "trialing"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusUnpaid   SubscriptionStatus = "unpaid"
)

// Product is the billing product attached to a subscription. The tier name
// and target application live in provider-side metadata.
type Product struct {
	ID       string
	Name     string
	Metadata map[string]string
}

// Tier returns the product's tier metadata, "" when absent.
func (p Product) Tier() string {
	return strings.TrimSpace(p.Metadata["tier"])
}

// App returns the product's application metadata, "" when absent.
func (p Product) App() string {
	return strings.ToLower(strings.TrimSpace(p.Metadata["app"]))
}

// Subscription is one billing agreement for a customer.
type Subscription struct {
	ID         string
	CustomerID string
	Status     SubscriptionStatus
	Product    Product
}

// InGoodStanding reports whether the subscription still pays for its tier.
func (s Subscription) InGoodStanding() bool {
	return s.Status == StatusActive || s.Status == StatusTrialing
}

// Provider lists a customer's current subscriptions, filtered to the
// product line of the given application. Order is provider-defined; callers
// take the first match.
type Provider interface {
	ListSubscriptions(ctx context.Context, customerID, appID string) ([]Subscription, error)
}

// ErrUnavailable wraps any transport or provider-side failure. Callers must
// treat it as "could not check", never as a grant or an explicit denial.
var ErrUnavailable = errors.New("billing_provider_unavailable")
