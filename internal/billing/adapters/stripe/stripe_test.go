package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fintutto/zugang/internal/billing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func subscriptionJSON(id, customer, status, tier, app string) map[string]any {
	return map[string]any{
		"id":       id,
		"customer": customer,
		"status":   status,
		"items": map[string]any{
			"data": []any{
				map[string]any{
					"id": "si_" + id,
					"price": map[string]any{
						"id": "price_" + id,
						"product": map[string]any{
							"id":       "prod_" + id,
							"name":     tier,
							"metadata": map[string]string{"tier": tier, "app": app},
						},
					},
				},
			},
		},
	}
}

func newStubServer(t *testing.T, subs ...map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/subscriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "all", r.URL.Query().Get("status"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": subs, "has_more": false})
	}))
}

func TestListSubscriptionsMapsProductMetadata(t *testing.T) {
	srv := newStubServer(t,
		subscriptionJSON("sub_1", "cus_1", "active", "pro", "mieterapp"),
	)
	defer srv.Close()

	p := New("sk_test_123", srv.URL, zap.NewNop())
	subs, err := p.ListSubscriptions(context.Background(), "cus_1", "mieterapp")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	assert.Equal(t, "sub_1", subs[0].ID)
	assert.Equal(t, "cus_1", subs[0].CustomerID)
	assert.Equal(t, domain.StatusActive, subs[0].Status)
	assert.Equal(t, "pro", subs[0].Product.Tier())
	assert.Equal(t, "mieterapp", subs[0].Product.App())
}

func TestListSubscriptionsDropsCanceled(t *testing.T) {
	srv := newStubServer(t,
		subscriptionJSON("sub_old", "cus_1", "canceled", "pro", "mieterapp"),
		subscriptionJSON("sub_late", "cus_1", "past_due", "pro", "mieterapp"),
	)
	defer srv.Close()

	p := New("sk_test_123", srv.URL, zap.NewNop())
	subs, err := p.ListSubscriptions(context.Background(), "cus_1", "mieterapp")
	require.NoError(t, err)

	// past_due survives so the caller can degrade instead of deny.
	require.Len(t, subs, 1)
	assert.Equal(t, "sub_late", subs[0].ID)
	assert.Equal(t, domain.StatusPastDue, subs[0].Status)
}

func TestListSubscriptionsFiltersByApp(t *testing.T) {
	srv := newStubServer(t,
		subscriptionJSON("sub_m", "cus_1", "active", "starter", "mieterapp"),
		subscriptionJSON("sub_v", "cus_1", "active", "pro", "vermietify"),
	)
	defer srv.Close()

	p := New("sk_test_123", srv.URL, zap.NewNop())
	subs, err := p.ListSubscriptions(context.Background(), "cus_1", "vermietify")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "sub_v", subs[0].ID)
}

func TestListSubscriptionsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"internal"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New("sk_test_123", srv.URL, zap.NewNop())
	_, err := p.ListSubscriptions(context.Background(), "cus_1", "mieterapp")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestListSubscriptionsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	p := New("sk_test_123", srv.URL, zap.NewNop())
	_, err := p.ListSubscriptions(context.Background(), "cus_1", "mieterapp")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestListSubscriptionsMissingAPIKey(t *testing.T) {
	p := New("", "http://localhost:0", zap.NewNop())
	_, err := p.ListSubscriptions(context.Background(), "cus_1", "mieterapp")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
