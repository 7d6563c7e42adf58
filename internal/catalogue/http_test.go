package catalogue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"marketplace-gateway/internal/pricing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publishedItems = `{
  "success": true,
  "result": [
    {
      "id": "asset-1",
      "title": "Land cover map",
      "pricingModels": [
        {"key": "9b2f3c4e-0000-4000-8000-000000000001", "type": "FIXED", "totalPriceExcludingTax": 10.005, "includesUpdates": true, "yearsOfUpdates": 2},
        {"key": "9b2f3c4e-0000-4000-8000-000000000002", "type": "subscription", "duration": 12, "monthlyPrice": "5"}
      ]
    }
  ]
}`

func TestHTTPClient_FindAllByID(t *testing.T) {
	var gotQuery []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/published/items", r.URL.Path)
		gotQuery = r.URL.Query()["id"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(publishedItems))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL+"/", HTTPOptions{}, nil)
	items, err := client.FindAllByID(context.Background(), []string{"asset-1", "asset-1", "", "asset-9"})
	require.NoError(t, err)

	assert.Equal(t, []string{"asset-1", "asset-9"}, gotQuery)
	require.Len(t, items, 1)
	assert.Equal(t, "Land cover map", items[0].Title)
	require.Len(t, items[0].PricingModels, 2)

	fixed := items[0].PricingModels[0]
	assert.Equal(t, pricing.KindFixed, fixed.Type)
	assert.Equal(t, uuid.MustParse("9b2f3c4e-0000-4000-8000-000000000001"), fixed.Key)
	assert.Equal(t, "10.005", fixed.TotalPriceExcludingTax.String())
	assert.Equal(t, 2, fixed.YearsOfUpdates)

	sub := items[0].PricingModels[1]
	assert.Equal(t, pricing.KindSubscription, sub.Type)
	assert.Equal(t, "5", sub.MonthlyPrice.String())
}

func TestHTTPClient_EmptyIDsSkipCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	items, err := NewHTTPClient(srv.URL, HTTPOptions{}, nil).FindAllByID(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, calls.Load())
}

func TestHTTPClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "unsuccessful envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"success":false,"messages":[{"description":"index offline"}]}`))
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"success":`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL, HTTPOptions{}, nil).FindAllByID(context.Background(), []string{"asset-1"})
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestHTTPClient_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, HTTPOptions{FailureThreshold: 2, OpenTimeout: time.Minute}, nil)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.FindAllByID(ctx, []string{"asset-1"})
		require.ErrorIs(t, err, ErrUnavailable)
	}

	_, err := client.FindAllByID(ctx, []string{"asset-1"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}
