package crm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/latmedia/dealdesk/internal/config"
	"github.com/latmedia/dealdesk/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.CRMConfig{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}
	return NewClient(cfg, zap.NewNop(), nil), srv
}

func TestGetByID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v3/objects/deals/42", r.URL.Path)
		assert.Equal(t, "campaign_name,total_budget", r.URL.Query().Get("properties"))
		w.Write([]byte(`{"id":"42","properties":{"campaign_name":"Spring Push","total_budget":"1500"}}`))
	}))

	obj, err := client.GetByID(context.Background(), "deals", "42", []string{"campaign_name", "total_budget"})
	require.NoError(t, err)
	assert.Equal(t, "42", obj.ID)
	assert.Equal(t, "Spring Push", obj.Property("campaign_name"))
	assert.Equal(t, "1500", obj.Property("total_budget"))
	assert.Equal(t, "", obj.Property("missing"))
}

func TestGetByID_notFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"deal 42 not found"}`))
	}))

	_, err := client.GetByID(context.Background(), "deals", "42", nil)
	require.Error(t, err)

	var envelope *model.ErrorEnvelope
	require.ErrorAs(t, err, &envelope)
	assert.Equal(t, model.ErrNotFound, envelope.Code)
	assert.Equal(t, "deal 42 not found", envelope.Message)
}

func TestCreateProperty_conflict(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"property already exists"}`))
	}))

	err := client.CreateProperty(context.Background(), "deals", Property{Name: "total_budget"})
	require.Error(t, err)
	assert.True(t, model.IsConflict(err))
}

func TestDo_serverError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.GetByID(context.Background(), "deals", "1", nil)
	require.Error(t, err)

	var envelope *model.ErrorEnvelope
	require.ErrorAs(t, err, &envelope)
	assert.Equal(t, model.ErrBackendUnavailable, envelope.Code)
}

func TestDo_badRequestKeepsBackendMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid property name"}}`))
	}))

	_, err := client.GetByID(context.Background(), "deals", "1", nil)
	require.Error(t, err)

	var envelope *model.ErrorEnvelope
	require.ErrorAs(t, err, &envelope)
	assert.Equal(t, model.ErrBadRequest, envelope.Code)
	assert.Equal(t, "invalid property name", envelope.Message)
}

func TestDo_timeout(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	client.http.Timeout = 50 * time.Millisecond

	_, err := client.GetByID(context.Background(), "deals", "1", nil)
	require.Error(t, err)

	var envelope *model.ErrorEnvelope
	require.ErrorAs(t, err, &envelope)
	assert.Equal(t, model.ErrBackendTimeout, envelope.Code)
}

func TestDo_sendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	t.Setenv("DEALDESK_CRM_TOKEN", "secret-token")
	cfg := config.CRMConfig{
		BaseURL:  srv.URL,
		TokenEnv: "DEALDESK_CRM_TOKEN",
		Timeout:  time.Second,
	}
	client := NewClient(cfg, zap.NewNop(), nil)

	_, err := client.GetByID(context.Background(), "deals", "1", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestDo_circuitTripsAfterConsecutiveFailures(t *testing.T) {
	var hits int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	client.breaker = NewCircuitBreaker(3, 2, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := client.GetByID(context.Background(), "deals", "1", nil)
		require.Error(t, err)
	}
	assert.Equal(t, BreakerOpen, client.breaker.State())

	// The open breaker rejects without touching the backend.
	_, err := client.GetByID(context.Background(), "deals", "1", nil)
	require.Error(t, err)
	assert.Equal(t, 3, hits)

	var envelope *model.ErrorEnvelope
	require.ErrorAs(t, err, &envelope)
	assert.Equal(t, model.ErrBackendUnavailable, envelope.Code)
}

func TestSearch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crm/v3/objects/companies/search", r.URL.Path)
		w.Write([]byte(`{"total":2,"results":[
			{"id":"1","properties":{"name":"Acme"}},
			{"id":"2","properties":{"name":"Globex"}}
		]}`))
	}))

	res, err := client.Search(context.Background(), "companies", SearchRequest{
		Filters:    []Filter{{PropertyName: "name", Operator: "CONTAINS_TOKEN", Value: "a"}},
		Properties: []string{"name"},
		Limit:      10,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Objects, 2)
	assert.Equal(t, "Acme", res.Objects[0].Property("name"))
	assert.Equal(t, "2", res.Objects[1].ID)
}

func TestParseSearchResult_shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"results wrapper", `{"results":[{"id":"7","properties":{"name":"Acme"}}]}`},
		{"data wrapper", `{"data":[{"id":"7","properties":{"name":"Acme"}}]}`},
		{"bare array", `[{"id":"7","properties":{"name":"Acme"}}]`},
		{"flat properties", `{"results":[{"objectId":"7","name":"Acme"}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := parseSearchResult([]byte(tc.body))
			require.Len(t, res.Objects, 1)
			assert.Equal(t, "7", res.Objects[0].ID)
			assert.Equal(t, "Acme", res.Objects[0].Property("name"))
			assert.Equal(t, 1, res.Total)
		})
	}
}

func TestParseObject_skipsNestedAndNull(t *testing.T) {
	res := parseSearchResult([]byte(`{"results":[
		{"id":"3","properties":{"name":"Acme","owner":{"id":"9"},"tax_id":null}}
	]}`))
	require.Len(t, res.Objects, 1)
	obj := res.Objects[0]
	assert.Equal(t, "Acme", obj.Property("name"))
	assert.Equal(t, "", obj.Property("owner"))
	assert.Equal(t, "", obj.Property("tax_id"))
}

func TestGetAssociations(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v4/objects/deals/42/associations/companies", r.URL.Path)
		w.Write([]byte(`{"results":[
			{"toObjectId":"100","associationTypes":[{"label":"Advertiser"}]},
			{"to":{"id":"200"},"type":"Agency"}
		]}`))
	}))

	assocs, err := client.GetAssociations(context.Background(), "deals", "42", "companies")
	require.NoError(t, err)
	require.Len(t, assocs, 2)
	assert.Equal(t, Association{ToObjectID: "100", Type: "Advertiser"}, assocs[0])
	assert.Equal(t, Association{ToObjectID: "200", Type: "Agency"}, assocs[1])
}

func TestListProperties(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v3/properties/deals", r.URL.Path)
		w.Write([]byte(`{"results":[
			{"name":"total_budget","label":"Total Budget","type":"number","fieldType":"number","groupName":"campaign"},
			{"name":"line_items_data","label":"Line Items Data","type":"string","fieldType":"textarea","groupName":"campaign"}
		]}`))
	}))

	props, err := client.ListProperties(context.Background(), "deals")
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, "total_budget", props[0].Name)
	assert.Equal(t, "number", props[0].Type)
	assert.Equal(t, "campaign", props[1].GroupName)
}

func TestCircuitBreaker_halfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(2, 2, 10*time.Millisecond)

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, BreakerOpen, cb.State())
	require.Error(t, cb.Allow())

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, cb.Allow())
	assert.Equal(t, BreakerHalfOpen, cb.State())

	cb.RecordSuccess()
	cb.RecordSuccess()
	assert.Equal(t, BreakerClosed, cb.State())
}

func TestCircuitBreaker_halfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 5*time.Millisecond)

	cb.RecordFailure()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, BreakerOpen, cb.State())
	require.Error(t, cb.Allow())
}
