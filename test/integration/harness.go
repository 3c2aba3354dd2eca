package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/latmedia/dealdesk/internal/config"
	"github.com/latmedia/dealdesk/internal/crm"
	"github.com/latmedia/dealdesk/internal/deal"
	"github.com/latmedia/dealdesk/internal/directory"
	"github.com/latmedia/dealdesk/internal/schema"
	"github.com/latmedia/dealdesk/internal/transport"
	"github.com/latmedia/dealdesk/model"
)

// harness runs the real router and services against a mock CRM, exercising
// the full request path from HTTP down to the backend adapter.
type harness struct {
	crm    *mockCRM
	cfg    *config.Config
	server *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mock := newMockCRM()

	cfg := config.Defaults()
	cfg.CRM.BaseURL = mock.URL()
	cfg.Objects.CampaignDeal = "campaign_deals"
	cfg.Objects.CommercialAgreement = "commercial_agreements"
	cfg.Objects.Advertiser = "advertisers"
	cfg.Objects.ProductCatalog = "product_catalogs"

	logger := zap.NewNop()
	client := crm.NewClient(cfg.CRM, logger, nil)
	reconciler := schema.NewReconciler(client, cfg.Objects.CampaignDeal, logger)
	deals := deal.NewService(client, reconciler, cfg.Objects, cfg.Options, logger, nil)
	dir := directory.NewService(client, cfg.Objects, cfg.Directory, logger)

	router := transport.NewRouter(transport.Dependencies{
		Config:    cfg,
		Logger:    logger,
		Deals:     deals,
		Directory: dir,
		Schema:    reconciler,
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		mock.Close()
	})

	return &harness{crm: mock, cfg: cfg, server: server}
}

// seedSchema provisions all campaign deal properties through the public
// reconcile endpoint, one section at a time.
func (h *harness) seedSchema(t *testing.T) {
	t.Helper()
	for _, section := range []string{"basic_info", "campaign_details", "line_items"} {
		status, _ := h.request(t, http.MethodPost, "/api/schema/reconcile", map[string]string{"section": section})
		if status != http.StatusOK {
			t.Fatalf("seeding schema for %s: status %d", section, status)
		}
	}
}

// apiResponse is the decoded operation envelope of one HTTP call.
type apiResponse struct {
	Status   string             `json:"status"`
	Message  string             `json:"message"`
	Data     json.RawMessage    `json:"data"`
	Fields   []model.FieldError `json:"fields"`
	Warnings []string           `json:"warnings"`
}

func (h *harness) request(t *testing.T, method, path string, body any) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded apiResponse
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decoding response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}

func decodeData(t *testing.T, data json.RawMessage, dst any) {
	t.Helper()
	if err := json.Unmarshal(data, dst); err != nil {
		t.Fatalf("decoding data payload %q: %v", data, err)
	}
}
