package transport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/latmedia/dealdesk/internal/config"
	"github.com/latmedia/dealdesk/internal/crm"
	"github.com/latmedia/dealdesk/internal/observability"
	"github.com/latmedia/dealdesk/internal/schema"
	"github.com/latmedia/dealdesk/model"
)

// DealService is the deal section operations surface.
type DealService interface {
	LoadBasicInfo(ctx context.Context, dealID string) model.OperationResult
	SaveBasicInfo(ctx context.Context, dealID string, info model.BasicInfo) model.OperationResult
	LoadCampaignDetails(ctx context.Context, dealID string) model.OperationResult
	SaveCampaignDetails(ctx context.Context, dealID string, details model.CampaignDetails) model.OperationResult
	LoadLineItems(ctx context.Context, dealID string) model.OperationResult
	SaveLineItems(ctx context.Context, dealID string, items []model.LineItem) model.OperationResult
}

// DirectoryService is the directory listing surface.
type DirectoryService interface {
	List(ctx context.Context, typeKey, query string, page, limit int) model.OperationResult
}

// SchemaService is the schema reconciliation surface.
type SchemaService interface {
	CheckPropertiesExist(ctx context.Context, required []crm.Property) (schema.CheckResult, error)
	CreateMissingProperties(ctx context.Context, required []crm.Property) (schema.CheckResult, error)
	ProbeWriteAccess(ctx context.Context) schema.ProbeResult
}

// Dependencies holds the injected collaborators of the HTTP layer.
type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Deals     DealService
	Directory DirectoryService
	Schema    SchemaService
}

// NewRouter creates the chi router with the full middleware pipeline and
// all route registrations. Health, readiness, and metrics bypass the
// request-scoped middleware.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(Recovery(deps.Logger))
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)

	r.Get("/health", handleHealth)
	r.Get("/ready", handleReady)
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	r.Group(func(r chi.Router) {
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(deps.Logger))
		r.Use(MetricsRecording(deps.Metrics))

		r.Route("/api/deals/{dealId}", func(r chi.Router) {
			r.Get("/basic-info", handleLoadBasicInfo(deps.Deals))
			r.Put("/basic-info", handleSaveBasicInfo(deps.Deals))
			r.Get("/campaign-details", handleLoadCampaignDetails(deps.Deals))
			r.Put("/campaign-details", handleSaveCampaignDetails(deps.Deals))
			r.Get("/line-items", handleLoadLineItems(deps.Deals))
			r.Put("/line-items", handleSaveLineItems(deps.Deals))
		})

		r.Get("/api/directory/{objectType}", handleDirectory(deps.Directory))

		r.Route("/api/schema", func(r chi.Router) {
			r.Post("/check", handleSchemaCheck(deps))
			r.Post("/reconcile", handleSchemaReconcile(deps))
			r.Post("/probe", handleSchemaProbe(deps))
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
