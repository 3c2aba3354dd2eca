package transport

import (
	"net/http"

	"github.com/latmedia/dealdesk/internal/crm"
	"github.com/latmedia/dealdesk/internal/schema"
	"github.com/latmedia/dealdesk/model"
)

// schemaRequest selects which section's property table to act on. An empty
// section means line items, the only section whose save path depends on
// reconciliation.
type schemaRequest struct {
	Section string `json:"section"`
}

func sectionProperties(deps Dependencies, req schemaRequest) ([]crm.Property, error) {
	switch req.Section {
	case "", string(model.SectionLineItems):
		return schema.LineItemProperties(), nil
	case string(model.SectionBasicInfo), string(model.SectionCommercialAgreement):
		return schema.BasicInfoProperties(), nil
	case string(model.SectionCampaignDetails):
		return schema.CampaignDetailsProperties(deps.Config.Options.CampaignTypes), nil
	default:
		return nil, model.NewBadRequestError("unknown section: " + req.Section)
	}
}

func handleSchemaCheck(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req schemaRequest
		if !decodeBody(w, r, &req) {
			return
		}
		required, err := sectionProperties(deps, req)
		if err != nil {
			WriteError(w, err)
			return
		}
		result, err := deps.Schema.CheckPropertiesExist(r.Context(), required)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteResult(w, model.SuccessResult(result))
	}
}

func handleSchemaReconcile(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req schemaRequest
		if !decodeBody(w, r, &req) {
			return
		}
		required, err := sectionProperties(deps, req)
		if err != nil {
			WriteError(w, err)
			return
		}
		result, err := deps.Schema.CreateMissingProperties(r.Context(), required)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteResult(w, model.SuccessResult(result))
	}
}

func handleSchemaProbe(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Probe result is reported as data even when access is denied; the
		// operation itself succeeded.
		WriteResult(w, model.SuccessResult(deps.Schema.ProbeWriteAccess(r.Context())))
	}
}
