package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/latmedia/dealdesk/internal/observability"
	"github.com/latmedia/dealdesk/model"
)

// maxBodySize bounds request bodies; line item collections stay well under
// this at the scales the form serves.
const maxBodySize = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		WriteError(w, model.NewBadRequestError("could not read request body"))
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, dst); err != nil {
		observability.LoggerFrom(r.Context(), zap.NewNop()).Warn("request body rejected",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		WriteError(w, model.NewBadRequestError("request body is not valid JSON"))
		return false
	}
	return true
}

func dealID(r *http.Request) string {
	return chi.URLParam(r, "dealId")
}

func handleLoadBasicInfo(deals DealService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteResult(w, deals.LoadBasicInfo(r.Context(), dealID(r)))
	}
}

func handleSaveBasicInfo(deals DealService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var info model.BasicInfo
		if !decodeBody(w, r, &info) {
			return
		}
		WriteResult(w, deals.SaveBasicInfo(r.Context(), dealID(r), info))
	}
}

func handleLoadCampaignDetails(deals DealService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteResult(w, deals.LoadCampaignDetails(r.Context(), dealID(r)))
	}
}

func handleSaveCampaignDetails(deals DealService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var details model.CampaignDetails
		if !decodeBody(w, r, &details) {
			return
		}
		WriteResult(w, deals.SaveCampaignDetails(r.Context(), dealID(r), details))
	}
}

func handleLoadLineItems(deals DealService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteResult(w, deals.LoadLineItems(r.Context(), dealID(r)))
	}
}

func handleSaveLineItems(deals DealService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			LineItems []model.LineItem `json:"lineItems"`
		}
		if !decodeBody(w, r, &payload) {
			return
		}
		WriteResult(w, deals.SaveLineItems(r.Context(), dealID(r), payload.LineItems))
	}
}
