package deal

import (
	"context"
	"fmt"
	"strconv"

	"github.com/latmedia/dealdesk/internal/budget"
	"github.com/latmedia/dealdesk/internal/schema"
	"github.com/latmedia/dealdesk/model"
)

// LineItemsData is the payload of line item load and save results.
type LineItemsData struct {
	LineItems  []model.LineItem      `json:"lineItems"`
	Summary    model.CampaignSummary `json:"summary"`
	State      string                `json:"state"`
	SaveStatus string                `json:"saveStatus"`
	SaveDate   string                `json:"saveDate,omitempty"`
}

var lineItemProps = []string{
	model.PropLineItemsData,
	model.PropLineItemsCount,
	model.PropTotalBudget,
	model.PropTotalBillable,
	model.PropTotalBonus,
	model.SectionLineItems.StatusProperty(),
	model.SectionLineItems.DateProperty(),
}

// LoadLineItems fetches and decodes the line item collection. Numeric
// fields absent from an older blob decode as 0; the id counter reseeds from
// the max id present.
func (s *Service) LoadLineItems(ctx context.Context, dealID string) model.OperationResult {
	m := s.machines(dealID).lineItems
	m.BeginLoad()

	obj, err := s.store.GetByID(ctx, s.objects.CampaignDeal, dealID, lineItemProps)
	if err != nil {
		m.FailLoad(err.Error())
		s.observe(model.SectionLineItems, "load", "error")
		result := model.ErrorResult(err)
		result.Data = LineItemsData{LineItems: []model.LineItem{}, State: string(m.State())}
		return result
	}

	blob := obj.Property(model.PropLineItemsData)
	collection, err := budget.Decode(blob)
	if err != nil {
		m.FailLoad(err.Error())
		s.observe(model.SectionLineItems, "load", "error")
		result := model.ErrorResult(model.NewBadRequestError("stored line items are not valid JSON"))
		result.Data = LineItemsData{LineItems: []model.LineItem{}, State: string(m.State())}
		return result
	}

	status := obj.Property(model.SectionLineItems.StatusProperty())
	date := obj.Property(model.SectionLineItems.DateProperty())
	m.CompleteLoad(blob, status, date)

	items := collection.Items()
	if items == nil {
		items = []model.LineItem{}
	}

	s.observe(model.SectionLineItems, "load", "success")
	return model.SuccessResult(LineItemsData{
		LineItems:  items,
		Summary:    collection.Summary(),
		State:      string(m.State()),
		SaveStatus: status,
		SaveDate:   date,
	})
}

// SaveLineItems persists the collection. All items are validated before any
// remote call; the schema is then reconciled, the summary properties
// written, the JSON blob written, and finally the save-state pair. Each
// step's success gates the next, so a partial failure never records a
// "Saved" sentinel over stale data.
func (s *Service) SaveLineItems(ctx context.Context, dealID string, items []model.LineItem) model.OperationResult {
	collection, err := s.buildCollection(items)
	if err != nil {
		s.observe(model.SectionLineItems, "save", "invalid")
		return model.ErrorResult(err)
	}

	m := s.machines(dealID).lineItems
	m.BeginSave()

	fail := func(err error) model.OperationResult {
		m.FailSave(err.Error())
		s.observe(model.SectionLineItems, "save", "error")
		return model.ErrorResult(err)
	}

	if _, err := s.reconciler.CreateMissingProperties(ctx, schema.LineItemProperties()); err != nil {
		return fail(err)
	}

	summary := collection.Summary()
	err = s.store.Update(ctx, s.objects.CampaignDeal, dealID, map[string]string{
		model.PropLineItemsCount: strconv.Itoa(summary.LineItemCount),
		model.PropTotalBudget:    formatAmount(summary.TotalBudget),
		model.PropTotalBillable:  formatAmount(summary.TotalBillable),
		model.PropTotalBonus:     formatAmount(summary.TotalBonus),
	})
	if err != nil {
		return fail(err)
	}

	blob, err := collection.Encode()
	if err != nil {
		return fail(err)
	}
	err = s.store.Update(ctx, s.objects.CampaignDeal, dealID, map[string]string{
		model.PropLineItemsData: blob,
	})
	if err != nil {
		return fail(err)
	}

	date := s.saveDate()
	err = s.store.Update(ctx, s.objects.CampaignDeal, dealID, map[string]string{
		model.SectionLineItems.StatusProperty(): model.SaveStatusSaved,
		model.SectionLineItems.DateProperty():   date,
	})
	if err != nil {
		return fail(err)
	}

	m.CompleteSave(blob, date)
	s.observe(model.SectionLineItems, "save", "success")
	return model.SuccessResult(LineItemsData{
		LineItems:  collection.Items(),
		Summary:    summary,
		State:      string(m.State()),
		SaveStatus: model.SaveStatusSaved,
		SaveDate:   date,
	})
}

// buildCollection validates the submitted items and rebuilds the collection
// with recomputed totals. Items without an id are treated as new and get
// one assigned past the max submitted id; a submitted id that repeats an
// earlier item's is rejected so ids stay unique within the deal. Validation
// failures are gathered across all items, each prefixed with its position.
func (s *Service) buildCollection(items []model.LineItem) (*budget.Collection, error) {
	rules := budget.Rules{
		Countries: s.options.Countries,
		Types:     s.options.LineItemTypes,
	}

	var fields []model.FieldError
	seen := make(map[int]bool, len(items))
	for i := range items {
		if items[i].Country == "" {
			items[i].Country = s.options.DefaultCountry
		}
		if items[i].ID > 0 {
			if seen[items[i].ID] {
				fields = append(fields, model.FieldError{
					Field:   fmt.Sprintf("lineItems[%d].id", i),
					Message: "Id duplicates another line item",
				})
			}
			seen[items[i].ID] = true
		}
		if err := budget.Validate(items[i], rules); err != nil {
			if envelope, ok := err.(*model.ErrorEnvelope); ok {
				for _, d := range envelope.Details {
					fields = append(fields, model.FieldError{
						Field:   fmt.Sprintf("lineItems[%d].%s", i, d.Field),
						Message: d.Message,
					})
				}
			}
		}
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	var existing []model.LineItem
	var fresh []model.LineItem
	for _, item := range items {
		if item.ID > 0 {
			budget.ApplyTotals(&item)
			existing = append(existing, item)
		} else {
			fresh = append(fresh, item)
		}
	}

	collection := budget.NewCollection(existing).WithRules(rules)
	for _, item := range fresh {
		if _, err := collection.Add(item); err != nil {
			return nil, err
		}
	}
	return collection, nil
}
