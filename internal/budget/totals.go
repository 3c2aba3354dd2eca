// Package budget holds the line-item totals engine and the in-memory
// line-item collection with its persistence encoding.
package budget

import "github.com/latmedia/dealdesk/model"

// Totals are the derived financial fields of one line item. The budget
// deliberately excludes bonus volume: only billable units count toward it.
type Totals struct {
	Billable float64
	Bonus    float64
	Budget   float64
}

// ComputeLineItemTotals derives the totals from an item's price and unit
// counts. Inputs arrive already coerced, so missing or garbled fields
// contribute 0 instead of failing.
func ComputeLineItemTotals(item model.LineItem) Totals {
	billable := float64(item.Price) * float64(item.Billable)
	bonus := float64(item.Price) * float64(item.Bonus)
	return Totals{
		Billable: billable,
		Bonus:    bonus,
		Budget:   billable,
	}
}

// ApplyTotals recomputes and writes the derived fields onto the item.
// Called on every create and edit so the stored fields never drift from
// the inputs they derive from.
func ApplyTotals(item *model.LineItem) {
	t := ComputeLineItemTotals(*item)
	item.TotalBillable = model.Amount(t.Billable)
	item.TotalBonus = model.Amount(t.Bonus)
	item.TotalBudget = model.Amount(t.Budget)
}

// ComputeCampaignSummary folds the per-item totals into a campaign-level
// summary. The empty collection yields an all-zero summary.
func ComputeCampaignSummary(items []model.LineItem) model.CampaignSummary {
	var summary model.CampaignSummary
	for _, item := range items {
		t := ComputeLineItemTotals(item)
		summary.TotalBudget += t.Budget
		summary.TotalBillable += t.Billable
		summary.TotalBonus += t.Bonus
	}
	summary.LineItemCount = len(items)
	return summary
}
