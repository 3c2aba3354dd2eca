// Package model contains the shared types exchanged between the transport
// layer, the deal operations, and the CRM adapter.
package model

import (
	"encoding/json"
	"strconv"
)

// Section identifies one independently saved group of deal form fields.
// Each section owns a disjoint set of backing-store properties and its own
// save-state, so sibling sections may legitimately disagree about whether
// the deal is saved.
type Section string

const (
	SectionBasicInfo           Section = "basic_info"
	SectionCommercialAgreement Section = "commercial_agreement"
	SectionCampaignDetails     Section = "campaign_details"
	SectionLineItems           Section = "line_items"
)

// StatusProperty returns the backing-store property holding the section's
// persisted save status.
func (s Section) StatusProperty() string { return string(s) + "_save_status" }

// DateProperty returns the backing-store property holding the section's
// last save date (YYYY-MM-DD).
func (s Section) DateProperty() string { return string(s) + "_save_date" }

// Persisted save-status values. SaveStatusSaved is the sentinel checked on
// load to decide whether a section starts out as saved.
const (
	SaveStatusNotSaved   = "not_saved"
	SaveStatusInProgress = "in_progress"
	SaveStatusSaved      = "Saved"
)

// Scalar properties of a campaign deal record.
const (
	PropCampaignName          = "campaign_name"
	PropCommercialAgreementID = "commercial_agreement_id"
	PropAdvertiserID          = "advertiser_id"
	PropDealOwnerID           = "deal_owner_id"
	PropDealCSID              = "deal_cs_id"
	PropCampaignType          = "campaign_type"
	PropTaxID                 = "tax_id"
	PropBusinessName          = "business_name"
	PropLineItemsData         = "line_items_data"
	PropLineItemsCount        = "line_items_count"
	PropTotalBudget           = "total_budget"
	PropTotalBillable         = "total_billable"
	PropTotalBonus            = "total_bonus"
)

// Line item types.
const (
	LineItemTypeInitial   = "initial"
	LineItemTypeUpweight  = "upweight"
	LineItemTypeRebooking = "rebooking"
)

// Amount is a number that tolerates sloppy JSON: numbers, numeric strings,
// null, and anything non-numeric all decode without error, the latter two
// as 0. Form payloads and previously persisted blobs both pass through it,
// so absent or garbled fields silently default instead of failing a load.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*a = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*a = 0
		return nil
	}
	*a = Amount(f)
	return nil
}

// MarshalJSON implements json.Marshaler. Amounts always serialize as plain
// numbers regardless of what shape they were decoded from.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(a))
}

// LineItem is a single budgeted row of a campaign deal. IDs are positive
// integers unique within the deal, assigned by a counter seeded from the
// max existing id on load. The three totals are derived and recomputed on
// every create or edit, never persisted independently of the item.
type LineItem struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Country   string `json:"country"`
	Type      string `json:"type"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Price     Amount `json:"price"`
	Billable  Amount `json:"billable"`
	Bonus     Amount `json:"bonus"`

	TotalBillable Amount `json:"totalBillable"`
	TotalBonus    Amount `json:"totalBonus"`
	TotalBudget   Amount `json:"totalBudget"`
}

// CampaignSummary aggregates the derived totals across all line items of a
// deal. It is recomputed on demand and never stored as a unit.
type CampaignSummary struct {
	TotalBudget   float64 `json:"totalBudget"`
	TotalBillable float64 `json:"totalBillable"`
	TotalBonus    float64 `json:"totalBonus"`
	LineItemCount int     `json:"lineItemCount"`
}

// BasicInfo is the Basic Information section of a deal, including the
// commercial agreement linkage.
type BasicInfo struct {
	CampaignName          string `json:"campaignName"`
	CommercialAgreementID string `json:"commercialAgreementId"`
	AdvertiserID          string `json:"advertiserId"`
	DealOwnerID           string `json:"dealOwnerId"`
	DealCSID              string `json:"dealCsId"`
	TaxID                 string `json:"taxId"`
	BusinessName          string `json:"businessName"`
}

// CampaignDetails is the Campaign Details section of a deal.
type CampaignDetails struct {
	CampaignType string `json:"campaignType"`
}

// OptionDescriptor is a single entry of a dropdown option list.
type OptionDescriptor struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
