// Package schema reconciles the campaign deal's required custom properties
// against the backing store. The store's schema is mutable infrastructure
// shared across deployments, so every write path that depends on these
// properties must be defensive about their existence.
package schema

import (
	"github.com/latmedia/dealdesk/internal/crm"
	"github.com/latmedia/dealdesk/model"
)

// PropertyGroupName is the group all campaign deal properties live in.
const PropertyGroupName = "campaign_deal_information"

// Group is the property group definition for campaign deal properties.
var Group = crm.PropertyGroup{
	Name:  PropertyGroupName,
	Label: "Campaign Deal Information",
}

func saveStatusOptions() []crm.PropertyOption {
	return []crm.PropertyOption{
		{Label: "Not Saved", Value: model.SaveStatusNotSaved, DisplayOrder: 0},
		{Label: "In Progress", Value: model.SaveStatusInProgress, DisplayOrder: 1},
		{Label: "Saved", Value: model.SaveStatusSaved, DisplayOrder: 2},
	}
}

func sectionStateProperties(s model.Section, label string) []crm.Property {
	return []crm.Property{
		{
			Name:      s.StatusProperty(),
			Label:     label + " Save Status",
			GroupName: PropertyGroupName,
			Type:      "enumeration",
			FieldType: "select",
			Options:   saveStatusOptions(),
		},
		{
			Name:      s.DateProperty(),
			Label:     label + " Save Date",
			GroupName: PropertyGroupName,
			Type:      "date",
			FieldType: "date",
		},
	}
}

// LineItemProperties is the definition table for the line-item section:
// the serialized collection, its count, the three campaign totals, and the
// section's save-state pair.
func LineItemProperties() []crm.Property {
	props := []crm.Property{
		{
			Name:        model.PropLineItemsData,
			Label:       "Line Items Data",
			Description: "JSON-serialized line item collection",
			GroupName:   PropertyGroupName,
			Type:        "string",
			FieldType:   "textarea",
		},
		{
			Name:      model.PropLineItemsCount,
			Label:     "Line Items Count",
			GroupName: PropertyGroupName,
			Type:      "number",
			FieldType: "number",
		},
		{
			Name:      model.PropTotalBudget,
			Label:     "Total Budget",
			GroupName: PropertyGroupName,
			Type:      "number",
			FieldType: "number",
		},
		{
			Name:      model.PropTotalBillable,
			Label:     "Total Billable",
			GroupName: PropertyGroupName,
			Type:      "number",
			FieldType: "number",
		},
		{
			Name:      model.PropTotalBonus,
			Label:     "Total Bonus",
			GroupName: PropertyGroupName,
			Type:      "number",
			FieldType: "number",
		},
	}
	return append(props, sectionStateProperties(model.SectionLineItems, "Line Items")...)
}

// BasicInfoProperties is the definition table for the basic information
// section, including the commercial agreement linkage and its save-state
// pair alongside the section's own.
func BasicInfoProperties() []crm.Property {
	props := []crm.Property{
		{Name: model.PropCampaignName, Label: "Campaign Name", GroupName: PropertyGroupName, Type: "string", FieldType: "text"},
		{Name: model.PropCommercialAgreementID, Label: "Commercial Agreement", GroupName: PropertyGroupName, Type: "string", FieldType: "text"},
		{Name: model.PropAdvertiserID, Label: "Advertiser", GroupName: PropertyGroupName, Type: "string", FieldType: "text"},
		{Name: model.PropDealOwnerID, Label: "Deal Owner", GroupName: PropertyGroupName, Type: "string", FieldType: "text"},
		{Name: model.PropDealCSID, Label: "CS Representative", GroupName: PropertyGroupName, Type: "string", FieldType: "text"},
		{Name: model.PropTaxID, Label: "Tax ID", GroupName: PropertyGroupName, Type: "string", FieldType: "text"},
		{Name: model.PropBusinessName, Label: "Business Name", GroupName: PropertyGroupName, Type: "string", FieldType: "text"},
	}
	// The commercial agreement fields persist with basic info, so only one
	// save-state pair backs the two client-side sections.
	return append(props, sectionStateProperties(model.SectionBasicInfo, "Basic Info")...)
}

// CampaignDetailsProperties is the definition table for the campaign
// details section. The campaign type enumeration comes from configuration,
// so its schema options mirror whatever the deployment allows.
func CampaignDetailsProperties(campaignTypes []string) []crm.Property {
	var options []crm.PropertyOption
	for i, v := range campaignTypes {
		options = append(options, crm.PropertyOption{Label: v, Value: v, DisplayOrder: i})
	}
	props := []crm.Property{
		{
			Name:      model.PropCampaignType,
			Label:     "Campaign Type",
			GroupName: PropertyGroupName,
			Type:      "enumeration",
			FieldType: "select",
			Options:   options,
		},
	}
	return append(props, sectionStateProperties(model.SectionCampaignDetails, "Campaign Details")...)
}

// SectionProperties returns the definition table for one section.
func SectionProperties(s model.Section, campaignTypes []string) []crm.Property {
	switch s {
	case model.SectionLineItems:
		return LineItemProperties()
	case model.SectionCampaignDetails:
		return CampaignDetailsProperties(campaignTypes)
	default:
		return BasicInfoProperties()
	}
}
