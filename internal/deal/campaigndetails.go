package deal

import (
	"context"

	"github.com/latmedia/dealdesk/model"
)

// CampaignDetailsData is the payload of campaign details load and save
// results.
type CampaignDetailsData struct {
	CampaignDetails model.CampaignDetails `json:"campaignDetails"`
	State           string                `json:"state"`
	SaveStatus      string                `json:"saveStatus"`
	SaveDate        string                `json:"saveDate,omitempty"`
}

var campaignDetailsProps = []string{
	model.PropCampaignType,
	model.SectionCampaignDetails.StatusProperty(),
	model.SectionCampaignDetails.DateProperty(),
}

// LoadCampaignDetails fetches the campaign details section.
func (s *Service) LoadCampaignDetails(ctx context.Context, dealID string) model.OperationResult {
	m := s.machines(dealID).campaignDetails
	m.BeginLoad()

	obj, err := s.store.GetByID(ctx, s.objects.CampaignDeal, dealID, campaignDetailsProps)
	if err != nil {
		m.FailLoad(err.Error())
		s.observe(model.SectionCampaignDetails, "load", "error")
		result := model.ErrorResult(err)
		result.Data = CampaignDetailsData{State: string(m.State())}
		return result
	}

	details := model.CampaignDetails{CampaignType: obj.Property(model.PropCampaignType)}
	status := obj.Property(model.SectionCampaignDetails.StatusProperty())
	date := obj.Property(model.SectionCampaignDetails.DateProperty())
	m.CompleteLoad(details, status, date)

	s.observe(model.SectionCampaignDetails, "load", "success")
	return model.SuccessResult(CampaignDetailsData{
		CampaignDetails: details,
		State:           string(m.State()),
		SaveStatus:      status,
		SaveDate:        date,
	})
}

// SaveCampaignDetails persists the section. The campaign type must be one
// of the configured options.
func (s *Service) SaveCampaignDetails(ctx context.Context, dealID string, details model.CampaignDetails) model.OperationResult {
	if !s.validCampaignType(details.CampaignType) {
		s.observe(model.SectionCampaignDetails, "save", "invalid")
		return model.ErrorResult(model.NewValidationError([]model.FieldError{
			{Field: "campaignType", Message: "Campaign type is not a known option"},
		}))
	}

	m := s.machines(dealID).campaignDetails
	m.BeginSave()

	err := s.store.Update(ctx, s.objects.CampaignDeal, dealID, map[string]string{
		model.PropCampaignType: details.CampaignType,
	})
	if err != nil {
		m.FailSave(err.Error())
		s.observe(model.SectionCampaignDetails, "save", "error")
		return model.ErrorResult(err)
	}

	date := s.saveDate()
	err = s.store.Update(ctx, s.objects.CampaignDeal, dealID, map[string]string{
		model.SectionCampaignDetails.StatusProperty(): model.SaveStatusSaved,
		model.SectionCampaignDetails.DateProperty():   date,
	})
	if err != nil {
		m.FailSave(err.Error())
		s.observe(model.SectionCampaignDetails, "save", "error")
		return model.ErrorResult(err)
	}

	m.CompleteSave(details, date)
	s.observe(model.SectionCampaignDetails, "save", "success")
	return model.SuccessResult(CampaignDetailsData{
		CampaignDetails: details,
		State:           string(m.State()),
		SaveStatus:      model.SaveStatusSaved,
		SaveDate:        date,
	})
}

func (s *Service) validCampaignType(value string) bool {
	if value == "" {
		return false
	}
	for _, v := range s.options.CampaignTypes {
		if v == value {
			return true
		}
	}
	return false
}
