package deal

import (
	"context"

	"go.uber.org/zap"

	"github.com/latmedia/dealdesk/model"
)

// advertiserNameProps is the ordered fallback chain for an advertiser's
// display name. Advertiser records come from differently-configured
// portals, so the name can live under any of these; the first non-empty
// value wins.
var advertiserNameProps = []string{
	"name",
	"company_name",
	"advertiser_name",
	"business_name",
	"legal_name",
	"dba_name",
	"display_name",
	"label",
}

// BasicInfoData is the payload of basic info load and save results.
type BasicInfoData struct {
	BasicInfo      model.BasicInfo `json:"basicInfo"`
	AdvertiserName string          `json:"advertiserName,omitempty"`
	State          string          `json:"state"`
	SaveStatus     string          `json:"saveStatus"`
	SaveDate       string          `json:"saveDate,omitempty"`
}

var basicInfoProps = []string{
	model.PropCampaignName,
	model.PropCommercialAgreementID,
	model.PropAdvertiserID,
	model.PropDealOwnerID,
	model.PropDealCSID,
	model.PropTaxID,
	model.PropBusinessName,
	model.SectionBasicInfo.StatusProperty(),
	model.SectionBasicInfo.DateProperty(),
}

// LoadBasicInfo fetches the basic information section. On fetch failure the
// result is an error but still carries a default payload, so the caller can
// render an empty, usable form.
func (s *Service) LoadBasicInfo(ctx context.Context, dealID string) model.OperationResult {
	m := s.machines(dealID).basicInfo
	m.BeginLoad()

	obj, err := s.store.GetByID(ctx, s.objects.CampaignDeal, dealID, basicInfoProps)
	if err != nil {
		m.FailLoad(err.Error())
		s.observe(model.SectionBasicInfo, "load", "error")
		result := model.ErrorResult(err)
		result.Data = BasicInfoData{State: string(m.State())}
		return result
	}

	info := model.BasicInfo{
		CampaignName:          obj.Property(model.PropCampaignName),
		CommercialAgreementID: obj.Property(model.PropCommercialAgreementID),
		AdvertiserID:          obj.Property(model.PropAdvertiserID),
		DealOwnerID:           obj.Property(model.PropDealOwnerID),
		DealCSID:              obj.Property(model.PropDealCSID),
		TaxID:                 obj.Property(model.PropTaxID),
		BusinessName:          obj.Property(model.PropBusinessName),
	}
	status := obj.Property(model.SectionBasicInfo.StatusProperty())
	date := obj.Property(model.SectionBasicInfo.DateProperty())
	m.CompleteLoad(info, status, date)

	data := BasicInfoData{
		BasicInfo:  info,
		State:      string(m.State()),
		SaveStatus: status,
		SaveDate:   date,
	}
	if info.AdvertiserID != "" {
		data.AdvertiserName = s.resolveAdvertiserName(ctx, info.AdvertiserID)
	}

	s.observe(model.SectionBasicInfo, "load", "success")
	return model.SuccessResult(data)
}

// SaveBasicInfo persists the section. The scalar properties are written
// first, then the save-status sentinel and date; the first write's success
// gates the second. Association creation afterwards is best-effort and only
// ever adds warnings.
func (s *Service) SaveBasicInfo(ctx context.Context, dealID string, info model.BasicInfo) model.OperationResult {
	if info.CampaignName == "" {
		s.observe(model.SectionBasicInfo, "save", "invalid")
		return model.ErrorResult(model.NewValidationError([]model.FieldError{
			{Field: "campaignName", Message: "Campaign name is required"},
		}))
	}

	m := s.machines(dealID).basicInfo
	m.BeginSave()

	err := s.store.Update(ctx, s.objects.CampaignDeal, dealID, map[string]string{
		model.PropCampaignName:          info.CampaignName,
		model.PropCommercialAgreementID: info.CommercialAgreementID,
		model.PropAdvertiserID:          info.AdvertiserID,
		model.PropDealOwnerID:           info.DealOwnerID,
		model.PropDealCSID:              info.DealCSID,
		model.PropTaxID:                 info.TaxID,
		model.PropBusinessName:          info.BusinessName,
	})
	if err != nil {
		m.FailSave(err.Error())
		s.observe(model.SectionBasicInfo, "save", "error")
		return model.ErrorResult(err)
	}

	date := s.saveDate()
	err = s.store.Update(ctx, s.objects.CampaignDeal, dealID, map[string]string{
		model.SectionBasicInfo.StatusProperty(): model.SaveStatusSaved,
		model.SectionBasicInfo.DateProperty():   date,
	})
	if err != nil {
		m.FailSave(err.Error())
		s.observe(model.SectionBasicInfo, "save", "error")
		return model.ErrorResult(err)
	}

	warnings := s.createAssociations(ctx, dealID, info)

	m.CompleteSave(info, date)
	s.observe(model.SectionBasicInfo, "save", "success")

	result := model.SuccessResult(BasicInfoData{
		BasicInfo:  info,
		State:      string(m.State()),
		SaveStatus: model.SaveStatusSaved,
		SaveDate:   date,
	})
	result.Warnings = warnings
	return result
}

// createAssociations links the deal to its agreement, advertiser, and the
// advertiser's company. Failures and conflicts never fail the save; real
// failures are logged and reported as warnings.
func (s *Service) createAssociations(ctx context.Context, dealID string, info model.BasicInfo) []string {
	var warnings []string

	link := func(toType, toID, label string) {
		if toID == "" {
			return
		}
		err := s.store.CreateAssociation(ctx, s.objects.CampaignDeal, dealID, toType, toID)
		if err == nil || model.IsConflict(err) {
			return
		}
		s.logger.Warn("association create failed",
			zap.String("deal_id", dealID),
			zap.String("to_type", toType),
			zap.String("to_id", toID),
			zap.Error(err),
		)
		warnings = append(warnings, "could not associate "+label)
	}

	link(s.objects.CommercialAgreement, info.CommercialAgreementID, "commercial agreement")
	link(s.objects.Advertiser, info.AdvertiserID, "advertiser")

	if info.AdvertiserID != "" {
		if companyID := s.advertiserCompanyID(ctx, info.AdvertiserID); companyID != "" {
			link(s.objects.Company, companyID, "company")
		}
	}
	return warnings
}

// advertiserCompanyID follows the advertiser's company association, if any.
func (s *Service) advertiserCompanyID(ctx context.Context, advertiserID string) string {
	assocs, err := s.store.GetAssociations(ctx, s.objects.Advertiser, advertiserID, s.objects.Company)
	if err != nil {
		s.logger.Warn("advertiser company lookup failed",
			zap.String("advertiser_id", advertiserID),
			zap.Error(err),
		)
		return ""
	}
	if len(assocs) == 0 {
		return ""
	}
	return assocs[0].ToObjectID
}

// resolveAdvertiserName fetches the advertiser record and walks the
// candidate property chain. Resolution is best-effort; a failed fetch just
// yields "".
func (s *Service) resolveAdvertiserName(ctx context.Context, advertiserID string) string {
	obj, err := s.store.GetByID(ctx, s.objects.Advertiser, advertiserID, advertiserNameProps)
	if err != nil {
		s.logger.Warn("advertiser name lookup failed",
			zap.String("advertiser_id", advertiserID),
			zap.Error(err),
		)
		return ""
	}
	for _, prop := range advertiserNameProps {
		if v := obj.Property(prop); v != "" {
			return v
		}
	}
	return ""
}
