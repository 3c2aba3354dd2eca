package section

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/latmedia/dealdesk/model"
)

func TestMachine_startsNotSaved(t *testing.T) {
	m := NewMachine[model.BasicInfo](model.SectionBasicInfo)
	assert.Equal(t, StateNotSaved, m.State())
	assert.Equal(t, model.SectionBasicInfo, m.Section())
}

func TestMachine_loadWithSavedSentinel(t *testing.T) {
	m := NewMachine[model.BasicInfo](model.SectionBasicInfo)

	m.BeginLoad()
	assert.Equal(t, StateLoading, m.State())

	snap := model.BasicInfo{CampaignName: "Spring Push"}
	m.CompleteLoad(snap, model.SaveStatusSaved, "2026-08-01")

	assert.Equal(t, StateSaved, m.State())
	assert.Equal(t, snap, m.Snapshot())
	assert.Equal(t, "2026-08-01", m.SaveDate())
}

func TestMachine_loadWithoutSentinelIsNotSaved(t *testing.T) {
	for _, status := range []string{"", model.SaveStatusNotSaved, model.SaveStatusInProgress, "saved"} {
		m := NewMachine[model.BasicInfo](model.SectionBasicInfo)
		m.BeginLoad()
		m.CompleteLoad(model.BasicInfo{}, status, "")
		assert.Equal(t, StateNotSaved, m.State(), "status %q", status)
	}
}

func TestMachine_failLoadRetainsMessage(t *testing.T) {
	m := NewMachine[model.BasicInfo](model.SectionBasicInfo)
	m.BeginLoad()
	m.FailLoad("deal 42 not found")

	assert.Equal(t, StateError, m.State())
	assert.Equal(t, "deal 42 not found", m.LastError())
}

func TestMachine_editFlipsToModifiedAndBack(t *testing.T) {
	m := NewMachine[model.BasicInfo](model.SectionBasicInfo)
	snap := model.BasicInfo{CampaignName: "Spring Push", TaxID: "TX-1"}
	m.CompleteLoad(snap, model.SaveStatusSaved, "2026-08-01")

	edited := snap
	edited.CampaignName = "Summer Push"
	m.Touch(edited)
	assert.Equal(t, StateModified, m.State())

	m.Touch(snap)
	assert.Equal(t, StateSaved, m.State(), "reverting the edit restores saved")
}

func TestMachine_touchIgnoredOutsideSavedAndModified(t *testing.T) {
	m := NewMachine[model.BasicInfo](model.SectionBasicInfo)
	m.Touch(model.BasicInfo{CampaignName: "x"})
	assert.Equal(t, StateNotSaved, m.State())
}

func TestMachine_saveSuccess(t *testing.T) {
	m := NewMachine[model.BasicInfo](model.SectionBasicInfo)
	m.BeginSave()
	assert.Equal(t, StateSaving, m.State())

	snap := model.BasicInfo{CampaignName: "Spring Push"}
	m.CompleteSave(snap, "2026-08-28")

	assert.Equal(t, StateSaved, m.State())
	assert.Equal(t, snap, m.Snapshot())
	assert.Equal(t, "2026-08-28", m.SaveDate())
}

func TestMachine_saveFailurePreservesSnapshot(t *testing.T) {
	m := NewMachine[model.BasicInfo](model.SectionBasicInfo)
	snap := model.BasicInfo{CampaignName: "Spring Push"}
	m.CompleteLoad(snap, model.SaveStatusSaved, "2026-08-01")

	m.BeginSave()
	m.FailSave("backend unavailable")

	assert.Equal(t, StateError, m.State())
	assert.Equal(t, "backend unavailable", m.LastError())
	assert.Equal(t, snap, m.Snapshot(), "failed save must not touch the snapshot")
	assert.Equal(t, "2026-08-01", m.SaveDate())
}

func TestMachine_independentSiblings(t *testing.T) {
	basic := NewMachine[model.BasicInfo](model.SectionBasicInfo)
	details := NewMachine[model.CampaignDetails](model.SectionCampaignDetails)

	basic.CompleteLoad(model.BasicInfo{CampaignName: "a"}, model.SaveStatusSaved, "2026-08-01")
	details.CompleteLoad(model.CampaignDetails{}, model.SaveStatusSaved, "2026-08-01")

	basic.Touch(model.BasicInfo{CampaignName: "b"})

	assert.Equal(t, StateModified, basic.State())
	assert.Equal(t, StateSaved, details.State())
}

func TestMachine_stringSnapshot(t *testing.T) {
	m := NewMachine[string](model.SectionLineItems)
	m.CompleteLoad(`[{"id":1}]`, model.SaveStatusSaved, "2026-08-01")

	m.Touch(`[{"id":1},{"id":2}]`)
	assert.Equal(t, StateModified, m.State())
}
