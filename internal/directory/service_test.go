package directory

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/latmedia/dealdesk/internal/config"
	"github.com/latmedia/dealdesk/internal/crm"
	"github.com/latmedia/dealdesk/model"
)

type fakeStore struct {
	searchResults map[string]crm.SearchResult
	searchErr     error
	objects       map[string]crm.Object
	assocs        map[string][]crm.Association
	owners        []crm.Owner
}

func (f *fakeStore) Search(_ context.Context, objectType string, _ crm.SearchRequest) (crm.SearchResult, error) {
	if f.searchErr != nil {
		return crm.SearchResult{}, f.searchErr
	}
	return f.searchResults[objectType], nil
}

func (f *fakeStore) GetByID(_ context.Context, objectType, id string, _ []string) (crm.Object, error) {
	obj, ok := f.objects[objectType+"/"+id]
	if !ok {
		return crm.Object{}, model.NewNotFoundError("not found")
	}
	return obj, nil
}

func (f *fakeStore) GetAssociations(_ context.Context, objectType, id, toType string) ([]crm.Association, error) {
	return f.assocs[objectType+"/"+id+"->"+toType], nil
}

func (f *fakeStore) ListOwners(_ context.Context, _ int) ([]crm.Owner, error) {
	return f.owners, nil
}

func company(id, name string) crm.Object {
	return crm.Object{ID: id, Properties: map[string]string{"name": name}}
}

func newTestService(store *fakeStore) *Service {
	objects := config.ObjectsConfig{
		CommercialAgreement: "agreements",
		Advertiser:          "advertisers",
		Company:             "companies",
		Contact:             "contacts",
	}
	return NewService(store, objects, config.Defaults().Directory, zap.NewNop())
}

func agreementStore(names ...string) *fakeStore {
	var objs []crm.Object
	for i, name := range names {
		objs = append(objs, crm.Object{
			ID:         string(rune('1' + i)),
			Properties: map[string]string{"agreement_name": name},
		})
	}
	return &fakeStore{
		searchResults: map[string]crm.SearchResult{
			"agreements": {Objects: objs, Total: len(objs)},
		},
	}
}

func TestList_defaultPage(t *testing.T) {
	svc := newTestService(agreementStore("Alpha 2026", "Beta 2026"))

	result := svc.List(context.Background(), "agreements", "", 1, 20)
	require.True(t, result.Succeeded(), result.Message)

	page := result.Data.(Page)
	require.Len(t, page.Entries, 3)
	assert.Equal(t, Entry{Label: "Select agreement", Value: ""}, page.Entries[0])
	assert.Equal(t, "Alpha 2026", page.Entries[1].Label)
	assert.Equal(t, 2, page.Total)
}

func TestList_searchIsCaseInsensitiveSubstring(t *testing.T) {
	svc := newTestService(agreementStore("Alpha 2026", "Beta 2026", "Alphaville"))

	result := svc.List(context.Background(), "agreements", "ALPHA", 1, 20)
	require.True(t, result.Succeeded())

	page := result.Data.(Page)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Entries, 3)
	assert.Equal(t, "Alpha 2026", page.Entries[1].Label)
	assert.Equal(t, "Alphaville", page.Entries[2].Label)
}

func TestList_pagination(t *testing.T) {
	svc := newTestService(agreementStore("a", "b", "c", "d", "e"))

	result := svc.List(context.Background(), "agreements", "", 2, 2)
	require.True(t, result.Succeeded())

	page := result.Data.(Page)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Entries, 3, "placeholder plus one page of two")
	assert.Equal(t, "c", page.Entries[1].Label)
	assert.Equal(t, "d", page.Entries[2].Label)
}

func TestList_pageBeyondEnd(t *testing.T) {
	svc := newTestService(agreementStore("a", "b"))

	result := svc.List(context.Background(), "agreements", "", 9, 20)
	require.True(t, result.Succeeded())

	page := result.Data.(Page)
	require.Len(t, page.Entries, 1, "placeholder only")
}

func TestList_unknownType(t *testing.T) {
	svc := newTestService(&fakeStore{})
	result := svc.List(context.Background(), "planets", "", 1, 20)
	assert.Equal(t, model.StatusError, result.Status)
}

func TestList_searchFailureSurfaced(t *testing.T) {
	store := agreementStore("a")
	store.searchErr = model.NewBackendUnavailableError()
	svc := newTestService(store)

	result := svc.List(context.Background(), "agreements", "", 1, 20)
	assert.Equal(t, model.StatusError, result.Status)
}

func TestList_advertisersResolveCompanies(t *testing.T) {
	store := &fakeStore{
		searchResults: map[string]crm.SearchResult{
			"advertisers": {Objects: []crm.Object{
				{ID: "10", Properties: map[string]string{"name": "Acme Ads"}},
				{ID: "11", Properties: map[string]string{"legal_name": "Globex S.A."}},
			}},
		},
		objects: map[string]crm.Object{
			"companies/77": company("77", "Acme Holdings"),
		},
		assocs: map[string][]crm.Association{
			"advertisers/10->companies": {{ToObjectID: "77"}},
		},
	}
	svc := newTestService(store)

	result := svc.List(context.Background(), "advertisers", "", 1, 20)
	require.True(t, result.Succeeded(), result.Message)

	page := result.Data.(Page)
	require.Len(t, page.Entries, 3)
	assert.Equal(t, "Acme Ads", page.Entries[1].Label)
	assert.Equal(t, "Acme Holdings", page.Entries[1].Company)
	assert.Equal(t, "Globex S.A.", page.Entries[2].Label, "label falls back through the candidate chain")
	assert.Empty(t, page.Entries[2].Company, "missing association leaves company blank")
}

func TestList_owners(t *testing.T) {
	store := &fakeStore{owners: []crm.Owner{
		{ID: "1", FirstName: "Zoe", LastName: "Vega", Email: "zoe@example.com"},
		{ID: "2", Email: "ops@example.com"},
	}}
	svc := newTestService(store)

	result := svc.List(context.Background(), "owners", "", 1, 20)
	require.True(t, result.Succeeded())

	page := result.Data.(Page)
	require.Len(t, page.Entries, 3)
	assert.Equal(t, "Select owner", page.Entries[0].Label)
	assert.Equal(t, "Zoe Vega", page.Entries[1].Label)
	assert.Equal(t, "ops@example.com", page.Entries[2].Label, "nameless owner falls back to email")
}

func TestList_ownersSearch(t *testing.T) {
	store := &fakeStore{owners: []crm.Owner{
		{ID: "1", FirstName: "Zoe", LastName: "Vega", Email: "zoe@example.com"},
		{ID: "2", FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com"},
	}}
	svc := newTestService(store)

	result := svc.List(context.Background(), "owners", "vega", 1, 20)
	require.True(t, result.Succeeded())

	page := result.Data.(Page)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "Zoe Vega", page.Entries[1].Label)
}

func TestList_skipsUnlabeledRecords(t *testing.T) {
	store := &fakeStore{
		searchResults: map[string]crm.SearchResult{
			"agreements": {Objects: []crm.Object{
				{ID: "1", Properties: map[string]string{"agreement_name": "Alpha"}},
				{ID: "2", Properties: map[string]string{}},
			}},
		},
	}
	svc := newTestService(store)

	result := svc.List(context.Background(), "agreements", "", 1, 20)
	page := result.Data.(Page)
	assert.Equal(t, 1, page.Total)
}

func TestSearchDebouncer_usesConfiguredDelay(t *testing.T) {
	cfg := config.Defaults().Directory
	cfg.DebounceDelay = 10 * time.Millisecond
	svc := NewService(&fakeStore{}, config.ObjectsConfig{}, cfg, zap.NewNop())

	d := svc.SearchDebouncer()
	defer d.Stop()
	assert.Equal(t, cfg.DebounceDelay, d.delay)

	var fired atomic.Int32
	d.Do(func() { fired.Add(1) })
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestDebouncer_firesOncePerQuietPeriod(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		d.Do(func() { fired.Add(1) })
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestDebouncer_stopCancels(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)

	var fired atomic.Int32
	d.Do(func() { fired.Add(1) })
	d.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}
