// Package directory implements the lookup lists behind the form's selector
// fields: agreements, advertisers, companies, contacts, and owners. One
// canonical implementation covers free-text search, paginated browse, and
// the default page for every type; search filters client-side over a capped
// bulk fetch, which is acceptable at the portal sizes this serves.
package directory

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/latmedia/dealdesk/internal/config"
	"github.com/latmedia/dealdesk/internal/crm"
	"github.com/latmedia/dealdesk/model"
)

// Store is the slice of the backing store adapter the directory uses.
type Store interface {
	GetByID(ctx context.Context, objectType, id string, properties []string) (crm.Object, error)
	Search(ctx context.Context, objectType string, req crm.SearchRequest) (crm.SearchResult, error)
	GetAssociations(ctx context.Context, objectType, id, toObjectType string) ([]crm.Association, error)
	ListOwners(ctx context.Context, limit int) ([]crm.Owner, error)
}

// Entry is one selectable row of a directory listing.
type Entry struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Company string `json:"company,omitempty"`
}

// Page is the payload of a directory listing result.
type Page struct {
	Entries  []Entry `json:"entries"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

// typeSpec describes how one directory type is fetched and rendered.
// labelFields is an ordered fallback chain; the first non-empty property
// becomes the label. searchFields is the fixed set matched by free-text
// search.
type typeSpec struct {
	objectType   func(config.ObjectsConfig) string
	labelFields  []string
	searchFields []string
	placeholder  string
	withCompany  bool
}

var typeSpecs = map[string]typeSpec{
	"agreements": {
		objectType:   func(o config.ObjectsConfig) string { return o.CommercialAgreement },
		labelFields:  []string{"agreement_name", "name", "title"},
		searchFields: []string{"agreement_name", "name", "title"},
		placeholder:  "Select agreement",
	},
	"advertisers": {
		objectType:   func(o config.ObjectsConfig) string { return o.Advertiser },
		labelFields:  advertiserLabelFields,
		searchFields: advertiserLabelFields,
		placeholder:  "Select advertiser",
		withCompany:  true,
	},
	"companies": {
		objectType:   func(o config.ObjectsConfig) string { return o.Company },
		labelFields:  []string{"name", "domain"},
		searchFields: []string{"name", "domain"},
		placeholder:  "Select company",
	},
	"contacts": {
		objectType:   func(o config.ObjectsConfig) string { return o.Contact },
		labelFields:  []string{"firstname", "email"},
		searchFields: []string{"firstname", "lastname", "email"},
		placeholder:  "Select contact",
	},
}

var advertiserLabelFields = []string{
	"name",
	"company_name",
	"advertiser_name",
	"business_name",
	"legal_name",
}

// Service serves directory listings.
type Service struct {
	store   Store
	objects config.ObjectsConfig
	cfg     config.DirectoryConfig
	logger  *zap.Logger
}

// NewService creates a directory service.
func NewService(store Store, objects config.ObjectsConfig, cfg config.DirectoryConfig, logger *zap.Logger) *Service {
	return &Service{store: store, objects: objects, cfg: cfg, logger: logger}
}

// SearchDebouncer returns a debouncer with the configured quiet period for
// search-as-you-type callers of List.
func (s *Service) SearchDebouncer() *Debouncer {
	return NewDebouncer(s.cfg.DebounceDelay)
}

// List returns one page of a directory type. An empty query yields the
// default or paginated browse; a non-empty query yields a single filtered
// page. The placeholder entry is always first.
func (s *Service) List(ctx context.Context, typeKey, query string, page, limit int) model.OperationResult {
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	if typeKey == "owners" {
		return s.listOwners(ctx, query, page, limit)
	}

	spec, ok := typeSpecs[typeKey]
	if !ok {
		return model.ErrorResult(model.NewBadRequestError("unknown directory type: " + typeKey))
	}

	entries, err := s.fetchAll(ctx, spec)
	if err != nil {
		return model.ErrorResult(err)
	}

	entries = filterEntries(entries, query)
	total := len(entries)
	paged := paginate(entries, page, limit)

	if spec.withCompany {
		s.resolveCompanies(ctx, spec, paged)
	}

	return model.SuccessResult(Page{
		Entries:  withPlaceholder(spec.placeholder, paged),
		Total:    total,
		Page:     page,
		PageSize: limit,
	})
}

// fetchAll pulls the capped bulk listing for one type and maps it to
// entries, dropping records with no usable label.
func (s *Service) fetchAll(ctx context.Context, spec typeSpec) ([]entryWithID, error) {
	result, err := s.store.Search(ctx, spec.objectType(s.objects), crm.SearchRequest{
		Properties: spec.labelFields,
		Sorts:      []crm.Sort{{PropertyName: spec.labelFields[0], Direction: "ASCENDING"}},
		Limit:      s.cfg.FetchCap,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]entryWithID, 0, len(result.Objects))
	for _, obj := range result.Objects {
		label := firstNonEmpty(obj, spec.labelFields)
		if label == "" {
			continue
		}
		fields := make([]string, 0, len(spec.searchFields))
		for _, f := range spec.searchFields {
			if v := obj.Property(f); v != "" {
				fields = append(fields, v)
			}
		}
		entries = append(entries, entryWithID{
			Entry:        Entry{Label: label, Value: obj.ID},
			searchFields: fields,
		})
	}
	return entries, nil
}

func (s *Service) listOwners(ctx context.Context, query string, page, limit int) model.OperationResult {
	owners, err := s.store.ListOwners(ctx, s.cfg.FetchCap)
	if err != nil {
		return model.ErrorResult(err)
	}

	entries := make([]entryWithID, 0, len(owners))
	for _, o := range owners {
		name := o.DisplayName()
		if name == "" {
			continue
		}
		entries = append(entries, entryWithID{
			Entry:        Entry{Label: name, Value: o.ID},
			searchFields: []string{o.FirstName, o.LastName, o.Email},
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Label < entries[j].Label })

	entries = filterEntries(entries, query)
	total := len(entries)
	paged := paginate(entries, page, limit)

	return model.SuccessResult(Page{
		Entries:  withPlaceholder("Select owner", paged),
		Total:    total,
		Page:     page,
		PageSize: limit,
	})
}

type entryWithID struct {
	Entry
	searchFields []string
}

// filterEntries keeps entries whose search fields contain the query,
// case-insensitively.
func filterEntries(entries []entryWithID, query string) []entryWithID {
	if query == "" {
		return entries
	}
	needle := strings.ToLower(query)
	matched := make([]entryWithID, 0, len(entries))
	for _, e := range entries {
		for _, f := range e.searchFields {
			if strings.Contains(strings.ToLower(f), needle) {
				matched = append(matched, e)
				break
			}
		}
	}
	return matched
}

func paginate(entries []entryWithID, page, limit int) []entryWithID {
	offset := (page - 1) * limit
	if offset >= len(entries) {
		return nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end]
}

func withPlaceholder(placeholder string, entries []entryWithID) []Entry {
	out := make([]Entry, 0, len(entries)+1)
	out = append(out, Entry{Label: placeholder, Value: ""})
	for _, e := range entries {
		out = append(out, e.Entry)
	}
	return out
}

func firstNonEmpty(obj crm.Object, fields []string) string {
	for _, f := range fields {
		if v := obj.Property(f); v != "" {
			return v
		}
	}
	return ""
}
