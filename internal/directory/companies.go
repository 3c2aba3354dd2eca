package directory

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// resolveCompanies fills in the company name of each advertiser entry. Each
// entry costs one associations call plus one record fetch; all entries are
// resolved concurrently and awaited together. Resolution is best-effort: a
// failed lookup leaves the company blank and the listing intact.
func (s *Service) resolveCompanies(ctx context.Context, spec typeSpec, entries []entryWithID) {
	type resolved struct {
		index   int
		company string
	}

	results := make(chan resolved, len(entries))
	var wg sync.WaitGroup

	for i := range entries {
		wg.Add(1)
		go func(i int, advertiserID string) {
			defer wg.Done()
			results <- resolved{index: i, company: s.companyName(ctx, spec, advertiserID)}
		}(i, entries[i].Value)
	}

	wg.Wait()
	close(results)

	for r := range results {
		entries[r.index].Company = r.company
	}
}

func (s *Service) companyName(ctx context.Context, spec typeSpec, advertiserID string) string {
	assocs, err := s.store.GetAssociations(ctx, spec.objectType(s.objects), advertiserID, s.objects.Company)
	if err != nil {
		s.logger.Warn("company association lookup failed",
			zap.String("advertiser_id", advertiserID),
			zap.Error(err),
		)
		return ""
	}
	if len(assocs) == 0 {
		return ""
	}

	company, err := s.store.GetByID(ctx, s.objects.Company, assocs[0].ToObjectID, []string{"name"})
	if err != nil {
		s.logger.Warn("company fetch failed",
			zap.String("company_id", assocs[0].ToObjectID),
			zap.Error(err),
		)
		return ""
	}
	return company.Property("name")
}
