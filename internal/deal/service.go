// Package deal implements the section load and save operations of a
// campaign deal. Every operation resolves to an OperationResult at this
// boundary; nothing below transport sees a raw error. Sections save and
// load independently against disjoint property sets, so there is no
// ordering or mutual exclusion across them.
package deal

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/latmedia/dealdesk/internal/config"
	"github.com/latmedia/dealdesk/internal/crm"
	"github.com/latmedia/dealdesk/internal/observability"
	"github.com/latmedia/dealdesk/internal/schema"
	"github.com/latmedia/dealdesk/internal/section"
	"github.com/latmedia/dealdesk/model"
)

// Store is the slice of the backing store adapter the deal operations use.
type Store interface {
	GetByID(ctx context.Context, objectType, id string, properties []string) (crm.Object, error)
	Update(ctx context.Context, objectType, id string, properties map[string]string) error
	GetAssociations(ctx context.Context, objectType, id, toObjectType string) ([]crm.Association, error)
	CreateAssociation(ctx context.Context, fromType, fromID, toType, toID string) error
}

// Service owns the deal section operations and the per-deal state machines.
type Service struct {
	store      Store
	reconciler *schema.Reconciler
	objects    config.ObjectsConfig
	options    config.OptionsConfig
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time

	mu    sync.Mutex
	deals map[string]*dealMachines
}

// dealMachines groups the section state machines of one deal. The line
// items machine snapshots the encoded JSON blob since the collection
// itself is not comparable.
type dealMachines struct {
	basicInfo       *section.Machine[model.BasicInfo]
	campaignDetails *section.Machine[model.CampaignDetails]
	lineItems       *section.Machine[string]
}

// NewService creates the deal operations service.
func NewService(store Store, reconciler *schema.Reconciler, objects config.ObjectsConfig, options config.OptionsConfig, logger *zap.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:      store,
		reconciler: reconciler,
		objects:    objects,
		options:    options,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
		deals:      make(map[string]*dealMachines),
	}
}

// machines returns the state machines of one deal, creating them on first
// access.
func (s *Service) machines(dealID string) *dealMachines {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.deals[dealID]
	if !ok {
		m = &dealMachines{
			basicInfo:       section.NewMachine[model.BasicInfo](model.SectionBasicInfo),
			campaignDetails: section.NewMachine[model.CampaignDetails](model.SectionCampaignDetails),
			lineItems:       section.NewMachine[string](model.SectionLineItems),
		}
		s.deals[dealID] = m
	}
	return m
}

// saveDate formats the current date the way the save-date properties store
// it.
func (s *Service) saveDate() string {
	return s.now().Format("2006-01-02")
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *Service) observe(sec model.Section, operation, status string) {
	s.metrics.ObserveSectionOperation(string(sec), operation, status)
}
