package schema

import (
	"context"

	"go.uber.org/zap"

	"github.com/latmedia/dealdesk/internal/crm"
	"github.com/latmedia/dealdesk/model"
)

// API is the slice of the backing store adapter that reconciliation needs.
type API interface {
	ListProperties(ctx context.Context, objectType string) ([]crm.Property, error)
	CreateProperty(ctx context.Context, objectType string, prop crm.Property) error
	CreatePropertyGroup(ctx context.Context, objectType string, group crm.PropertyGroup) error
	DeleteProperty(ctx context.Context, objectType, name string) error
}

// CheckResult reports which required properties the schema already has.
type CheckResult struct {
	AllExist bool     `json:"allExist"`
	Missing  []string `json:"missing"`
	Existing []string `json:"existing"`
}

// Reconciler checks and repairs the custom property schema of one object
// type.
type Reconciler struct {
	api        API
	objectType string
	logger     *zap.Logger
}

// NewReconciler creates a reconciler for the given object type.
func NewReconciler(api API, objectType string, logger *zap.Logger) *Reconciler {
	return &Reconciler{api: api, objectType: objectType, logger: logger}
}

// CheckPropertiesExist queries the schema and partitions the required
// property names into existing and missing.
func (r *Reconciler) CheckPropertiesExist(ctx context.Context, required []crm.Property) (CheckResult, error) {
	props, err := r.api.ListProperties(ctx, r.objectType)
	if err != nil {
		return CheckResult{}, err
	}

	present := make(map[string]bool, len(props))
	for _, p := range props {
		present[p.Name] = true
	}

	result := CheckResult{Missing: []string{}, Existing: []string{}}
	for _, p := range required {
		if present[p.Name] {
			result.Existing = append(result.Existing, p.Name)
		} else {
			result.Missing = append(result.Missing, p.Name)
		}
	}
	result.AllExist = len(result.Missing) == 0
	return result, nil
}

// CreateMissingProperties brings the schema up to the required definition
// table. When everything already exists it issues no create calls. The
// property group is created before any property; "already exists" conflicts
// from either step are logged and treated as success, any other error is
// fatal and propagated to the caller.
func (r *Reconciler) CreateMissingProperties(ctx context.Context, required []crm.Property) (CheckResult, error) {
	check, err := r.CheckPropertiesExist(ctx, required)
	if err != nil {
		return CheckResult{}, err
	}
	if check.AllExist {
		return check, nil
	}

	if err := r.api.CreatePropertyGroup(ctx, r.objectType, Group); err != nil {
		if !model.IsConflict(err) {
			return CheckResult{}, err
		}
		r.logger.Info("property group already exists",
			zap.String("object_type", r.objectType),
			zap.String("group", Group.Name),
		)
	}

	missing := make(map[string]bool, len(check.Missing))
	for _, name := range check.Missing {
		missing[name] = true
	}

	for _, prop := range required {
		if !missing[prop.Name] {
			continue
		}
		if err := r.api.CreateProperty(ctx, r.objectType, prop); err != nil {
			if !model.IsConflict(err) {
				return CheckResult{}, err
			}
			r.logger.Info("property already exists",
				zap.String("object_type", r.objectType),
				zap.String("property", prop.Name),
			)
			continue
		}
		r.logger.Info("property created",
			zap.String("object_type", r.objectType),
			zap.String("property", prop.Name),
		)
	}

	return r.CheckPropertiesExist(ctx, required)
}
