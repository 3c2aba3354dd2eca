package schema

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/latmedia/dealdesk/internal/crm"
)

// ProbeResult reports whether the service can mutate the object schema.
type ProbeResult struct {
	WriteAccess bool   `json:"writeAccess"`
	Detail      string `json:"detail,omitempty"`
}

// ProbeWriteAccess verifies schema write access by creating a throwaway
// property and deleting it again. A failed cleanup is reported in the
// detail but does not negate write access; the leftover property is
// harmless and named so it is recognizable.
func (r *Reconciler) ProbeWriteAccess(ctx context.Context) ProbeResult {
	name := "dealdesk_probe_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	err := r.api.CreateProperty(ctx, r.objectType, probeProperty(name))
	if err != nil {
		r.logger.Warn("schema write probe failed",
			zap.String("object_type", r.objectType),
			zap.Error(err),
		)
		return ProbeResult{WriteAccess: false, Detail: err.Error()}
	}

	if err := r.api.DeleteProperty(ctx, r.objectType, name); err != nil {
		r.logger.Warn("schema probe cleanup failed",
			zap.String("object_type", r.objectType),
			zap.String("property", name),
			zap.Error(err),
		)
		return ProbeResult{WriteAccess: true, Detail: "probe property could not be removed: " + name}
	}

	return ProbeResult{WriteAccess: true}
}

func probeProperty(name string) crm.Property {
	return crm.Property{
		Name:        name,
		Label:       "Dealdesk Write Probe",
		Description: "Temporary property used to verify schema write access; safe to delete",
		GroupName:   PropertyGroupName,
		Type:        "string",
		FieldType:   "text",
	}
}
