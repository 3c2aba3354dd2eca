package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// Association is a directed edge from one record to another.
type Association struct {
	ToObjectID string
	Type       string
}

// GetAssociations lists the edges from one record to records of the target
// object type.
func (c *Client) GetAssociations(ctx context.Context, objectType, id, toObjectType string) ([]Association, error) {
	path := fmt.Sprintf("/crm/v4/objects/%s/%s/associations/%s",
		url.PathEscape(objectType), url.PathEscape(id), url.PathEscape(toObjectType))

	body, err := c.do(ctx, familyAssociations, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return parseAssociations(body), nil
}

// CreateAssociation creates an edge between two records. 409 conflicts
// (edge already exists) surface as structured CONFLICT errors; callers on
// idempotent paths swallow them.
func (c *Client) CreateAssociation(ctx context.Context, fromType, fromID, toType, toID string) error {
	path := fmt.Sprintf("/crm/v4/objects/%s/%s/associations/default/%s/%s",
		url.PathEscape(fromType), url.PathEscape(fromID),
		url.PathEscape(toType), url.PathEscape(toID))

	_, err := c.do(ctx, familyAssociations, http.MethodPut, path, nil)
	return err
}

// parseAssociations normalizes the association list response. The target id
// appears as "toObjectId" on v4 and nested under "to.id" on older shapes.
func parseAssociations(body []byte) []Association {
	root := gjson.ParseBytes(body)

	items := root.Get("results")
	if !items.Exists() {
		items = root.Get("data")
	}

	var out []Association
	items.ForEach(func(_, item gjson.Result) bool {
		a := Association{}
		if id := item.Get("toObjectId"); id.Exists() {
			a.ToObjectID = id.String()
		} else if id := item.Get("to.id"); id.Exists() {
			a.ToObjectID = id.String()
		}
		if t := item.Get("associationTypes.0.label"); t.Exists() {
			a.Type = t.String()
		} else if t := item.Get("type"); t.Exists() {
			a.Type = t.String()
		}
		if a.ToObjectID != "" {
			out = append(out, a)
		}
		return true
	})
	return out
}
