package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// Object is a single CRM record with its requested properties. Property
// values are strings at the wire level; callers parse what they need.
type Object struct {
	ID         string
	Properties map[string]string
}

// Property returns a property value, or "" when absent.
func (o Object) Property(name string) string {
	return o.Properties[name]
}

// Filter is a single property filter of a search request.
type Filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value,omitempty"`
}

// Sort orders search results by a property.
type Sort struct {
	PropertyName string `json:"propertyName"`
	Direction    string `json:"direction"`
}

// SearchRequest describes a search against one object type.
type SearchRequest struct {
	Query      string   `json:"query,omitempty"`
	Filters    []Filter `json:"filters,omitempty"`
	Sorts      []Sort   `json:"sorts,omitempty"`
	Properties []string `json:"properties,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	After      int      `json:"after,omitempty"`
}

// SearchResult is the normalized outcome of a search call.
type SearchResult struct {
	Objects []Object
	Total   int
}

// GetByID fetches one record with the named properties.
func (c *Client) GetByID(ctx context.Context, objectType, id string, properties []string) (Object, error) {
	path := fmt.Sprintf("/crm/v3/objects/%s/%s", url.PathEscape(objectType), url.PathEscape(id))
	if len(properties) > 0 {
		path += "?properties=" + url.QueryEscape(strings.Join(properties, ","))
	}

	body, err := c.do(ctx, familyObjects, http.MethodGet, path, nil)
	if err != nil {
		return Object{}, err
	}
	return parseObject(gjson.ParseBytes(body)), nil
}

// Update writes the given properties onto one record.
func (c *Client) Update(ctx context.Context, objectType, id string, properties map[string]string) error {
	path := fmt.Sprintf("/crm/v3/objects/%s/%s", url.PathEscape(objectType), url.PathEscape(id))
	payload := map[string]any{"properties": properties}

	_, err := c.do(ctx, familyObjects, http.MethodPatch, path, payload)
	return err
}

// Search runs a filtered search against one object type.
func (c *Client) Search(ctx context.Context, objectType string, req SearchRequest) (SearchResult, error) {
	path := fmt.Sprintf("/crm/v3/objects/%s/search", url.PathEscape(objectType))

	// The filters endpoint expects filter groups.
	payload := map[string]any{
		"properties": req.Properties,
		"limit":      req.Limit,
		"after":      req.After,
	}
	if req.Query != "" {
		payload["query"] = req.Query
	}
	if len(req.Filters) > 0 {
		payload["filterGroups"] = []map[string]any{{"filters": req.Filters}}
	}
	if len(req.Sorts) > 0 {
		payload["sorts"] = req.Sorts
	}

	body, err := c.do(ctx, familySearch, http.MethodPost, path, payload)
	if err != nil {
		return SearchResult{}, err
	}
	return parseSearchResult(body), nil
}

// parseSearchResult normalizes the several response nestings the CRM uses
// for result lists: "results", "data", or a bare top-level array.
func parseSearchResult(body []byte) SearchResult {
	root := gjson.ParseBytes(body)

	items := root.Get("results")
	if !items.Exists() {
		items = root.Get("data")
	}
	if !items.Exists() && root.IsArray() {
		items = root
	}

	var out SearchResult
	items.ForEach(func(_, item gjson.Result) bool {
		out.Objects = append(out.Objects, parseObject(item))
		return true
	})

	if total := root.Get("total"); total.Exists() {
		out.Total = int(total.Int())
	} else {
		out.Total = len(out.Objects)
	}
	return out
}

// parseObject normalizes one record: the id may appear as "id" or
// "objectId", and properties may be nested under "properties" or flat on
// the record itself.
func parseObject(item gjson.Result) Object {
	obj := Object{Properties: make(map[string]string)}

	if id := item.Get("id"); id.Exists() {
		obj.ID = id.String()
	} else if id := item.Get("objectId"); id.Exists() {
		obj.ID = id.String()
	}

	props := item.Get("properties")
	if !props.Exists() {
		props = item
	}
	props.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.JSON {
			return true // Skip nested structures.
		}
		if value.Type == gjson.Null {
			return true
		}
		obj.Properties[key.String()] = value.String()
		return true
	})

	return obj
}
