package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// PropertyOption is one enumerated value of a property.
type PropertyOption struct {
	Label        string `json:"label"`
	Value        string `json:"value"`
	DisplayOrder int    `json:"displayOrder"`
}

// Property describes one custom property of an object schema.
type Property struct {
	Name        string           `json:"name"`
	Label       string           `json:"label"`
	Description string           `json:"description,omitempty"`
	GroupName   string           `json:"groupName"`
	Type        string           `json:"type"`
	FieldType   string           `json:"fieldType"`
	Options     []PropertyOption `json:"options,omitempty"`
}

// PropertyGroup describes a named group of properties.
type PropertyGroup struct {
	Name         string `json:"name"`
	Label        string `json:"label"`
	DisplayOrder int    `json:"displayOrder"`
}

// ListProperties returns every property currently defined on an object
// schema.
func (c *Client) ListProperties(ctx context.Context, objectType string) ([]Property, error) {
	path := fmt.Sprintf("/crm/v3/properties/%s", url.PathEscape(objectType))

	body, err := c.do(ctx, familyProperties, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(body)
	items := root.Get("results")
	if !items.Exists() {
		items = root.Get("data")
	}

	var out []Property
	items.ForEach(func(_, item gjson.Result) bool {
		out = append(out, Property{
			Name:      item.Get("name").String(),
			Label:     item.Get("label").String(),
			GroupName: item.Get("groupName").String(),
			Type:      item.Get("type").String(),
			FieldType: item.Get("fieldType").String(),
		})
		return true
	})
	return out, nil
}

// CreateProperty adds a property to an object schema. If the property
// already exists the CRM answers 409, which surfaces as a structured
// CONFLICT; reconciliation treats that as success.
func (c *Client) CreateProperty(ctx context.Context, objectType string, prop Property) error {
	path := fmt.Sprintf("/crm/v3/properties/%s", url.PathEscape(objectType))
	_, err := c.do(ctx, familyProperties, http.MethodPost, path, prop)
	return err
}

// DeleteProperty removes a property from an object schema. Used only by the
// write-access probe.
func (c *Client) DeleteProperty(ctx context.Context, objectType, name string) error {
	path := fmt.Sprintf("/crm/v3/properties/%s/%s", url.PathEscape(objectType), url.PathEscape(name))
	_, err := c.do(ctx, familyProperties, http.MethodDelete, path, nil)
	return err
}

// CreatePropertyGroup adds a property group to an object schema, with the
// same conflict semantics as CreateProperty.
func (c *Client) CreatePropertyGroup(ctx context.Context, objectType string, group PropertyGroup) error {
	path := fmt.Sprintf("/crm/v3/properties/%s/groups", url.PathEscape(objectType))
	_, err := c.do(ctx, familyProperties, http.MethodPost, path, group)
	return err
}
