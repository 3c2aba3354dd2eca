package crm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const familyOwners = "owners"

// Owner is a CRM user who can own records.
type Owner struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// DisplayName returns the owner's name, falling back to the email when no
// name is set.
func (o Owner) DisplayName() string {
	name := strings.TrimSpace(o.FirstName + " " + o.LastName)
	if name == "" {
		return o.Email
	}
	return name
}

// ListOwners fetches up to limit owners. The owners endpoint has its own
// response shape separate from the object APIs.
func (c *Client) ListOwners(ctx context.Context, limit int) ([]Owner, error) {
	path := fmt.Sprintf("/crm/v3/owners?limit=%d", limit)

	body, err := c.do(ctx, familyOwners, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(body)
	items := root.Get("results")
	if !items.Exists() {
		items = root.Get("data")
	}

	var out []Owner
	items.ForEach(func(_, item gjson.Result) bool {
		out = append(out, Owner{
			ID:        item.Get("id").String(),
			Email:     item.Get("email").String(),
			FirstName: item.Get("firstName").String(),
			LastName:  item.Get("lastName").String(),
		})
		return true
	})
	return out, nil
}
