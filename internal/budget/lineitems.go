package budget

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/latmedia/dealdesk/model"
)

var defaultTypes = []string{
	model.LineItemTypeInitial,
	model.LineItemTypeUpweight,
	model.LineItemTypeRebooking,
}

// Rules carries the deployment-configured option lists validation checks
// against. An empty Types list falls back to the compiled-in defaults; an
// empty Countries list accepts any non-empty country code.
type Rules struct {
	Countries []string
	Types     []string
}

func (r Rules) types() []string {
	if len(r.Types) == 0 {
		return defaultTypes
	}
	return r.Types
}

func (r Rules) validType(t string) bool {
	for _, v := range r.types() {
		if v == t {
			return true
		}
	}
	return false
}

func (r Rules) validCountry(c string) bool {
	if len(r.Countries) == 0 {
		return true
	}
	for _, v := range r.Countries {
		if v == c {
			return true
		}
	}
	return false
}

// Collection is the in-memory line-item set of one deal. Item ids are
// assigned by a counter seeded from the max existing id, so ids stay unique
// across load/save cycles even after deletions.
type Collection struct {
	items  []model.LineItem
	rules  Rules
	nextID int
}

// NewCollection wraps existing items, seeding the id counter past the
// largest id present.
func NewCollection(items []model.LineItem) *Collection {
	maxID := 0
	for _, item := range items {
		if item.ID > maxID {
			maxID = item.ID
		}
	}
	return &Collection{items: items, nextID: maxID + 1}
}

// WithRules sets the option lists later Add and Replace calls validate
// against.
func (c *Collection) WithRules(rules Rules) *Collection {
	c.rules = rules
	return c
}

// Decode rebuilds a collection from its persisted JSON form. An empty
// string is a valid empty collection; a previously saved blob with absent
// numeric fields decodes with those fields as 0.
func Decode(data string) (*Collection, error) {
	if data == "" {
		return NewCollection(nil), nil
	}
	var items []model.LineItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("budget: decode line items: %w", err)
	}
	return NewCollection(items), nil
}

// Encode serializes the collection as a JSON array for storage in the
// deal's text property.
func (c *Collection) Encode() (string, error) {
	if len(c.items) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(c.items)
	if err != nil {
		return "", fmt.Errorf("budget: encode line items: %w", err)
	}
	return string(data), nil
}

// Items returns the items in insertion order.
func (c *Collection) Items() []model.LineItem { return c.items }

// Len returns the number of items.
func (c *Collection) Len() int { return len(c.items) }

// Summary recomputes the campaign-level totals across the collection.
func (c *Collection) Summary() model.CampaignSummary {
	return ComputeCampaignSummary(c.items)
}

// Add validates the item, assigns it the next id, recomputes its derived
// totals and appends it. The input id is ignored.
func (c *Collection) Add(item model.LineItem) (model.LineItem, error) {
	if err := Validate(item, c.rules); err != nil {
		return model.LineItem{}, err
	}
	item.ID = c.nextID
	c.nextID++
	ApplyTotals(&item)
	c.items = append(c.items, item)
	return item, nil
}

// Replace swaps out the item with a matching id, revalidating and
// recomputing totals.
func (c *Collection) Replace(item model.LineItem) error {
	if err := Validate(item, c.rules); err != nil {
		return err
	}
	for i := range c.items {
		if c.items[i].ID == item.ID {
			ApplyTotals(&item)
			c.items[i] = item
			return nil
		}
	}
	return model.NewNotFoundError(fmt.Sprintf("line item %d not found", item.ID))
}

// Remove drops the item with the given id. Removing an unknown id is a
// no-op.
func (c *Collection) Remove(id int) {
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
}

// Validate checks an item before it enters the collection. All field
// problems are gathered into one validation error so the form can annotate
// every offending input at once; nothing is sent to the backend while any
// remain.
func Validate(item model.LineItem, rules Rules) error {
	var fields []model.FieldError

	if item.Name == "" {
		fields = append(fields, model.FieldError{Field: "name", Message: "Name is required"})
	}
	if item.Country == "" {
		fields = append(fields, model.FieldError{Field: "country", Message: "Country is required"})
	} else if !rules.validCountry(item.Country) {
		fields = append(fields, model.FieldError{Field: "country", Message: "Country is not a known option"})
	}
	if !rules.validType(item.Type) {
		fields = append(fields, model.FieldError{Field: "type", Message: "Type must be one of " + strings.Join(rules.types(), ", ")})
	}
	if item.Price < 0 {
		fields = append(fields, model.FieldError{Field: "price", Message: "Price must not be negative"})
	}
	if item.Billable < 0 {
		fields = append(fields, model.FieldError{Field: "billable", Message: "Billable must not be negative"})
	}
	if item.Bonus < 0 {
		fields = append(fields, model.FieldError{Field: "bonus", Message: "Bonus must not be negative"})
	}
	// Dates are YYYY-MM-DD, so string order is date order.
	if item.StartDate != "" && item.EndDate != "" && item.StartDate >= item.EndDate {
		fields = append(fields, model.FieldError{Field: "endDate", Message: "End date must be after start date"})
	}

	if len(fields) > 0 {
		return model.NewValidationError(fields)
	}
	return nil
}
