package reconcile

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var aliasesYAML []byte

// Aliases is the versioned alias configuration for the external feed:
// per-field candidate key lists and per-product name spellings.
type Aliases struct {
	Fields   map[string][]string `yaml:"fields"`
	Products map[string][]string `yaml:"products"`
}

// Feed field names used throughout the aggregator and engine. They key
// into Aliases.Fields.
const (
	FieldStation            = "station"
	FieldProduct            = "product"
	FieldDate               = "date"
	FieldVolume             = "volume"
	FieldAmount             = "amount"
	FieldPrice              = "price"
	FieldAdminVolume        = "admin_volume"
	FieldAdminAmount        = "admin_amount"
	FieldShrinkVolume       = "shrink_volume"
	FieldShrinkAmount       = "shrink_amount"
	FieldShrinkFraction     = "shrink_fraction"
	FieldInitialInventory   = "initial_inventory"
	FieldPurchasesDocument  = "purchases_document"
	FieldPurchasesReception = "purchases_reception"
	FieldFinalInventory     = "final_inventory"
	FieldOils               = "oils"
)

// LoadAliases parses the embedded aliases.yaml.
func LoadAliases() (*Aliases, error) {
	a := &Aliases{}
	if err := yaml.Unmarshal(aliasesYAML, a); err != nil {
		return nil, eris.Wrap(err, "parse embedded aliases.yaml")
	}
	if len(a.Fields) == 0 || len(a.Products) == 0 {
		return nil, eris.New("aliases.yaml missing fields or products section")
	}
	return a, nil
}

// Keys returns the candidate key list for a field, empty when the field
// is unknown.
func (a *Aliases) Keys(field string) []string {
	return a.Fields[field]
}
