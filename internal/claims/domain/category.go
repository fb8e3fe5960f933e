package claims

import (
	"errors"
	"fmt"
)

// DamageCategory is the customer's classification of an issue.
type DamageCategory string

const (
	DamageScreen     DamageCategory = "screen"
	DamageBattery    DamageCategory = "battery"
	DamageWater      DamageCategory = "water"
	DamageLogicBoard DamageCategory = "logic_board"
	DamagePhysical   DamageCategory = "physical"
	DamageUnknown    DamageCategory = "unknown"
)

var damageLabels = map[DamageCategory]string{
	DamageScreen:     "Screen Damage",
	DamageBattery:    "Battery Issues",
	DamageWater:      "Water/Liquid Damage",
	DamageLogicBoard: "Logic Board / Internal",
	DamagePhysical:   "Physical Damage",
	DamageUnknown:    "Not Sure",
}

// DamageCategories returns every category in display order.
func DamageCategories() []DamageCategory {
	return []DamageCategory{DamageScreen, DamageBattery, DamageWater, DamageLogicBoard, DamagePhysical, DamageUnknown}
}

// Valid reports whether c is a known category.
func (c DamageCategory) Valid() bool {
	_, ok := damageLabels[c]
	return ok
}

// Label is the customer-facing name, used as the default description.
func (c DamageCategory) Label() string {
	return damageLabels[c]
}

// RepairType selects the local or mail-in workspace.
type RepairType string

const (
	RepairLocal  RepairType = "local"
	RepairMailIn RepairType = "mail_in"
)

// Valid reports whether t is a known repair type.
func (t RepairType) Valid() bool {
	return t == RepairLocal || t == RepairMailIn
}

// ErrIncompleteRoutes is returned for a routing table that misses a category.
var ErrIncompleteRoutes = errors.New("claims: routing table must cover every damage category")

// DefaultRoutes is the built-in routing table.
func DefaultRoutes() map[DamageCategory]RepairType {
	return map[DamageCategory]RepairType{
		DamageScreen:     RepairLocal,
		DamageBattery:    RepairLocal,
		DamagePhysical:   RepairLocal,
		DamageWater:      RepairMailIn,
		DamageLogicBoard: RepairMailIn,
		DamageUnknown:    RepairMailIn,
	}
}

// Router maps a damage category to its repair channel. A Router is total
// over DamageCategories.
type Router struct {
	routes map[DamageCategory]RepairType
}

// NewRouter validates table and builds a router. A nil table uses the
// defaults.
func NewRouter(table map[DamageCategory]RepairType) (*Router, error) {
	if table == nil {
		table = DefaultRoutes()
	}
	routes := make(map[DamageCategory]RepairType, len(table))
	for category, repair := range table {
		if !category.Valid() {
			return nil, fmt.Errorf("claims: unknown damage category %q in routing table", category)
		}
		if !repair.Valid() {
			return nil, fmt.Errorf("claims: unknown repair type %q for %s", repair, category)
		}
		routes[category] = repair
	}
	for _, category := range DamageCategories() {
		if _, ok := routes[category]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrIncompleteRoutes, category)
		}
	}
	return &Router{routes: routes}, nil
}

// DefaultRouter returns a router over DefaultRoutes.
func DefaultRouter() *Router {
	router, _ := NewRouter(nil)
	return router
}

// Route returns the repair channel for category. Unknown input is routed
// like DamageUnknown.
func (r *Router) Route(category DamageCategory) RepairType {
	if repair, ok := r.routes[category]; ok {
		return repair
	}
	return r.routes[DamageUnknown]
}

// Table returns a copy of the routing table.
func (r *Router) Table() map[DamageCategory]RepairType {
	out := make(map[DamageCategory]RepairType, len(r.routes))
	for category, repair := range r.routes {
		out[category] = repair
	}
	return out
}
