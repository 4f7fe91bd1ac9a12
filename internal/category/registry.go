// Package category owns the set of valid category names per transaction
// kind, their display-icon tags, and the fallback resolution rule that
// every read site shares.
package category

import (
	"errors"
	"strings"
	"sync"

	"budget/internal/core"
)

var (
	ErrEmptyName = errors.New("empty category name")
	ErrDuplicate = errors.New("category already exists")
	ErrNotCustom = errors.New("not a custom category")
)

// DefaultIcon is the icon tag used when no explicit mapping exists.
const DefaultIcon = "coffee"

// Built-in categories, fixed at initialization, in declaration order.
// Reports iterate categories in this order.
var (
	defaultIncome  = []string{"Salary", "Side Income", "Bonus", "Investment", core.FallbackCategory}
	defaultExpense = []string{"Food", "Transport", "Utilities", "Rent", "Entertainment", "Clothing", "Medical", "Miscellaneous", core.FallbackCategory}
)

// Static icon table for the built-in categories.
var builtinIcons = map[string]string{
	"Food":                 "utensils",
	"Transport":            "car",
	"Utilities":            "home",
	"Rent":                 "home",
	"Entertainment":        "gamepad",
	"Clothing":             "shopping-cart",
	"Medical":              "heart",
	"Miscellaneous":        "shopping-cart",
	"Salary":               "briefcase",
	"Side Income":          "briefcase",
	"Bonus":                "gift",
	"Investment":           "trending-up",
	core.FallbackCategory: "coffee",
}

// CustomSets carries the user-added category state in its persisted shape.
type CustomSets struct {
	Income  []string          `json:"income"`
	Expense []string          `json:"expense"`
	Icons   map[string]string `json:"icons,omitempty"`
}

// Registry is the authority on which category names are valid for a kind.
// Defaults are immutable; custom names are kept in insertion order.
type Registry struct {
	mu      sync.Mutex
	customs map[core.Kind][]string
	icons   map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		customs: map[core.Kind][]string{core.Income: {}, core.Expense: {}},
		icons:   map[string]string{},
	}
}

// Defaults returns the built-in categories for a kind, in declaration order.
func Defaults(kind core.Kind) []string {
	switch kind {
	case core.Income:
		return append([]string(nil), defaultIncome...)
	case core.Expense:
		return append([]string(nil), defaultExpense...)
	default:
		return nil
	}
}

// All returns every valid category for a kind: defaults in declaration
// order, then custom names in insertion order.
func (r *Registry) All(kind core.Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(Defaults(kind), r.customs[kind]...)
}

// AddCustom registers a user-defined category name with an optional icon
// tag. The name is trimmed first; empty names and names already present in
// the combined set for that kind are rejected. Whether the same name exists
// under the other kind is deliberately not checked.
func (r *Registry) AddCustom(kind core.Kind, name, icon string) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range append(Defaults(kind), r.customs[kind]...) {
		if existing == name {
			return ErrDuplicate
		}
	}
	r.customs[kind] = append(r.customs[kind], name)
	if icon = strings.TrimSpace(icon); icon != "" {
		r.icons[name] = icon
	}
	return nil
}

// DeleteCustom removes a custom category name and its icon mapping. A name
// that is not a registered custom category (built-ins included) is reported
// as ErrNotCustom so the caller knows nothing was removed and can skip the
// ledger cascade.
func (r *Registry) DeleteCustom(kind core.Kind, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.customs[kind] {
		if existing == name {
			r.customs[kind] = append(r.customs[kind][:i], r.customs[kind][i+1:]...)
			delete(r.icons, name)
			return nil
		}
	}
	return ErrNotCustom
}

// Resolve maps a category reference to a known category for the kind,
// falling back to the reserved fallback for anything unknown. This is the
// single place the fallback rule lives.
func (r *Registry) Resolve(kind core.Kind, name string) string {
	name = strings.TrimSpace(name)
	for _, existing := range r.All(kind) {
		if existing == name {
			return name
		}
	}
	return core.FallbackCategory
}

// IconFor returns the icon tag for a category: the built-in table first,
// then the custom icon map, then the default.
func (r *Registry) IconFor(name string) string {
	if icon, ok := builtinIcons[name]; ok {
		return icon
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if icon, ok := r.icons[name]; ok {
		return icon
	}
	return DefaultIcon
}

// Snapshot returns the custom state in its persisted shape.
func (r *Registry) Snapshot() CustomSets {
	r.mu.Lock()
	defer r.mu.Unlock()

	icons := make(map[string]string, len(r.icons))
	for k, v := range r.icons {
		icons[k] = v
	}
	return CustomSets{
		Income:  append([]string(nil), r.customs[core.Income]...),
		Expense: append([]string(nil), r.customs[core.Expense]...),
		Icons:   icons,
	}
}

// Restore replaces the custom state wholesale.
func (r *Registry) Restore(s CustomSets) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.customs[core.Income] = append([]string(nil), s.Income...)
	r.customs[core.Expense] = append([]string(nil), s.Expense...)
	r.icons = make(map[string]string, len(s.Icons))
	for k, v := range s.Icons {
		r.icons[k] = v
	}
}
