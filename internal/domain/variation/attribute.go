// Package variation holds the product variation model: attributes, the
// combination generator, the reconciler that merges regenerated combinations
// with existing variations, the bulk editor and the editing session that owns
// the working variation list.
package variation

import (
	"sort"
	"strings"
)

// Attribute is a named axis of product differentiation (e.g. Color).
// ID 0 denotes a custom attribute that has no store-defined option vocabulary.
type Attribute struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Position         int      `json:"position"`
	Visible          bool     `json:"visible"`
	UsedForVariation bool     `json:"variation"`
	Options          []string `json:"options"`
}

// IsCustom returns true for attributes that are local to the product
func (a Attribute) IsCustom() bool {
	return a.ID == 0
}

// usableOptions returns the options that can form a combination axis, in
// first-seen order. Blank options never become axis values and a repeated
// option contributes once.
func (a Attribute) usableOptions() []string {
	opts := make([]string, 0, len(a.Options))
	seen := make(map[string]struct{}, len(a.Options))
	for _, o := range a.Options {
		if strings.TrimSpace(o) == "" {
			continue
		}
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		opts = append(opts, o)
	}
	return opts
}

// AttributeOption is a single axis assignment of a variation.
// Equality is by exact (Name, Option) pair.
type AttributeOption struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}

// String renders the pair the way it appears inside a signature
func (p AttributeOption) String() string {
	return p.Name + ":" + p.Option
}

// Combination is one full assignment of exactly one option per contributing attribute
type Combination []AttributeOption

// Signature returns the combination's matching key
func (c Combination) Signature() string {
	return Signature(c)
}

// signatureSeparator joins the sorted name:option parts of a signature
const signatureSeparator = "|"

// Signature computes the sorted, pipe-joined "name:option" key for a set of pairs.
// Two assignments have the same signature iff they hold the same pairs.
func Signature(pairs []AttributeOption) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, signatureSeparator)
}

// cloneAttributes deep-copies an attribute list so sessions never share option slices
func cloneAttributes(attrs []Attribute) []Attribute {
	if attrs == nil {
		return nil
	}
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		out[i] = a
		if a.Options != nil {
			out[i].Options = append([]string(nil), a.Options...)
		}
	}
	return out
}
