package variation

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

// placeholderSKUPrefix prefixes generated and bulk-assigned SKUs
const placeholderSKUPrefix = "SC"

// SKUGenerator returns a placeholder SKU for a new variation
type SKUGenerator func() string

// RandomSKU returns "SC" followed by a random integer in [0, 9999]
func RandomSKU() string {
	return placeholderSKUPrefix + strconv.Itoa(rand.IntN(10000))
}

// ReconcileInput carries everything a reconciliation pass reads
type ReconcileInput struct {
	// Combinations in generator order
	Combinations []Combination
	// Previous is the working list before regeneration
	Previous []Variation
	// Persisted holds the variations last loaded from the store
	Persisted []Variation
	// Defaults seed new variations
	Defaults Defaults
	// PersistedProduct enables recovery from Persisted
	PersistedProduct bool
}

// RegenerationReport summarizes what a reconciliation pass did to the working list
type RegenerationReport struct {
	Combinations      int      `json:"combinations"`
	Kept              int      `json:"kept"`
	Created           int      `json:"created"`
	Recovered         int      `json:"recovered"`
	Dropped           int      `json:"dropped"`
	DroppedSignatures []string `json:"dropped_signatures"`
	Malformed         int      `json:"malformed"`
}

// Reconciler merges generated combinations with an existing variation list
type Reconciler struct {
	skuGen SKUGenerator
}

// NewReconciler creates a reconciler. A nil generator uses RandomSKU.
func NewReconciler(skuGen SKUGenerator) *Reconciler {
	if skuGen == nil {
		skuGen = RandomSKU
	}
	return &Reconciler{skuGen: skuGen}
}

// signatureIndex maps signatures to the first matchable variation carrying them
func signatureIndex(list []Variation) (map[string]Variation, int) {
	index := make(map[string]Variation, len(list))
	malformed := 0
	for _, v := range list {
		if !v.isMatchable() {
			malformed++
			continue
		}
		sig := v.Signature()
		if _, exists := index[sig]; exists {
			continue
		}
		index[sig] = v
	}
	return index, malformed
}

// Reconcile builds the new working list.
// Variations whose signature is still generated are carried over verbatim.
// Unmatched combinations become new variations seeded from Defaults, or, for a
// persisted product, are recovered from the persisted list by signature.
// Previous entries with no matching combination are dropped.
func (r *Reconciler) Reconcile(in ReconcileInput) ([]Variation, RegenerationReport) {
	previous, malformed := signatureIndex(in.Previous)

	var persisted map[string]Variation
	if in.PersistedProduct {
		persisted, _ = signatureIndex(in.Persisted)
	}

	report := RegenerationReport{
		Combinations:      len(in.Combinations),
		Malformed:         malformed,
		DroppedSignatures: []string{},
	}
	out := make([]Variation, 0, len(in.Combinations))
	generated := make(map[string]struct{}, len(in.Combinations))

	for _, c := range in.Combinations {
		sig := c.Signature()
		generated[sig] = struct{}{}

		if existing, ok := previous[sig]; ok {
			out = append(out, existing.Clone())
			report.Kept++
			continue
		}

		if !in.PersistedProduct {
			out = append(out, in.Defaults.newVariation(c))
			report.Created++
			continue
		}

		var v Variation
		if saved, ok := persisted[sig]; ok {
			v = saved.Clone()
			report.Recovered++
		} else {
			v = in.Defaults.newVariation(c)
			report.Created++
		}
		if strings.TrimSpace(v.SKU) == "" {
			v.SKU = r.skuGen()
		}
		out = append(out, v)
	}

	for _, v := range in.Previous {
		if !v.isMatchable() {
			continue
		}
		sig := v.Signature()
		if _, ok := generated[sig]; ok {
			continue
		}
		report.Dropped++
		report.DroppedSignatures = append(report.DroppedSignatures, sig)
	}

	return out, report
}
