package variation

import (
	"fmt"

	"github.com/stockwave/harmony/internal/domain/shared"
)

// Generator expands attributes into combinations.
// MaxCombinations caps the result size; zero leaves generation unbounded.
type Generator struct {
	MaxCombinations int
}

// NewGenerator creates a generator with the given ceiling
func NewGenerator(maxCombinations int) Generator {
	if maxCombinations < 0 {
		maxCombinations = 0
	}
	return Generator{MaxCombinations: maxCombinations}
}

// axis is a variation-flagged attribute with at least one usable option
type axis struct {
	name    string
	options []string
}

// variationAxes returns the attributes that contribute to the product, in input order
func variationAxes(attrs []Attribute) []axis {
	axes := make([]axis, 0, len(attrs))
	for _, a := range attrs {
		if !a.UsedForVariation {
			continue
		}
		opts := a.usableOptions()
		if len(opts) == 0 {
			continue
		}
		axes = append(axes, axis{name: a.Name, options: opts})
	}
	return axes
}

// CountCombinations returns the number of combinations attrs would produce
// without expanding them. The count saturates at limit+1 when limit > 0.
func CountCombinations(attrs []Attribute, limit int) int {
	axes := variationAxes(attrs)
	if len(axes) == 0 {
		return 0
	}
	total := 1
	for _, ax := range axes {
		total *= len(ax.options)
		if limit > 0 && total > limit {
			return limit + 1
		}
	}
	return total
}

// Generate returns the Cartesian product of the variation-flagged attributes.
// The first attribute varies slowest. An empty result means no variations are
// possible and is not an error.
func (g Generator) Generate(attrs []Attribute) ([]Combination, error) {
	if g.MaxCombinations > 0 {
		if n := CountCombinations(attrs, g.MaxCombinations); n > g.MaxCombinations {
			return nil, shared.WrapDomainError(
				"TOO_MANY_COMBINATIONS",
				fmt.Sprintf("Attributes produce more than %d combinations", g.MaxCombinations),
				ErrTooManyCombinations,
			)
		}
	}
	return expand(variationAxes(attrs)), nil
}

// GenerateCombinations expands attrs without a ceiling
func GenerateCombinations(attrs []Attribute) []Combination {
	return expand(variationAxes(attrs))
}

func expand(axes []axis) []Combination {
	if len(axes) == 0 {
		return []Combination{}
	}

	var result []Combination
	current := make(Combination, 0, len(axes))

	var walk func(depth int)
	walk = func(depth int) {
		if depth == len(axes) {
			result = append(result, append(Combination(nil), current...))
			return
		}
		ax := axes[depth]
		for _, opt := range ax.options {
			current = append(current, AttributeOption{Name: ax.name, Option: opt})
			walk(depth + 1)
			current = current[:len(current)-1]
		}
	}
	walk(0)

	return result
}
