package variation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockwave/harmony/internal/domain/shared"
)

func colorSize() []Attribute {
	return []Attribute{
		{ID: 1, Name: "Color", UsedForVariation: true, Options: []string{"Red", "Blue"}},
		{ID: 2, Name: "Size", UsedForVariation: true, Options: []string{"S", "M", "L"}},
	}
}

func TestGenerateCombinations(t *testing.T) {
	t.Run("produces the full cartesian product in input order", func(t *testing.T) {
		combos := GenerateCombinations(colorSize())
		require.Len(t, combos, 6)

		assert.Equal(t, Combination{{"Color", "Red"}, {"Size", "S"}}, combos[0])
		assert.Equal(t, Combination{{"Color", "Red"}, {"Size", "M"}}, combos[1])
		assert.Equal(t, Combination{{"Color", "Blue"}, {"Size", "S"}}, combos[3])
		assert.Equal(t, Combination{{"Color", "Blue"}, {"Size", "L"}}, combos[5])

		seen := map[string]bool{}
		for _, c := range combos {
			seen[c.Signature()] = true
		}
		assert.Len(t, seen, 6)
	})

	t.Run("count is the product of option counts", func(t *testing.T) {
		attrs := []Attribute{
			{Name: "A", UsedForVariation: true, Options: []string{"1", "2"}},
			{Name: "B", UsedForVariation: true, Options: []string{"x", "y", "z"}},
			{Name: "C", UsedForVariation: true, Options: []string{"p", "q"}},
		}
		assert.Len(t, GenerateCombinations(attrs), 12)
		assert.Equal(t, 12, CountCombinations(attrs, 0))
	})

	t.Run("non-variation attributes never appear", func(t *testing.T) {
		attrs := append(colorSize(), Attribute{Name: "Material", UsedForVariation: false, Options: []string{"Cotton", "Wool"}})
		combos := GenerateCombinations(attrs)
		require.Len(t, combos, 6)
		for _, c := range combos {
			for _, p := range c {
				assert.NotEqual(t, "Material", p.Name)
			}
		}
	})

	t.Run("attribute without options is skipped", func(t *testing.T) {
		attrs := []Attribute{
			{Name: "Color", UsedForVariation: true, Options: []string{"Red", "Blue"}},
			{Name: "Empty", UsedForVariation: true, Options: nil},
			{Name: "Size", UsedForVariation: true, Options: []string{"S"}},
		}
		combos := GenerateCombinations(attrs)
		require.Len(t, combos, 2)
		assert.Equal(t, Combination{{"Color", "Red"}, {"Size", "S"}}, combos[0])
	})

	t.Run("blank options are skipped", func(t *testing.T) {
		attrs := []Attribute{
			{Name: "Color", UsedForVariation: true, Options: []string{"Red", "", "  ", "Blue"}},
		}
		combos := GenerateCombinations(attrs)
		require.Len(t, combos, 2)
		assert.Equal(t, "Blue", combos[1][0].Option)
	})

	t.Run("repeated options contribute once in first-seen order", func(t *testing.T) {
		attrs := []Attribute{
			{Name: "Color", UsedForVariation: true, Options: []string{"Red", "Red", "Blue", "Red"}},
			{Name: "Size", UsedForVariation: true, Options: []string{"S", "S"}},
		}
		combos := GenerateCombinations(attrs)
		require.Len(t, combos, 2)
		assert.Equal(t, Combination{{"Color", "Red"}, {"Size", "S"}}, combos[0])
		assert.Equal(t, Combination{{"Color", "Blue"}, {"Size", "S"}}, combos[1])
		assert.Equal(t, 2, CountCombinations(attrs, 0))
	})

	t.Run("no variation attributes yields empty result", func(t *testing.T) {
		combos := GenerateCombinations([]Attribute{{Name: "Color", Options: []string{"Red"}}})
		assert.NotNil(t, combos)
		assert.Empty(t, combos)

		combos = GenerateCombinations([]Attribute{{Name: "Color", UsedForVariation: true}})
		assert.Empty(t, combos)

		assert.Empty(t, GenerateCombinations(nil))
	})
}

func TestGenerator_Generate(t *testing.T) {
	t.Run("unbounded when ceiling is zero", func(t *testing.T) {
		combos, err := NewGenerator(0).Generate(colorSize())
		require.NoError(t, err)
		assert.Len(t, combos, 6)
	})

	t.Run("allows result equal to ceiling", func(t *testing.T) {
		combos, err := NewGenerator(6).Generate(colorSize())
		require.NoError(t, err)
		assert.Len(t, combos, 6)
	})

	t.Run("rejects result above ceiling without truncating", func(t *testing.T) {
		combos, err := NewGenerator(5).Generate(colorSize())
		require.Error(t, err)
		assert.Nil(t, combos)
		assert.True(t, errors.Is(err, ErrTooManyCombinations))

		domainErr, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "TOO_MANY_COMBINATIONS", domainErr.Code)
	})

	t.Run("count saturates above limit", func(t *testing.T) {
		attrs := make([]Attribute, 0, 10)
		for i := 0; i < 10; i++ {
			attrs = append(attrs, Attribute{Name: string(rune('A' + i)), UsedForVariation: true, Options: []string{"1", "2", "3", "4", "5"}})
		}
		assert.Equal(t, 101, CountCombinations(attrs, 100))
	})

	t.Run("negative ceiling means unbounded", func(t *testing.T) {
		assert.Equal(t, 0, NewGenerator(-3).MaxCombinations)
	})
}

func TestSignature(t *testing.T) {
	t.Run("is order independent", func(t *testing.T) {
		a := Signature([]AttributeOption{{"Size", "M"}, {"Color", "Red"}})
		b := Signature([]AttributeOption{{"Color", "Red"}, {"Size", "M"}})
		assert.Equal(t, a, b)
		assert.Equal(t, "Color:Red|Size:M", a)
	})

	t.Run("differs when any pair differs", func(t *testing.T) {
		a := Signature([]AttributeOption{{"Color", "Red"}, {"Size", "M"}})
		b := Signature([]AttributeOption{{"Color", "Red"}, {"Size", "L"}})
		assert.NotEqual(t, a, b)
	})

	t.Run("empty set has empty signature", func(t *testing.T) {
		assert.Equal(t, "", Signature(nil))
	})
}
