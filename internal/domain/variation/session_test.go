package variation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	t.Run("existing product seeds working list from persisted", func(t *testing.T) {
		persisted := []Variation{{ID: int64Ptr(1), SKU: "A", Attributes: pairs("Color", "Red")}}
		s, err := NewSession(10, " Shirt ", colorSize(), Defaults{}, persisted)
		require.NoError(t, err)

		assert.Equal(t, int64(10), s.ProductID)
		assert.Equal(t, "Shirt", s.ProductName)
		assert.False(t, s.IsNewProduct)
		assert.Equal(t, persisted, s.Variations)
		assert.Equal(t, persisted, s.Persisted)
		assert.Equal(t, 1, s.Version)
		assert.NotEmpty(t, s.ID)

		events := s.PendingEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeSessionOpened, events[0].EventType())
	})

	t.Run("product id zero is a new product", func(t *testing.T) {
		s, err := NewSession(0, "Draft", nil, Defaults{}, nil)
		require.NoError(t, err)
		assert.True(t, s.IsNewProduct)
		assert.NotNil(t, s.Variations)
		assert.NotNil(t, s.Attributes)
	})

	t.Run("negative product id fails", func(t *testing.T) {
		_, err := NewSession(-1, "x", nil, Defaults{}, nil)
		assert.Error(t, err)
	})
}

func TestSession_Regenerate(t *testing.T) {
	gen := NewGenerator(0)
	rec := NewReconciler(fixedSKU("SC5"))

	t.Run("keeps edits across attribute changes", func(t *testing.T) {
		s, err := NewSession(0, "Shirt", colorSize(), Defaults{RegularPrice: "20"}, nil)
		require.NoError(t, err)

		report, err := s.Regenerate(gen, rec)
		require.NoError(t, err)
		assert.Equal(t, 6, report.Created)
		require.Len(t, s.Variations, 6)

		require.NoError(t, s.UpdateVariation(0, Patch{SKU: strPtr("RED-S")}))

		attrs := colorSize()
		attrs[0].Options = []string{"Red"}
		require.NoError(t, s.SetAttributes(attrs))
		report, err = s.Regenerate(gen, rec)
		require.NoError(t, err)

		assert.Len(t, s.Variations, 3)
		assert.Equal(t, "RED-S", s.Variations[0].SKU)
		assert.Equal(t, 3, report.Kept)
		assert.Equal(t, 3, report.Dropped)
	})

	t.Run("ceiling error leaves the list alone", func(t *testing.T) {
		s, err := NewSession(0, "Shirt", colorSize(), Defaults{}, nil)
		require.NoError(t, err)
		_, err = s.Regenerate(NewGenerator(2), rec)
		assert.True(t, errors.Is(err, ErrTooManyCombinations))
		assert.Empty(t, s.Variations)
	})

	t.Run("repeated options never duplicate a signature", func(t *testing.T) {
		persisted := []Variation{{ID: int64Ptr(410), SKU: "R", Attributes: pairs("Color", "Red")}}
		s, err := NewSession(12, "Shirt", nil, Defaults{}, persisted)
		require.NoError(t, err)
		require.NoError(t, s.SetAttributes([]Attribute{
			{Name: "Color", UsedForVariation: true, Options: []string{"Red", "Red", "Blue"}},
		}))

		_, err = s.Regenerate(gen, rec)
		require.NoError(t, err)
		require.Len(t, s.Variations, 2)

		signatures := map[string]int{}
		ids := 0
		for _, v := range s.Variations {
			signatures[v.Signature()]++
			if v.ID != nil && *v.ID == 410 {
				ids++
			}
		}
		assert.Equal(t, map[string]int{"Color:Red": 1, "Color:Blue": 1}, signatures)
		assert.Equal(t, 1, ids)
	})

	t.Run("existing product recovers persisted variations", func(t *testing.T) {
		persisted := []Variation{{ID: int64Ptr(300), SKU: "P", Attributes: pairs("Color", "Blue", "Size", "M")}}
		s, err := NewSession(12, "Shirt", colorSize(), Defaults{}, persisted)
		require.NoError(t, err)
		s.Variations = []Variation{}

		report, err := s.Regenerate(gen, rec)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Recovered)
		assert.Equal(t, int64(300), *s.Variations[4].ID)
	})
}

func TestSession_SetAttributes(t *testing.T) {
	s, err := NewSession(1, "x", nil, Defaults{}, nil)
	require.NoError(t, err)

	err = s.SetAttributes([]Attribute{{Name: ""}})
	assert.Error(t, err)

	err = s.SetAttributes([]Attribute{{Name: "Color"}, {Name: "Color"}})
	assert.Error(t, err)

	require.NoError(t, s.SetAttributes(colorSize()))
	assert.Equal(t, 2, s.Version)
}

func TestSession_RemovedPersistedIDs(t *testing.T) {
	persisted := []Variation{
		{ID: int64Ptr(1), Attributes: pairs("Color", "Red")},
		{ID: int64Ptr(2), Attributes: pairs("Color", "Blue")},
	}
	s, err := NewSession(5, "x", nil, Defaults{}, persisted)
	require.NoError(t, err)

	_, err = s.RemoveVariation(0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, s.RemovedPersistedIDs())

	s.MarkSubmitted([]Variation{{ID: int64Ptr(2), Attributes: pairs("Color", "Blue")}})
	assert.Empty(t, s.RemovedPersistedIDs())
	assert.Len(t, s.Persisted, 1)
}

func TestSession_RemovedPersistedIDs_AnyOption(t *testing.T) {
	persisted := []Variation{
		{ID: int64Ptr(1), Attributes: pairs("Color", "Red")},
		{ID: int64Ptr(2), Attributes: pairs("Color", "Blue")},
		{ID: int64Ptr(3), SKU: "ANY"},
	}
	s, err := NewSession(5, "x", nil, Defaults{}, persisted)
	require.NoError(t, err)
	require.NoError(t, s.SetAttributes([]Attribute{
		{Name: "Color", UsedForVariation: true, Options: []string{"Red"}},
	}))

	report, err := s.Regenerate(NewGenerator(0), NewReconciler(fixedSKU("SC1")))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Malformed)
	require.Len(t, s.Variations, 1)

	assert.Equal(t, []int64{2}, s.RemovedPersistedIDs())
}

func TestSession_PriceRange(t *testing.T) {
	s, err := NewSession(5, "x", nil, Defaults{}, []Variation{
		{RegularPrice: "15.50", Attributes: pairs("Color", "Red")},
		{RegularPrice: "", Attributes: pairs("Color", "Blue")},
		{RegularPrice: "abc", Attributes: pairs("Color", "Green")},
		{RegularPrice: "9", Attributes: pairs("Color", "Black")},
	})
	require.NoError(t, err)

	r := s.PriceRange()
	assert.Equal(t, 2, r.Count)
	assert.True(t, r.Min.Equal(decimal.NewFromInt(9)))
	assert.True(t, r.Max.Equal(decimal.RequireFromString("15.50")))

	empty := ComputePriceRange(nil)
	assert.True(t, empty.IsEmpty())
}

func strPtr(s string) *string {
	return &s
}
