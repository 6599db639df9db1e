package variation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSubmission(t *testing.T) {
	t.Run("flattens defined fields only", func(t *testing.T) {
		list := []Variation{
			{
				ID:            int64Ptr(7),
				Attributes:    pairs("Color", "Red"),
				RegularPrice:  "10",
				SKU:           "SC7",
				StockStatus:   StockStatusInStock,
				StockQuantity: intPtr(0),
				ManageStock:   boolPtr(true),
				Image:         &ImageRef{ID: 12},
			},
			{Attributes: pairs("Color", "Blue"), RegularPrice: "11"},
		}
		records := ToSubmission(list)
		require.Len(t, records, 2)

		raw, err := json.Marshal(records[0])
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"id": 7,
			"regular_price": "10",
			"sale_price": "",
			"sku": "SC7",
			"stock_status": "instock",
			"stock_quantity": 0,
			"manage_stock": true,
			"image": {"id": 12},
			"attributes": [{"name": "Color", "option": "Red"}]
		}`, string(raw))

		raw, err = json.Marshal(records[1])
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"regular_price": "11",
			"sale_price": "",
			"sku": "",
			"attributes": [{"name": "Color", "option": "Blue"}]
		}`, string(raw))
	})

	t.Run("missing attributes become an empty array", func(t *testing.T) {
		records := ToSubmission([]Variation{{ID: int64Ptr(3)}})
		require.Len(t, records, 1)
		raw, err := json.Marshal(records[0])
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"attributes":[]`)
	})

	t.Run("records with nothing defined are dropped", func(t *testing.T) {
		records := ToSubmission([]Variation{{}, {Image: &ImageRef{}}, {SKU: "X"}})
		require.Len(t, records, 1)
		assert.Equal(t, "X", records[0].SKU)
	})

	t.Run("split separates create and update", func(t *testing.T) {
		records := ToSubmission([]Variation{{ID: int64Ptr(1), SKU: "A"}, {SKU: "B"}})
		create, update := SplitSubmission(records)
		require.Len(t, create, 1)
		require.Len(t, update, 1)
		assert.Equal(t, "B", create[0].SKU)
		assert.Equal(t, "A", update[0].SKU)
	})
}
