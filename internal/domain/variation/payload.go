package variation

import "strings"

// SubmissionRecord is a variation flattened for the store's batch endpoint
type SubmissionRecord struct {
	ID            *int64            `json:"id,omitempty"`
	RegularPrice  string            `json:"regular_price"`
	SalePrice     string            `json:"sale_price"`
	SKU           string            `json:"sku"`
	StockStatus   StockStatus       `json:"stock_status,omitempty"`
	StockQuantity *int              `json:"stock_quantity,omitempty"`
	ManageStock   *bool             `json:"manage_stock,omitempty"`
	Image         *ImageRef         `json:"image,omitempty"`
	Attributes    []AttributeOption `json:"attributes"`
}

// IsEmpty reports whether the record defines no field at all
func (r SubmissionRecord) IsEmpty() bool {
	return r.ID == nil &&
		strings.TrimSpace(r.RegularPrice) == "" &&
		strings.TrimSpace(r.SalePrice) == "" &&
		strings.TrimSpace(r.SKU) == "" &&
		r.StockStatus == "" &&
		r.StockQuantity == nil &&
		r.ManageStock == nil &&
		r.Image == nil &&
		len(r.Attributes) == 0
}

// ToSubmission flattens the working list into submission records.
// Records without any defined field are left out.
func ToSubmission(list []Variation) []SubmissionRecord {
	records := make([]SubmissionRecord, 0, len(list))
	for _, v := range list {
		rec := toRecord(v.Clone())
		if rec.IsEmpty() {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func toRecord(v Variation) SubmissionRecord {
	attrs := v.Attributes
	if attrs == nil {
		attrs = []AttributeOption{}
	}
	rec := SubmissionRecord{
		ID:            v.ID,
		RegularPrice:  v.RegularPrice,
		SalePrice:     v.SalePrice,
		SKU:           v.SKU,
		StockStatus:   v.StockStatus,
		StockQuantity: v.StockQuantity,
		ManageStock:   v.ManageStock,
		Attributes:    attrs,
	}
	if v.Image != nil && (v.Image.ID != 0 || v.Image.Src != "") {
		rec.Image = v.Image
	}
	return rec
}

// SplitSubmission separates records for the batch endpoint's create and update lists
func SplitSubmission(records []SubmissionRecord) (create, update []SubmissionRecord) {
	for _, r := range records {
		if r.ID != nil {
			update = append(update, r)
		} else {
			create = append(create, r)
		}
	}
	return create, update
}
