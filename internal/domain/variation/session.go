package variation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockwave/harmony/internal/domain/shared"
)

// AggregateTypeSession is the aggregate type for variation editing sessions
const AggregateTypeSession = "VariationSession"

// Session is the editing session of one product's variations.
// Variations is the working list; Persisted is what the store last returned.
// Writes are last-write-wins: the whole session is saved on every change.
type Session struct {
	shared.BaseAggregateRoot
	ProductID    int64       `json:"product_id"`
	ProductName  string      `json:"product_name"`
	IsNewProduct bool        `json:"is_new_product"`
	Attributes   []Attribute `json:"attributes"`
	Defaults     Defaults    `json:"defaults"`
	Variations   []Variation `json:"variations"`
	Persisted    []Variation `json:"persisted"`
}

// NewSession creates a session for a product. persisted is the variation list
// loaded from the store and also seeds the working list.
func NewSession(productID int64, productName string, attrs []Attribute, defaults Defaults, persisted []Variation) (*Session, error) {
	if productID < 0 {
		return nil, shared.NewDomainError("INVALID_PRODUCT_ID", "Product ID cannot be negative")
	}
	if persisted == nil {
		persisted = []Variation{}
	}
	s := &Session{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		ProductName:       strings.TrimSpace(productName),
		IsNewProduct:      productID == 0,
		Attributes:        cloneAttributes(attrs),
		Defaults:          defaults,
		Variations:        CloneVariations(persisted),
		Persisted:         CloneVariations(persisted),
	}
	if s.Attributes == nil {
		s.Attributes = []Attribute{}
	}
	s.Record(NewSessionOpenedEvent(s))
	return s, nil
}

// SetAttributes replaces the attribute list. The working list is untouched
// until the next Regenerate.
func (s *Session) SetAttributes(attrs []Attribute) error {
	seen := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return shared.NewDomainError("INVALID_ATTRIBUTE", "Attribute name cannot be empty")
		}
		if _, dup := seen[name]; dup {
			return shared.NewDomainError("DUPLICATE_ATTRIBUTE", "Attribute names must be unique: "+name)
		}
		seen[name] = struct{}{}
	}
	s.Attributes = cloneAttributes(attrs)
	if s.Attributes == nil {
		s.Attributes = []Attribute{}
	}
	s.Touch()
	return nil
}

// SetDefaults replaces the values new variations are seeded with
func (s *Session) SetDefaults(d Defaults) {
	s.Defaults = d
	s.Touch()
}

// Regenerate expands the attributes and reconciles the result with the working list
func (s *Session) Regenerate(gen Generator, rec *Reconciler) (RegenerationReport, error) {
	combos, err := gen.Generate(s.Attributes)
	if err != nil {
		return RegenerationReport{}, err
	}
	list, report := rec.Reconcile(ReconcileInput{
		Combinations:     combos,
		Previous:         s.Variations,
		Persisted:        s.Persisted,
		Defaults:         s.Defaults,
		PersistedProduct: !s.IsNewProduct,
	})
	s.Variations = list
	s.Touch()
	s.Record(NewVariationsGeneratedEvent(s, report))
	return report, nil
}

// ApplyBulk applies a bulk action to the whole working list
func (s *Session) ApplyBulk(action BulkAction, params BulkParams) error {
	list, err := ApplyBulkAction(s.Variations, action, params)
	if err != nil {
		return err
	}
	s.Variations = list
	s.Touch()
	s.Record(NewVariationsBulkEditedEvent(s, action, len(list)))
	return nil
}

// UpdateVariation applies a per-field edit to the variation at index
func (s *Session) UpdateVariation(index int, patch Patch) error {
	list, err := UpdateAt(s.Variations, index, patch)
	if err != nil {
		return err
	}
	s.Variations = list
	s.Touch()
	return nil
}

// RemoveVariation deletes the variation at index from the working list
func (s *Session) RemoveVariation(index int) (Variation, error) {
	list, removed, err := RemoveAt(s.Variations, index)
	if err != nil {
		return Variation{}, err
	}
	s.Variations = list
	s.Touch()
	return removed, nil
}

// AssignImage records an uploaded image on the variation at index
func (s *Session) AssignImage(index int, img ImageRef) error {
	list, err := AssignImage(s.Variations, index, img)
	if err != nil {
		return err
	}
	s.Variations = list
	s.Touch()
	return nil
}

// Variation returns a copy of the variation at index
func (s *Session) Variation(index int) (Variation, error) {
	if err := checkIndex(s.Variations, index); err != nil {
		return Variation{}, err
	}
	return s.Variations[index].Clone(), nil
}

// Submission flattens the working list for the store
func (s *Session) Submission() []SubmissionRecord {
	return ToSubmission(s.Variations)
}

// RemovedPersistedIDs returns ids of persisted variations no longer in the
// working list. Persisted variations without attribute pairs, such as "any
// option" variations, never take part in matching and are left in the store.
func (s *Session) RemovedPersistedIDs() []int64 {
	live := make(map[int64]struct{}, len(s.Variations))
	for _, v := range s.Variations {
		if v.ID != nil {
			live[*v.ID] = struct{}{}
		}
	}
	var ids []int64
	for _, v := range s.Persisted {
		if v.ID == nil || !v.isMatchable() {
			continue
		}
		if _, ok := live[*v.ID]; !ok {
			ids = append(ids, *v.ID)
		}
	}
	return ids
}

// MarkSubmitted replaces both lists with what the store saved
func (s *Session) MarkSubmitted(saved []Variation) {
	if saved == nil {
		saved = []Variation{}
	}
	s.Persisted = CloneVariations(saved)
	s.Variations = CloneVariations(saved)
	s.Touch()
	s.Record(NewVariationsSubmittedEvent(s, len(saved)))
}

// PriceRange is the span of regular prices across the working list
type PriceRange struct {
	Min   decimal.Decimal
	Max   decimal.Decimal
	Count int
}

// IsEmpty returns true if no variation carries a parseable regular price
func (r PriceRange) IsEmpty() bool {
	return r.Count == 0
}

// PriceRange computes the regular price range. Blank and non-numeric prices are ignored.
func (s *Session) PriceRange() PriceRange {
	return ComputePriceRange(s.Variations)
}

// ComputePriceRange computes the regular price range of list
func ComputePriceRange(list []Variation) PriceRange {
	var r PriceRange
	for _, v := range list {
		price, ok := v.RegularPriceDecimal()
		if !ok {
			continue
		}
		if r.Count == 0 || price.LessThan(r.Min) {
			r.Min = price
		}
		if r.Count == 0 || price.GreaterThan(r.Max) {
			r.Max = price
		}
		r.Count++
	}
	return r
}
