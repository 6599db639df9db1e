package models

import (
	"encoding/json"
	"fmt"

	"github.com/stockwave/harmony/internal/domain/variation"
)

// VariationSessionModel is the persistence model for variation.Session.
// List-valued fields are stored as JSON documents.
type VariationSessionModel struct {
	AggregateModel
	ProductID      int64  `gorm:"not null;uniqueIndex"`
	ProductName    string `gorm:"type:varchar(255)"`
	IsNewProduct   bool   `gorm:"not null;default:false"`
	AttributesJSON string `gorm:"column:attributes;type:jsonb;not null"`
	DefaultsJSON   string `gorm:"column:defaults;type:jsonb;not null"`
	VariationsJSON string `gorm:"column:variations;type:jsonb;not null"`
	PersistedJSON  string `gorm:"column:persisted;type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (VariationSessionModel) TableName() string {
	return "variation_sessions"
}

// VariationSessionModelFromDomain converts a session to its persistence model
func VariationSessionModelFromDomain(s *variation.Session) (*VariationSessionModel, error) {
	m := &VariationSessionModel{
		ProductID:    s.ProductID,
		ProductName:  s.ProductName,
		IsNewProduct: s.IsNewProduct,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)

	docs := []struct {
		column string
		value  any
		dst    *string
	}{
		{"attributes", nonNil(s.Attributes), &m.AttributesJSON},
		{"defaults", s.Defaults, &m.DefaultsJSON},
		{"variations", nonNil(s.Variations), &m.VariationsJSON},
		{"persisted", nonNil(s.Persisted), &m.PersistedJSON},
	}
	for _, d := range docs {
		raw, err := json.Marshal(d.value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", d.column, err)
		}
		*d.dst = string(raw)
	}
	return m, nil
}

// ToDomain converts the model back to a session. Pending domain events are
// not persisted, so the restored session has none.
func (m *VariationSessionModel) ToDomain() (*variation.Session, error) {
	s := &variation.Session{
		BaseAggregateRoot: m.AggregateModel.ToDomain(),
		ProductID:         m.ProductID,
		ProductName:       m.ProductName,
		IsNewProduct:      m.IsNewProduct,
	}

	docs := []struct {
		column string
		raw    string
		dst    any
	}{
		{"attributes", m.AttributesJSON, &s.Attributes},
		{"defaults", m.DefaultsJSON, &s.Defaults},
		{"variations", m.VariationsJSON, &s.Variations},
		{"persisted", m.PersistedJSON, &s.Persisted},
	}
	for _, d := range docs {
		if d.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(d.raw), d.dst); err != nil {
			return nil, fmt.Errorf("decode %s of product %d: %w", d.column, m.ProductID, err)
		}
	}

	if s.Attributes == nil {
		s.Attributes = []variation.Attribute{}
	}
	if s.Variations == nil {
		s.Variations = []variation.Variation{}
	}
	if s.Persisted == nil {
		s.Persisted = []variation.Variation{}
	}
	return s, nil
}

// nonNil keeps empty lists encoded as [] rather than null
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
