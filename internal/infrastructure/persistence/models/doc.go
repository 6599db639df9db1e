// Package models contains GORM persistence models. They are separate from
// domain types so the domain stays free of ORM tags; each model converts
// with ToDomain and a FromDomain constructor.
package models
