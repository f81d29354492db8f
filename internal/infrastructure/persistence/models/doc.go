// Package models holds the GORM row types for the DealerDesk tables and the
// conversions to and from the domain aggregates. Only the persistence package
// uses them; domain types stay free of ORM tags.
package models
