// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain layer carries no ORM
// tags. Each model has ToDomain and FromDomain mappers; repositories only
// ever hand domain types to callers.
package models
