// Package models contains the GORM models of the local database tables.
// Domain types in internal/domain/local carry no ORM tags; each model maps
// to and from its domain type with ToDomain and FromDomain.
package models
