// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain stays free of ORM tags.
//
// All timestamps are stored as BIGINT milliseconds since the Unix epoch.
package models
