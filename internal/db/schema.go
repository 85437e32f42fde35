package db

import "gorm.io/gorm"

func EnsureSchema(d *gorm.DB, schema string) error {
	// SQLite (used in tests) has no schemas; gorm maps "schema.table" names
	// onto plain tables there, so the DDL is postgres-only.
	if d.Dialector.Name() != "postgres" {
		return nil
	}
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error
}
