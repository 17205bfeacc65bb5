// Package migrations embeds the SQL migrations of the local database, one
// directory per driver.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Drivers lists the database drivers that have migrations.
var Drivers = []string{"sqlite", "postgres"}

// For returns the migrations of driver.
func For(driver string) (fs.FS, error) {
	switch driver {
	case "sqlite", "postgres":
		return fs.Sub(files, driver)
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
}
