// Package migrations compiles the SQL migration files into the binary
// so hjemmed can migrate its schema without shipping the files
// separately.
package migrations

import (
	"embed"

	"github.com/hjemme/hjemme-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	// Migration files sit at the root of the embedded FS.
	database.MigrationsDir = "."
}
