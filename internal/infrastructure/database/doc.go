// Package database opens and manages the hjemme-core SQLite database.
//
// The connection runs in WAL mode with a busy timeout, pinned to a
// single pooled connection so the session pragmas apply to every query.
// All tables are STRICT and all queries use parameterised statements.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive-only: new columns are nullable or carry a
// DEFAULT, columns are never dropped or renamed, and every migration
// ships an .up.sql and a .down.sql.
package database
