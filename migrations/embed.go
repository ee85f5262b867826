// Package migrations embeds the SQL migration files so they can be used
// by the goose programmatic API in tests and server bootstrap.
// Each supported dialect keeps its own directory.
package migrations

import (
	"embed"
	"io/fs"
)

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Postgres returns the migrations for the Postgres dialect.
func Postgres() fs.FS {
	return mustSub("postgres")
}

// SQLite returns the migrations for the SQLite dialect.
func SQLite() fs.FS {
	return mustSub("sqlite")
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(FS, dir)
	if err != nil {
		// Unreachable: dir is embedded above.
		panic("migrations: " + err.Error())
	}
	return sub
}
