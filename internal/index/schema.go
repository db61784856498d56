// Package index records the symbols of generation runs in a SQLite database
// so that generated metadata can be searched without decoding blobs.
package index

// migrations run in order on every Open; each statement is idempotent
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		modules INTEGER NOT NULL,
		symbols INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS symbols (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		module TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		flags INTEGER NOT NULL,
		PRIMARY KEY (run_id, module, name)
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		module TEXT NOT NULL,
		owner TEXT NOT NULL,
		member_kind TEXT NOT NULL,
		selector TEXT NOT NULL,
		js_name TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS symbols_name ON symbols(name)`,
}

// Member kinds stored in members.member_kind
const (
	MemberInstance = "instance"
	MemberStatic   = "static"
	MemberProperty = "property"
)
