// Package db embeds the goose migrations of both databases.
package db

import "embed"

// Target names a database and its migration directory.
type Target string

const (
	TargetPayments Target = "payments"
	TargetUsers    Target = "users"
)

//go:embed migrations/payments/*.sql migrations/users/*.sql
var Migrations embed.FS

// Dir is the directory of t inside Migrations.
func (t Target) Dir() string {
	return "migrations/" + string(t)
}

func (t Target) Valid() bool {
	return t == TargetPayments || t == TargetUsers
}
