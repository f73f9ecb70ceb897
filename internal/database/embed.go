package database

import "embed"

// Migrations holds the SQL schema migrations compiled into the binary.
//
//go:embed migrations/*.sql
var Migrations embed.FS
