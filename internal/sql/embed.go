// Package sql embeds the warehouse migrations.
package sql

import "embed"

// Migrations holds the DDL files applied by `stclassify migrate`, run in
// filename order.
//
//go:embed migrations/*.sql
var Migrations embed.FS
