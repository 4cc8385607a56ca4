// Package migrations holds the goose schema and seed migrations
package migrations

import "embed"

// FS is compiled into the binary so the API can migrate without the
// source tree
//
//go:embed *.sql
var FS embed.FS
