// Package migrations embeds the queue and tracking schema for tooling and
// operational runbooks.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
