// Package migrations embeds the SQL schema migrations applied by
// cmd/migrate and by AUTO_MIGRATE on API start.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
