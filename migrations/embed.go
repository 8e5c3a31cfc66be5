// Package migrations embeds the goose SQL migrations so the binary does not
// depend on the working directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
