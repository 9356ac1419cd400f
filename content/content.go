// Package content embeds the default post catalog used when no content
// directory is configured.
package content

import "embed"

//go:embed categories.yaml posts/*.md
var FS embed.FS
