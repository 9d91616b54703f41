// Package appfs holds the files embedded in every binary: SQL migrations and templates.
package appfs

import "embed"

//go:embed migrations all:templates
var FS embed.FS
