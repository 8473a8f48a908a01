// Package configs embeds the built-in subject and rubric documents shipped
// with the binary. Domains may also load documents from explicit file paths
// at run time; the embedded set is the zero-setup default.
package configs

import "embed"

//go:embed svg text
var FS embed.FS
