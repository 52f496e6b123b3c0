// Package configs embeds the configuration templates shipped with indexpanel.
//
// UserConfigTemplate is written by `indexpanel config init` to
// ~/.config/indexpanel/config.yaml. The loader in internal/config applies,
// in increasing precedence: defaults, the user config, the project
// .indexpanel.yaml, then INDEXPANEL_* environment variables.
package configs

import _ "embed"

// UserConfigTemplate is the commented template for the user config file.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
