// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.todosync/todosync.toml or OS-specific config directory)
// 3. Project config file (todosync.toml, .todosync.toml or .todosync/todosync.toml)
// 4. Environment variables (TODOSYNC_*, plus CUBECORE_OFFLINE)
// 5. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// User-level config locations:
// - ~/.todosync/todosync.toml (preferred)
// - Windows: %APPDATA%\todosync\todosync.toml
// - macOS: ~/Library/Application Support/todosync/todosync.toml
// - Linux/BSD: $XDG_CONFIG_HOME/todosync/todosync.toml or ~/.config/todosync/todosync.toml
//
// Project-level config files are looked up in the project root, which is
// the working directory unless -project or TODOSYNC_PROJECT_ROOT says otherwise.
package config
