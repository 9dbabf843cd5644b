// Package tododir provides constants and utilities for the .todosync directory structure.
package tododir

import "path/filepath"

const (
	// Dir is the name of the per-project state directory.
	Dir = ".todosync"

	// ConfigFile is the config file name inside Dir.
	ConfigFile = "todosync.toml"

	// SchemaFile is the config JSON Schema file name inside Dir.
	SchemaFile = "todosync.schema.json"
)

// DirPath returns the path to the .todosync directory within a project root.
func DirPath(projectRoot string) string {
	if projectRoot == "" {
		projectRoot = "."
	}
	return filepath.Join(projectRoot, Dir)
}

// ConfigPath returns the path to the config file within a project root.
func ConfigPath(projectRoot string) string {
	return filepath.Join(DirPath(projectRoot), ConfigFile)
}

// SchemaPath returns the path to the schema file within a project root.
func SchemaPath(projectRoot string) string {
	return filepath.Join(DirPath(projectRoot), SchemaFile)
}
