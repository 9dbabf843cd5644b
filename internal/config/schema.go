package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Companion-TheCube/todosync/internal/utils"
)

const schemaURL = "https://todosync.local/config.schema.json"

// Schema is the JSON Schema the resolved configuration must satisfy.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "todosync configuration",
  "type": "object",
  "required": ["project_root", "source_dir", "todo_file", "marker", "extensions", "decode"],
  "properties": {
    "project_root": {"type": "string", "minLength": 1},
    "source_dir": {"type": "string", "minLength": 1},
    "todo_file": {"type": "string", "minLength": 1},
    "log_dir": {"type": "string"},
    "title": {"type": "string", "pattern": "^[^\\r\\n]*$"},
    "marker": {"type": "string", "pattern": "^\\w+$"},
    "placeholder": {"type": "string", "minLength": 1, "pattern": "^[^\\r\\n]*$"},
    "extensions": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "pattern": "^\\.?[A-Za-z0-9_+-]+$"}
    },
    "ignore": {"type": ["array", "null"], "items": {"type": "string", "minLength": 1}},
    "decode": {"enum": ["drop", "replace"]},
    "journal": {"type": "boolean"},
    "watch_debounce_ms": {"type": "integer", "minimum": 0},
    "workers": {"type": "integer", "minimum": 1},
    "build_server": {"type": "string", "pattern": "^(https?://\\S+)?$"},
    "upload_url": {"type": "string", "pattern": "^(https?://\\S+)?$"},
    "offline": {"type": "boolean"},
    "log_level": {"enum": ["debug", "info", "warn", "warning", "error", "fatal"]},
    "log_format": {"enum": ["text", "json", "logfmt"]},
    "log_timestamps": {"type": "boolean"},
    "log_caller": {"type": "boolean"}
  }
}`

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // dotted path to the offending field
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid  bool
	Errors []error
}

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func configSchema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, strings.NewReader(Schema)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Validate checks cfg against the embedded schema.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{Valid: true}
	fail := func(err error) *ValidationResult {
		result.Valid = false
		result.Errors = append(result.Errors, err)
		return result
	}

	schema, err := configSchema()
	if err != nil {
		return fail(err)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fail(fmt.Errorf("marshal config: %w", err))
	}
	var obj interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fail(fmt.Errorf("unmarshal config: %w", err))
	}

	if err := schema.Validate(obj); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return fail(err)
		}
		collectSchemaValidationErrors(ve, result)
		if len(result.Errors) == 0 {
			return fail(err)
		}
		result.Valid = false
	}
	return result
}

// collectSchemaValidationErrors recursively collects leaf validation errors.
func collectSchemaValidationErrors(err *jsonschema.ValidationError, result *ValidationResult) {
	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: utils.JSONPointerToPath(err.InstanceLocation),
			Err:  errors.New(err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaValidationErrors(cause, result)
	}
}

// Err joins the validation errors, or returns nil when the config is valid.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("invalid config: %w", errors.Join(r.Errors...))
}
