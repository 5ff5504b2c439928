// Package artifact is the artifact store: a text/byte writer rooted at
// an absolute directory that rejects path escape, creates parent
// directories on demand, and validates JSON values against a generated
// schema before writing. Writes are atomic (temp file, then rename).
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// ErrPathEscape is returned when a requested relative path would resolve
// outside the store's root.
var ErrPathEscape = errors.New("artifact: path escapes root")

// Store writes artifacts rooted at an absolute directory.
type Store struct {
	root string
}

// New constructs a Store rooted at root. root must be absolute.
func New(root string) (*Store, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("artifact: root must be absolute: %s", root)
	}
	return &Store{root: root}, nil
}

// resolve validates relPath and returns its absolute on-disk location.
// Absolute input paths, and any normalized path that escapes the root via
// a leading "../", are rejected.
func (s *Store) resolve(relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", fmt.Errorf("%w: absolute path %s", ErrPathEscape, relPath)
	}
	cleaned := filepath.Clean(relPath)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, relPath)
	}
	return filepath.Join(s.root, cleaned), nil
}

// WriteBytes writes data to relPath, creating parent directories on
// demand, atomically (temp file in the same directory, then rename).
func (s *Store) WriteBytes(relPath string, data []byte) error {
	abs, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".spryctl-artifact-*")
	if err != nil {
		return fmt.Errorf("artifact: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("artifact: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("artifact: close temp: %w", err)
	}
	_ = os.Chmod(tmpName, 0o644)

	if err := os.Rename(tmpName, abs); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("artifact: rename temp to %s: %w", abs, err)
	}
	return nil
}

// WriteText writes text as UTF-8 bytes to relPath.
func (s *Store) WriteText(relPath, text string) error {
	return s.WriteBytes(relPath, []byte(text))
}

// JSONOptions controls WriteJSON.
type JSONOptions struct {
	Indent        bool                                   // 2-space indentation when true
	SchemaFor     any                                     // if non-nil, value must validate against this type's generated schema
	OmitReplacer  func(path []string, value any) (any, bool) // return ok=false to drop a field
}

// WriteJSON marshals value (optionally filtered through a replacer and
// validated against a generated schema), then writes it to relPath.
func (s *Store) WriteJSON(relPath string, value any, opts JSONOptions) error {
	if opts.SchemaFor != nil {
		if err := validateAgainstSchema(opts.SchemaFor, value); err != nil {
			return fmt.Errorf("artifact: schema validation for %s: %w", relPath, err)
		}
	}

	filtered := value
	if opts.OmitReplacer != nil {
		filtered = applyReplacer(nil, value, opts.OmitReplacer)
	}

	var (
		data []byte
		err  error
	)
	if opts.Indent {
		data, err = json.MarshalIndent(filtered, "", "  ")
	} else {
		data, err = json.Marshal(filtered)
	}
	if err != nil {
		return fmt.Errorf("artifact: marshal json: %w", err)
	}

	return s.WriteBytes(relPath, data)
}

// validateAgainstSchema generates a JSON schema for schemaFor's type and
// confirms value's JSON decodes into a new instance of that type.
// Full keyword-level validation is out of scope; this catches the common
// case (value cannot be decoded as schemaFor's shape at all).
func validateAgainstSchema(schemaFor any, value any) error {
	reflector := &jsonschema.Reflector{}
	schema := reflector.Reflect(schemaFor)
	if schema == nil {
		return fmt.Errorf("could not generate schema for %T", schemaFor)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	target := newInstance(schemaFor)
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("value does not match schema shape: %w", err)
	}
	return nil
}

func newInstance(schemaFor any) any {
	return reflect.New(reflect.TypeOf(schemaFor)).Interface()
}

// applyReplacer walks value recursively, dropping any map field for which
// replace returns ok=false.
func applyReplacer(path []string, value any, replace func([]string, any) (any, bool)) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, fv := range v {
			childPath := append(append([]string{}, path...), k)
			if rv, ok := replace(childPath, fv); ok {
				out[k] = applyReplacer(childPath, rv, replace)
			}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, iv := range v {
			out[i] = applyReplacer(path, iv, replace)
		}
		return out
	default:
		return v
	}
}
