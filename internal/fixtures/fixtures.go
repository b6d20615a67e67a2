// Package fixtures reads test data files referenced by feature steps.
package fixtures

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrKeyNotFound is returned when the requested top-level key is absent.
var ErrKeyNotFound = errors.New("fixture key not found")

// Load decodes file (JSON or YAML) under dir into v. When key is non-empty only
// the value stored under that top-level key is decoded. Placeholders inside
// scalar values are expanded after parsing, see Expand, so substituted text
// never needs escaping. In YAML a placeholder must sit in a quoted or plain
// scalar, not stand bare where "{" would open a flow mapping.
func Load(dir, file, key string, v any) error {
	return LoadWithVars(dir, file, key, v, nil)
}

// LoadWithVars is Load with extra placeholder values.
func LoadWithVars(dir, file, key string, v any, vars map[string]string) error {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, file)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading fixture: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parsing fixture %s: %w", file, err)
	}
	expandNode(&root, vars, time.Now())

	target := &root
	if key != "" {
		target = lookupKey(&root, key)
		if target == nil {
			return fmt.Errorf("%w: %q in %s", ErrKeyNotFound, key, file)
		}
	}
	if target.Kind == 0 {
		return nil
	}
	if err := target.Decode(v); err != nil {
		if key == "" {
			return fmt.Errorf("decoding fixture %s: %w", file, err)
		}
		return fmt.Errorf("decoding fixture %s[%s]: %w", file, key, err)
	}
	return nil
}

// lookupKey returns the value under a top-level mapping key, or nil.
func lookupKey(root *yaml.Node, key string) *yaml.Node {
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == key {
			return doc.Content[i+1]
		}
	}
	return nil
}
