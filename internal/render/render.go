// Package render expands environment references in YAML configuration
// files before they are parsed. A config may use {{ env "KEY" }} and
// {{ envOr "KEY" "fallback" }}; referencing an unset variable without
// a fallback fails the render with the full list of missing keys.
package render

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"
)

// RenderFile reads path and expands its environment references.
func RenderFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return RenderBytes(path, raw)
}

// RenderBytes expands environment references in raw. name labels the
// source in error messages.
func RenderBytes(name string, raw []byte) ([]byte, error) {
	if strings.TrimSpace(name) == "" {
		name = "config"
	}
	missing := map[string]struct{}{}

	funcs := template.FuncMap{
		"env": func(key string) string {
			value, ok := os.LookupEnv(key)
			if !ok {
				missing[key] = struct{}{}
			}
			return value
		},
		"envOr": func(key, fallback string) string {
			if value, ok := os.LookupEnv(key); ok {
				return value
			}
			return fallback
		},
		"default": func(fallback, value string) string {
			if value == "" {
				return fallback
			}
			return value
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}

	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse config template: %w", err)
	}

	var buf bytes.Buffer
	execErr := tmpl.Execute(&buf, nil)
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for key := range missing {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("config references unset env vars: %s", strings.Join(keys, ", "))
	}
	if execErr != nil {
		return nil, fmt.Errorf("render config: %w", execErr)
	}
	return buf.Bytes(), nil
}
