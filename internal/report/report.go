// Package report serializes batch results for downstream reporting tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format is an output encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" or "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// FormatForPath picks the format from a file extension, defaulting to YAML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Write encodes v to w.
func Write(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json report: %w", err)
		}
		return nil
	case FormatYAML:
		data, err := yaml.MarshalWithOptions(v, yaml.Indent(2), yaml.IndentSequence(true))
		if err != nil {
			return fmt.Errorf("encoding yaml report: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing yaml report: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteFile encodes v to path in the format its extension implies.
func WriteFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}

	if err := Write(f, FormatForPath(path), v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
