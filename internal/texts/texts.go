// Package texts holds the process-wide table of alert and guidance texts.
package texts

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Keys used by the alert evaluator.
const (
	KeyCreatinineFloor = "creatinine_floor"
	KeyBMIOver35       = "bmi_over_35"
	KeyBMI30To35       = "bmi_30_35"
	KeyDoseOver600     = "dose_over_600"
)

// GuidanceKeys are shown alongside the calculator but never raised as alerts.
var GuidanceKeys = []string{
	"under_80_guidance",
	"over_80_guidance",
	"over_80_precautions",
	"contraindications",
	"relative_contraindications",
	"habituell_creatinine",
}

//go:embed alert_texts.yaml
var embedded []byte

// Table is an immutable keyed set of multi-paragraph texts.
type Table struct {
	entries map[string][]string
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the embedded table, decoded on first use.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(bytes.NewReader(embedded))
		if err != nil {
			panic(fmt.Sprintf("texts: embedded table is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Load decodes a YAML table of key -> list of paragraphs.
func Load(r io.Reader) (*Table, error) {
	entries := make(map[string][]string)
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode text table: %w", err)
	}
	return &Table{entries: entries}, nil
}

// LoadFile reads a table from disk. An empty path yields the embedded table.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open text table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Compose joins the paragraphs stored under key. Missing or empty entries
// report false.
func (t *Table) Compose(key string) (string, bool) {
	lines := t.entries[key]
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

// Guidance returns the composed guidance texts that are present in the table.
func (t *Table) Guidance() map[string]string {
	out := make(map[string]string, len(GuidanceKeys))
	for _, key := range GuidanceKeys {
		if text, ok := t.Compose(key); ok {
			out[key] = text
		}
	}
	return out
}

// Keys lists every key in the table in sorted order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
