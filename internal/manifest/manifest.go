// Package manifest reads YAML batch files listing the statements to
// process, in submission order.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/card-statement-extractor/internal/models"
)

// Manifest is the structure of a batch file:
//
//	documents:
//	  - statements/gennaio.pdf
//	  - ~/Downloads/febbraio.pdf
//	options:
//	  remove_duplicates: false
type Manifest struct {
	Documents []string        `yaml:"documents"`
	Options   OptionOverrides `yaml:"options"`

	dir string
}

// OptionOverrides replaces only the options that are set.
type OptionOverrides struct {
	RemoveDuplicates    *bool `yaml:"remove_duplicates"`
	SortByDate          *bool `yaml:"sort_by_date"`
	IncludeExtraColumns *bool `yaml:"include_extra_columns"`
}

// Apply returns base with the set overrides applied.
func (o OptionOverrides) Apply(base models.Options) models.Options {
	if o.RemoveDuplicates != nil {
		base.RemoveDuplicates = *o.RemoveDuplicates
	}
	if o.SortByDate != nil {
		base.SortByDate = *o.SortByDate
	}
	if o.IncludeExtraColumns != nil {
		base.IncludeExtraColumns = *o.IncludeExtraColumns
	}
	return base
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if len(m.Documents) == 0 {
		return nil, fmt.Errorf("manifest %s lists no documents", path)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// Paths returns the document paths in manifest order. "~/" is expanded and
// relative paths are resolved against the manifest's directory.
func (m *Manifest) Paths() ([]string, error) {
	out := make([]string, 0, len(m.Documents))
	for _, p := range m.Documents {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			p = filepath.Join(home, p[2:])
		} else if !filepath.IsAbs(p) {
			p = filepath.Join(m.dir, p)
		}
		out = append(out, p)
	}
	return out, nil
}
