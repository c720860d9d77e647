// Package manifest loads and validates workflow manifests. A manifest is an
// immutable, ordered description of the tickets a workflow will process,
// written in YAML or TOML. It is loaded once per run and never mutated.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/foreman/internal/errors"
)

// Manifest describes one workflow: an ordered list of ticket specifications
// plus optional metadata used when generating session prompts.
type Manifest struct {
	// Name is the declared workflow name. Optional; Name() falls back to the
	// manifest file's stem.
	Name string `yaml:"name" toml:"name"`
	// Overview is free text prepended to generated prompts. Optional.
	Overview string `yaml:"overview" toml:"overview"`
	// Tickets is the ordered, non-empty list of work units.
	Tickets []TicketSpec `yaml:"tickets" toml:"tickets"`

	sourcePath string
}

// TicketSpec describes one unit of work. Owned by the Manifest and never
// mutated after load.
type TicketSpec struct {
	// ID uniquely identifies the ticket within the manifest.
	ID string `yaml:"id" toml:"id"`
	// Summary is a one-line description of the work.
	Summary string `yaml:"summary" toml:"summary"`
	// Requirements is an ordered list of acceptance criteria. Optional.
	Requirements []string `yaml:"requirements" toml:"requirements"`
	// WorkingDir is where sessions for this ticket run. Relative paths are
	// resolved against the manifest's directory. Optional.
	WorkingDir string `yaml:"working_dir" toml:"working_dir"`
	// Prompt overrides the generated worker prompt. Optional.
	Prompt string `yaml:"prompt" toml:"prompt"`
	// ReviewPrompt overrides the generated review prompt. Optional.
	ReviewPrompt string `yaml:"review_prompt" toml:"review_prompt"`
}

// Load reads and validates a workflow manifest. The deserialization format
// is selected by file extension: yaml/yml parse as YAML, toml/tml as TOML,
// and anything else tries YAML first, then TOML.
func Load(path string) (*Manifest, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewManifestError("failed to read workflow manifest", err).WithPath(path)
	}

	var m Manifest
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "yml", "yaml":
		if err := yaml.Unmarshal(contents, &m); err != nil {
			return nil, errors.NewManifestError("failed to parse manifest", err).WithPath(path)
		}
	case "toml", "tml":
		if err := toml.Unmarshal(contents, &m); err != nil {
			return nil, errors.NewManifestError("failed to parse manifest", err).WithPath(path)
		}
	default:
		if yamlErr := yaml.Unmarshal(contents, &m); yamlErr != nil {
			if tomlErr := toml.Unmarshal(contents, &m); tomlErr != nil {
				return nil, errors.NewManifestError("failed to parse manifest",
					errors.Join(errors.ErrUnparseableManifest, yamlErr, tomlErr)).WithPath(path)
			}
		}
	}

	m.sourcePath = path
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// validate enforces the load-time invariants: at least one ticket, and
// globally unique ticket ids. Violated manifests are rejected before any
// execution occurs.
func (m *Manifest) validate() error {
	if len(m.Tickets) == 0 {
		return errors.NewManifestError("invalid manifest", errors.ErrEmptyManifest).WithPath(m.sourcePath)
	}
	seen := make(map[string]struct{}, len(m.Tickets))
	for _, ticket := range m.Tickets {
		if _, dup := seen[ticket.ID]; dup {
			return errors.NewManifestError(fmt.Sprintf("ticket id %q appears more than once", ticket.ID),
				errors.ErrDuplicateTicketID).WithPath(m.sourcePath)
		}
		seen[ticket.ID] = struct{}{}
	}
	return nil
}

// WorkflowName returns the declared name, or the manifest file's stem when
// no name was declared.
func (m *Manifest) WorkflowName() string {
	if m.Name != "" {
		return m.Name
	}
	stem := strings.TrimSuffix(filepath.Base(m.sourcePath), filepath.Ext(m.sourcePath))
	if stem == "" || stem == "." {
		return "workflow"
	}
	return stem
}

// Dir returns the directory containing the manifest file. Relative ticket
// working directories and the default artifacts root are resolved against it.
func (m *Manifest) Dir() string {
	dir := filepath.Dir(m.sourcePath)
	if dir == "" {
		return "."
	}
	return dir
}

// ResolvedWorkingDir returns the directory sessions for this ticket run in:
// the ticket's working_dir if absolute, joined onto manifestDir if relative,
// or manifestDir itself when unset.
func (t *TicketSpec) ResolvedWorkingDir(manifestDir string) string {
	switch {
	case t.WorkingDir == "":
		return manifestDir
	case filepath.IsAbs(t.WorkingDir):
		return t.WorkingDir
	default:
		return filepath.Join(manifestDir, t.WorkingDir)
	}
}
