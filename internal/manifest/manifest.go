// Package manifest reads the YAML file listing the morph column families
// a database is expected to carry.
//
//	morphs:
//	  - table: attachments
//	    name: attachable
//	  - table: notes
//	    name: notable
//	    id_type: uuid
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/helixml/multimorph"
)

// ErrInvalid is returned when a manifest fails validation.
var ErrInvalid = errors.New("invalid manifest")

// Entry describes one morph column family on one table.
type Entry struct {
	Table      string `yaml:"table"`
	Name       string `yaml:"name"`
	IDType     string `yaml:"id_type,omitempty"`
	TypeColumn string `yaml:"type_column,omitempty"`
	IDColumn   string `yaml:"id_column,omitempty"`
}

// Columns returns the derived column triple for the entry.
func (e Entry) Columns() multimorph.Columns {
	return multimorph.Morphs(e.Name, e.TypeColumn, e.IDColumn)
}

// Options converts the entry's overrides to relationship options. idType is
// used when the entry does not set its own.
func (e Entry) Options(idType string) []multimorph.Option {
	if e.IDType != "" {
		idType = e.IDType
	}
	return []multimorph.Option{
		multimorph.WithTypeColumn(e.TypeColumn),
		multimorph.WithIDColumn(e.IDColumn),
		multimorph.WithIDColumnType(idType),
	}
}

func (e Entry) String() string {
	return e.Table + "." + e.Name
}

// Manifest is the parsed manifest file.
type Manifest struct {
	Morphs []Entry `yaml:"morphs"`
}

// Load reads and validates the manifest at path.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a manifest. Unknown keys are rejected.
func Parse(data []byte) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Validate checks every entry names a table and a morph name, and that no
// family is listed twice.
func (m Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Morphs))
	for i, e := range m.Morphs {
		if e.Table == "" {
			return fmt.Errorf("%w: entry %d has no table", ErrInvalid, i)
		}
		if e.Name == "" {
			return fmt.Errorf("%w: entry %d has no name", ErrInvalid, i)
		}
		if seen[e.String()] {
			return fmt.Errorf("%w: %s listed twice", ErrInvalid, e)
		}
		seen[e.String()] = true
	}
	return nil
}

// Marshal encodes the manifest as YAML.
func (m Manifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}
