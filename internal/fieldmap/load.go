package fieldmap

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of additional mapping tables.
type File struct {
	FormTypes []FormTypeRule                  `yaml:"form_types"`
	Forms     map[string]map[string]FieldSpec `yaml:"forms"`
}

// LoadFile reads a YAML mapping file and layers it over base.
func LoadFile(base *Mapper, path string) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "fieldmap: read mapping file")
	}
	return Parse(base, data)
}

// Parse decodes YAML mapping tables and layers them over base.
func Parse(base *Mapper, data []byte) (*Mapper, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "fieldmap: unmarshal mapping file")
	}
	for form, labels := range f.Forms {
		for label, spec := range labels {
			if spec.Kind != "" && !spec.Kind.Valid() {
				return nil, eris.Errorf("fieldmap: form %s label %q: unknown kind %q", form, label, spec.Kind)
			}
		}
	}
	return base.WithTables(f.FormTypes, f.Forms), nil
}
