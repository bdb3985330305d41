package formwise

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

// ReadForm loads a form definition file. ".yaml" and ".yml" files are
// decoded as YAML, anything else as JSON.
func ReadForm(path string) (FormDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FormDefinition{}, fmt.Errorf("formwise: read form: %w", err)
	}
	form, err := DecodeForm(data, filepath.Ext(path))
	if err != nil {
		return FormDefinition{}, fmt.Errorf("formwise: decode form %s: %w", path, err)
	}
	return form, nil
}

// DecodeForm decodes a definition in the given format ("json", "yaml" or a
// file extension such as ".yml").
func DecodeForm(data []byte, format string) (FormDefinition, error) {
	var form FormDefinition
	var err error
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &form)
	case "", "json":
		err = sonic.Unmarshal(data, &form)
	default:
		return form, fmt.Errorf("formwise: unknown definition format %q", format)
	}
	return form, err
}
