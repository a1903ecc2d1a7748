package load

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/mschmiderer/mogenerator/schema"
)

// Format is the encoding of a model file.
type Format uint8

// Supported model file formats.
const (
	FormatJSON Format = iota + 1
	FormatYAML
	FormatMsgPack
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatMsgPack:
		return "msgpack"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// FormatOf returns the format matching the extension of path.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".msgpack", ".mpk":
		return FormatMsgPack, nil
	default:
		return 0, fmt.Errorf("load: unsupported model file extension %q", ext)
	}
}

// Decode decodes a model encoded in format f.
func Decode(data []byte, f Format) (*schema.Model, error) {
	s := &Schema{}
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, s)
	case FormatYAML:
		err = yaml.Unmarshal(data, s)
	case FormatMsgPack:
		err = msgpack.Unmarshal(data, s)
	default:
		return nil, fmt.Errorf("load: unsupported format %s", f)
	}
	if err != nil {
		return nil, fmt.Errorf("load: decode %s model: %w", f, err)
	}
	return s.Model()
}

// Encode encodes m in format f.
func Encode(m *schema.Model, f Format) ([]byte, error) {
	s := NewSchema(m)
	switch f {
	case FormatJSON:
		return json.MarshalIndent(s, "", "  ")
	case FormatYAML:
		return yaml.Marshal(s)
	case FormatMsgPack:
		return msgpack.Marshal(s)
	default:
		return nil, fmt.Errorf("load: unsupported format %s", f)
	}
}

// Load reads the model file at path. The format follows the file extension.
func Load(path string) (*schema.Model, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	m, err := Decode(data, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Save writes m to path in the format matching the file extension.
func Save(path string, m *schema.Model) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(m, f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
