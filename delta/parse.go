package delta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mschmiderer/mogenerator/schema/edge"
	"github.com/mschmiderer/mogenerator/schema/field"
)

// Parse decodes a delta specification that was already decoded into generic
// values: one operation object, or a list of them.
//
// Only a top-level value of the wrong shape fails the call. An element that
// cannot be parsed becomes a *Malformed operation in the returned batch, so
// the applier policy decides whether it aborts the batch.
func Parse(v any) (Batch, error) {
	if obj, ok := asObject(v); ok {
		return Batch{parseOp(0, obj)}, nil
	}
	list, ok := asList(v)
	if !ok {
		return nil, &ParseError{Index: -1, Message: fmt.Sprintf("expected an operation object or a list of them, got %s", typeName(v))}
	}
	b := make(Batch, 0, len(list))
	for i, elem := range list {
		obj, ok := asObject(elem)
		if !ok {
			b = append(b, &Malformed{Err: &ParseError{Index: i, Message: fmt.Sprintf("expected an operation object, got %s", typeName(elem))}})
			continue
		}
		b = append(b, parseOp(i, obj))
	}
	return b, nil
}

// ParseJSON decodes a JSON delta specification.
func ParseJSON(data []byte) (Batch, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Index: -1, Message: "invalid JSON", Err: err}
	}
	return Parse(v)
}

// ParseYAML decodes a YAML delta specification.
func ParseYAML(data []byte) (Batch, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, &ParseError{Index: -1, Message: "invalid YAML", Err: err}
	}
	return Parse(v)
}

// ParseFile reads a delta specification from a .json, .yaml or .yml file.
func ParseFile(path string) (Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mogenerator: read delta: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("mogenerator: unsupported delta file extension %q", ext)
	}
}

// parser reads the fields of one operation object. The first failure stops
// the operation.
type parser struct {
	index  int
	entity string
	err    *ParseError
}

func (p *parser) fail(path, format string, args ...any) {
	if p.err == nil {
		p.err = &ParseError{Index: p.index, Entity: p.entity, Field: path, Message: fmt.Sprintf(format, args...)}
	}
}

func (p *parser) wrap(path string, err error) {
	if p.err == nil {
		msg := err.Error()
		if _, rest, ok := strings.Cut(msg, ": "); ok {
			msg = rest
		}
		p.err = &ParseError{Index: p.index, Entity: p.entity, Field: path, Message: msg, Err: err}
	}
}

func parseOp(i int, obj map[string]any) Operation {
	p := &parser{index: i}
	kind, _ := obj["operation"].(string)
	p.entity, _ = obj["name"].(string)
	var op Operation
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindAddEntity:
		op = p.addEntity(obj)
	case KindExtendEntity:
		op = p.extendEntity(obj)
	case "":
		p.fail("operation", "missing operation")
	default:
		p.fail("operation", "unknown operation %q", kind)
	}
	if p.err != nil {
		return &Malformed{Op: kind, Err: p.err}
	}
	return op
}

func (p *parser) addEntity(obj map[string]any) *AddEntity {
	op := &AddEntity{
		Name:      p.str(obj, "name", "name", true),
		ClassName: p.str(obj, "className", "className", false),
	}
	op.Attributes = p.attributes(obj)
	op.Relationships = p.relationships(obj)
	p.each(obj, "subentities", func(path string, v any) {
		name, ok := v.(string)
		if !ok || name == "" {
			p.fail(path, "expected an entity name, got %s", typeName(v))
			return
		}
		op.Subentities = append(op.Subentities, name)
	})
	return op
}

func (p *parser) extendEntity(obj map[string]any) *ExtendEntity {
	op := &ExtendEntity{Name: p.str(obj, "name", "name", true)}
	for _, key := range []string{"className", "subentities"} {
		if _, ok := obj[key]; ok {
			p.fail(key, "not allowed on %q", KindExtendEntity)
		}
	}
	op.Attributes = p.attributes(obj)
	op.Relationships = p.relationships(obj)
	return op
}

func (p *parser) attributes(obj map[string]any) []AttributeSpec {
	var specs []AttributeSpec
	p.each(obj, "attributes", func(path string, v any) {
		entry, ok := asObject(v)
		if !ok {
			p.fail(path, "expected an attribute object, got %s", typeName(v))
			return
		}
		spec := AttributeSpec{
			Name:     p.str(entry, "name", path+".name", true),
			Optional: p.boolean(entry, "optional", path+".optional"),
			Indexed:  p.boolean(entry, "indexed", path+".indexed"),
		}
		if s := p.str(entry, "type", path+".type", true); s != "" {
			t, err := field.ParseType(s)
			if err != nil {
				p.wrap(path+".type", err)
			}
			spec.Type = t
		}
		specs = append(specs, spec)
	})
	return specs
}

func (p *parser) relationships(obj map[string]any) []RelationshipSpec {
	var specs []RelationshipSpec
	p.each(obj, "relationships", func(path string, v any) {
		entry, ok := asObject(v)
		if !ok {
			p.fail(path, "expected a relationship object, got %s", typeName(v))
			return
		}
		spec := RelationshipSpec{
			Name:        p.str(entry, "name", path+".name", true),
			Destination: p.str(entry, "destination", path+".destination", true),
			Inverse:     p.str(entry, "inverse", path+".inverse", false),
			MinCount:    p.count(entry, "minCount", path+".minCount"),
			MaxCount:    p.count(entry, "maxCount", path+".maxCount"),
			Optional:    p.boolean(entry, "optional", path+".optional"),
			Transient:   p.boolean(entry, "transient", path+".transient"),
		}
		if v, ok := entry["deleteRule"]; ok && v != nil {
			r, err := edge.ParseDeleteRule(p.str(entry, "deleteRule", path+".deleteRule", false))
			if err != nil {
				p.wrap(path+".deleteRule", err)
			}
			spec.DeleteRule = &r
		}
		if spec.MinCount != nil && spec.MaxCount != nil && *spec.MaxCount > 0 && *spec.MinCount > *spec.MaxCount {
			p.fail(path+".minCount", "minCount %d exceeds maxCount %d", *spec.MinCount, *spec.MaxCount)
		}
		specs = append(specs, spec)
	})
	return specs
}

// each calls fn for every element of the optional list under key.
func (p *parser) each(obj map[string]any, key string, fn func(path string, v any)) {
	v, ok := obj[key]
	if !ok || v == nil || p.err != nil {
		return
	}
	list, ok := asList(v)
	if !ok {
		p.fail(key, "expected a list, got %s", typeName(v))
		return
	}
	for i, elem := range list {
		if p.err != nil {
			return
		}
		fn(fmt.Sprintf("%s[%d]", key, i), elem)
	}
}

func (p *parser) str(obj map[string]any, key, path string, required bool) string {
	v, ok := obj[key]
	if !ok || v == nil {
		if required {
			p.fail(path, "missing required field")
		}
		return ""
	}
	s, ok := v.(string)
	if !ok {
		p.fail(path, "expected a string, got %s", typeName(v))
		return ""
	}
	if required && s == "" {
		p.fail(path, "must not be empty")
	}
	return s
}

func (p *parser) boolean(obj map[string]any, key, path string) bool {
	v, ok := obj[key]
	if !ok || v == nil {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		p.fail(path, "expected a boolean, got %s", typeName(v))
	}
	return b
}

func (p *parser) count(obj map[string]any, key, path string) *int {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	n, ok := toInt(v)
	switch {
	case !ok:
		p.fail(path, "expected an integer, got %v", v)
		return nil
	case n < 0:
		p.fail(path, "must not be negative, got %d", n)
		return nil
	}
	return &n
}

// toInt accepts the integer representations produced by the JSON and YAML
// decoders as well as Go integers.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), n >= math.MinInt && n <= math.MaxInt
	case uint:
		return int(n), n <= math.MaxInt
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), uint64(n) <= math.MaxInt
	case uint64:
		return int(n), n <= math.MaxInt
	case float64:
		return int(n), n == math.Trunc(n) && n >= math.MinInt && n < -math.MinInt
	case float32:
		return toInt(float64(n))
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return toInt(i)
	default:
		return 0, false
	}
}

func asObject(v any) (map[string]any, bool) {
	switch o := v.(type) {
	case map[string]any:
		return o, true
	case map[any]any:
		m := make(map[string]any, len(o))
		for k, v := range o {
			m[fmt.Sprint(k)] = v
		}
		return m, true
	default:
		return nil, false
	}
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []map[string]any:
		list := make([]any, len(l))
		for i := range l {
			list[i] = l[i]
		}
		return list, true
	case []string:
		list := make([]any, len(l))
		for i := range l {
			list[i] = l[i]
		}
		return list, true
	default:
		return nil, false
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any, map[any]any:
		return "object"
	case []any, []map[string]any, []string:
		return "list"
	}
	if _, ok := toInt(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
