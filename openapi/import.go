package openapi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/skemabridge/schema"
	"github.com/reoring/skemabridge/table"
)

const componentRefPrefix = "#/components/schemas/"

// Diag collects non-fatal findings of an import.
type Diag struct {
	Warnings []string
}

func (d *Diag) warnf(f string, a ...any) { d.Warnings = append(d.Warnings, fmt.Sprintf(f, a...)) }

// ImportFile reads an OpenAPI document (JSON or YAML) and imports its
// component schemas. See Import.
func ImportFile(path string) ([]schema.TableDef, *Diag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read openapi: %w", err)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		if data, err = yamlToJSON(data); err != nil {
			return nil, nil, err
		}
	}
	return Import(data)
}

// Import turns every object component schema of an OpenAPI 3.0 JSON
// document into a table definition, sorted by name. Local component $refs
// are resolved; system keys are dropped since the store assigns them.
func Import(data []byte) ([]schema.TableDef, *Diag, error) {
	var doc struct {
		Components struct {
			Schemas openapi3.Schemas `json:"schemas"`
		} `json:"components"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse openapi: %w", err)
	}
	comps := doc.Components.Schemas
	if len(comps) == 0 {
		return nil, nil, errors.New("parse openapi: no component schemas")
	}

	im := &importer{comps: comps, diag: &Diag{}, resolving: map[string]bool{}}
	names := make([]string, 0, len(comps))
	for name := range comps {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []schema.TableDef
	for _, name := range names {
		s := im.resolve(comps[name])
		if s == nil || (s.Type != openapi3.TypeObject && len(s.Properties) == 0) {
			im.diag.warnf("%s: not an object schema, skipped", name)
			continue
		}
		obj := im.object(name, s, true)
		out = append(out, schema.TableDef{Name: name, Schema: obj})
	}
	return out, im.diag, nil
}

// ImportSchema converts a single schema. $refs are left unresolved and
// import as Any.
func ImportSchema(s *openapi3.Schema) (*schema.Node, *Diag) {
	im := &importer{diag: &Diag{}, resolving: map[string]bool{}}
	return im.node("", s), im.diag
}

type importer struct {
	comps     openapi3.Schemas
	diag      *Diag
	resolving map[string]bool
}

func (im *importer) resolve(ref *openapi3.SchemaRef) *openapi3.Schema {
	if ref == nil {
		return nil
	}
	if ref.Ref == "" {
		return ref.Value
	}
	name := strings.TrimPrefix(ref.Ref, componentRefPrefix)
	target, ok := im.comps[name]
	if name == ref.Ref || !ok {
		im.diag.warnf("unresolved $ref %s", ref.Ref)
		return nil
	}
	if im.resolving[name] {
		im.diag.warnf("recursive $ref %s imported as any", ref.Ref)
		return nil
	}
	return im.resolve(target)
}

func (im *importer) ref(path string, ref *openapi3.SchemaRef) *schema.Node {
	name := ""
	if ref != nil && ref.Ref != "" {
		name = strings.TrimPrefix(ref.Ref, componentRefPrefix)
		im.resolving[name] = true
		defer delete(im.resolving, name)
	}
	return im.node(path, im.resolve(ref))
}

func (im *importer) node(path string, s *openapi3.Schema) *schema.Node {
	if s == nil {
		return schema.Any()
	}
	n := im.base(path, s)
	if s.Nullable {
		n = n.Nullable()
	}
	if s.Default != nil {
		n = n.Default(s.Default)
	}
	return n
}

func (im *importer) base(path string, s *openapi3.Schema) *schema.Node {
	if s.Not != nil {
		im.diag.warnf("%s: not is unsupported and ignored", path)
	}
	if len(s.Enum) > 0 {
		return schema.Enum(s.Enum...)
	}
	if len(s.AnyOf) > 0 || len(s.OneOf) > 0 {
		members := append(append(openapi3.SchemaRefs{}, s.AnyOf...), s.OneOf...)
		ms := make([]*schema.Node, len(members))
		for i, m := range members {
			ms[i] = im.ref(path, m)
		}
		return schema.Union(ms...)
	}
	if len(s.AllOf) > 0 {
		n := im.ref(path, s.AllOf[0])
		for _, m := range s.AllOf[1:] {
			n = schema.Intersection(n, im.ref(path, m))
		}
		return n
	}

	switch s.Type {
	case openapi3.TypeString:
		switch {
		case s.Format == "date-time":
			return schema.Date()
		case s.Format == "id" && strings.HasPrefix(s.Description, "id of "):
			return schema.Identifier(strings.TrimPrefix(s.Description, "id of "))
		}
		return schema.String()
	case openapi3.TypeInteger:
		if s.Format == "int64" {
			return schema.BigInt()
		}
		return schema.Number()
	case openapi3.TypeNumber:
		return schema.Number()
	case openapi3.TypeBoolean:
		return schema.Boolean()
	case openapi3.TypeArray:
		if s.Items == nil {
			return schema.Array(schema.Any())
		}
		return schema.Array(im.ref(path+"[]", s.Items))
	case openapi3.TypeObject, "":
		if len(s.Properties) > 0 {
			return im.object(path, s, false)
		}
		if s.AdditionalProperties.Schema != nil {
			return schema.Record(im.ref(path+"{}", s.AdditionalProperties.Schema))
		}
		if s.Type == openapi3.TypeObject {
			return schema.Record(schema.Any())
		}
		return schema.Any()
	}
	im.diag.warnf("%s: unsupported type %q imported as any", path, s.Type)
	return schema.Any()
}

// object imports properties in name order. Root objects drop system keys.
func (im *importer) object(path string, s *openapi3.Schema, root bool) *schema.Node {
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		if root && isSystemKey(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]schema.Field, len(names))
	for i, name := range names {
		n := im.ref(joinPath(path, name), s.Properties[name])
		if !required[name] {
			n = n.Optional()
		}
		fields[i] = schema.Field{Name: name, Node: n}
	}
	return schema.Object(fields...)
}

func isSystemKey(name string) bool {
	for _, k := range table.SystemKeys {
		if k == name {
			return true
		}
	}
	return false
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse openapi: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("parse openapi: %w", err)
	}
	return out, nil
}
