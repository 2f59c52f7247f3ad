package schema

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TableDef is one named object schema read from a YAML definition file.
type TableDef struct {
	Name   string
	Schema *Node
}

// LoadTablesFile reads YAML table definitions from path. See LoadTables.
func LoadTablesFile(path string) ([]TableDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	return LoadTables(data)
}

// LoadTables decodes YAML table definitions. Field order is preserved as
// written:
//
//	tables:
//	  - name: profiles
//	    fields:
//	      name:   {type: string}
//	      age:    {type: number, optional: true}
//	      joined: {type: date}
//	      owner:  {type: id, collection: users}
func LoadTables(data []byte) ([]TableDef, error) {
	var doc struct {
		Tables []struct {
			Name   string    `yaml:"name"`
			Fields yaml.Node `yaml:"fields"`
		} `yaml:"tables"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	out := make([]TableDef, 0, len(doc.Tables))
	for _, t := range doc.Tables {
		if t.Name == "" {
			return nil, errors.New("parse tables: table without name")
		}
		fields, err := decodeFields(&t.Fields)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.Name, err)
		}
		out = append(out, TableDef{Name: t.Name, Schema: Object(fields...)})
	}
	return out, nil
}

type nodeDef struct {
	Type          string      `yaml:"type"`
	Optional      bool        `yaml:"optional"`
	Nullable      bool        `yaml:"nullable"`
	Default       *yaml.Node  `yaml:"default"`
	Value         any         `yaml:"value"`
	Values        []any       `yaml:"values"`
	Element       *yaml.Node  `yaml:"element"`
	Fields        yaml.Node   `yaml:"fields"`
	Members       []yaml.Node `yaml:"members"`
	Items         []yaml.Node `yaml:"items"`
	Left          *yaml.Node  `yaml:"left"`
	Right         *yaml.Node  `yaml:"right"`
	Discriminator string      `yaml:"discriminator"`
	Collection    string      `yaml:"collection"`
}

func decodeFields(mapping *yaml.Node) ([]Field, error) {
	if mapping.Kind == 0 {
		return nil, nil
	}
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: fields must be a mapping", mapping.Line)
	}
	fields := make([]Field, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		name := mapping.Content[i].Value
		n, err := decodeNode(mapping.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Node: n})
	}
	return fields, nil
}

func decodeNodes(list []yaml.Node) ([]*Node, error) {
	out := make([]*Node, 0, len(list))
	for i := range list {
		n, err := decodeNode(&list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func decodeNode(y *yaml.Node) (*Node, error) {
	if y == nil {
		return nil, errors.New("missing schema")
	}
	// shorthand: `name: string`
	if y.Kind == yaml.ScalarNode {
		return decodeNode(&yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "type"}, y,
		}})
	}
	var d nodeDef
	if err := y.Decode(&d); err != nil {
		return nil, err
	}
	n, err := decodeBase(&d, y.Line)
	if err != nil {
		return nil, err
	}
	if d.Nullable {
		n = Nullable(n)
	}
	if d.Default != nil {
		var dv any
		if err := d.Default.Decode(&dv); err != nil {
			return nil, err
		}
		n = Default(n, dv)
	}
	if d.Optional {
		n = Optional(n)
	}
	return n, nil
}

func decodeBase(d *nodeDef, line int) (*Node, error) {
	switch d.Type {
	case "string":
		return String(), nil
	case "number":
		return Number(), nil
	case "bigint":
		return BigInt(), nil
	case "boolean", "bool":
		return Boolean(), nil
	case "date":
		return Date(), nil
	case "null":
		return Null(), nil
	case "any":
		return Any(), nil
	case "literal":
		return Literal(d.Value), nil
	case "enum":
		return Enum(d.Values...), nil
	case "id":
		if d.Collection == "" {
			return nil, fmt.Errorf("line %d: id requires collection", line)
		}
		return Identifier(d.Collection), nil
	case "array":
		el, err := decodeNode(d.Element)
		if err != nil {
			return nil, fmt.Errorf("line %d: array element: %w", line, err)
		}
		return Array(el), nil
	case "record":
		el, err := decodeNode(d.Element)
		if err != nil {
			return nil, fmt.Errorf("line %d: record value: %w", line, err)
		}
		return Record(el), nil
	case "object":
		fields, err := decodeFields(&d.Fields)
		if err != nil {
			return nil, err
		}
		return Object(fields...), nil
	case "union":
		ms, err := decodeNodes(d.Members)
		if err != nil {
			return nil, err
		}
		return Union(ms...), nil
	case "discriminatedUnion":
		ms, err := decodeNodes(d.Members)
		if err != nil {
			return nil, err
		}
		return DiscriminatedUnion(d.Discriminator, ms...), nil
	case "tuple":
		its, err := decodeNodes(d.Items)
		if err != nil {
			return nil, err
		}
		return Tuple(its...), nil
	case "intersection":
		l, err := decodeNode(d.Left)
		if err != nil {
			return nil, err
		}
		r, err := decodeNode(d.Right)
		if err != nil {
			return nil, err
		}
		return Intersection(l, r), nil
	case "":
		return nil, fmt.Errorf("line %d: missing type", line)
	}
	return nil, fmt.Errorf("line %d: unknown type %q", line, d.Type)
}
