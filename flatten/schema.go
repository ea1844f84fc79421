package flatten

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultDelimiter joins multi-valued fields.
const DefaultDelimiter = "|"

// Rule names an extraction rule.
type Rule string

const (
	// RuleDirect takes the field value as is.
	RuleDirect Rule = "direct"
	// RuleSubfield reads a named key from a field mapping, e.g. "a".
	RuleSubfield Rule = "subfield"
	// RuleFirst takes the first element of a list.
	RuleFirst Rule = "first"
	// RuleJoined reads a key from each mapping in a list and joins the values.
	RuleJoined Rule = "joined"
)

var (
	ErrUnknownSchema = errors.New("unknown schema")
	ErrInvalidSchema = errors.New("invalid schema")
)

// Column describes a single output column.
type Column struct {
	Name     string `yaml:"name"`
	Field    string `yaml:"field"`
	Rule     Rule   `yaml:"rule"`
	Subfield string `yaml:"subfield,omitempty"`
}

// Schema is an ordered list of columns. The column order is the output order.
type Schema struct {
	Name      string   `yaml:"name"`
	Delimiter string   `yaml:"delimiter,omitempty"`
	Columns   []Column `yaml:"columns"`
}

func (s *Schema) delimiter() string {
	if s.Delimiter == "" {
		return DefaultDelimiter
	}
	return s.Delimiter
}

// ColumnNames returns the header for this schema.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// Validate checks column names and rules.
func (s *Schema) Validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalidSchema)
	}
	seen := make(map[string]bool)
	for i, col := range s.Columns {
		if col.Name == "" {
			return fmt.Errorf("%w: column %d has no name", ErrInvalidSchema, i)
		}
		if seen[col.Name] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, col.Name)
		}
		seen[col.Name] = true
		if col.Field == "" {
			return fmt.Errorf("%w: column %q has no field", ErrInvalidSchema, col.Name)
		}
		switch col.Rule {
		case RuleDirect, RuleFirst:
		case RuleSubfield, RuleJoined:
			if col.Subfield == "" {
				return fmt.Errorf("%w: column %q: rule %s requires a subfield",
					ErrInvalidSchema, col.Name, col.Rule)
			}
		default:
			return fmt.Errorf("%w: column %q: unknown rule %q", ErrInvalidSchema, col.Name, col.Rule)
		}
	}
	return nil
}

func marc(name, tag string) Column {
	return Column{Name: name, Field: tag, Rule: RuleSubfield, Subfield: "a"}
}

// MARC21 covers the catalog fields of interest in MARC JSON exports, subfield
// $a where a field has subfields.
var MARC21 = Schema{
	Name: "marc21",
	Columns: []Column{
		{Name: "id", Field: "001", Rule: RuleDirect},
		marc("language_code", "041"),
		{Name: "holdings", Field: "049", Rule: RuleDirect},
		marc("author_person", "100"),
		marc("author_corporate", "110"),
		marc("author_meeting", "111"),
		marc("author_uniform", "130"),
		marc("title", "245"),
		marc("publication", "264"),
		marc("physical_description", "300"),
		marc("subject_personal", "600"),
		marc("subject_corporate", "610"),
		marc("subject_meeting", "611"),
		marc("subject_uniform_title", "630"),
		marc("subject_named_event", "647"),
		marc("subject_chronological", "648"),
		marc("subject_topical", "650"),
		marc("subject_geographic", "651"),
	},
}

// Export covers the enhanced JSON export, where authors, subjects and types
// are repeatable lists of objects.
var Export = Schema{
	Name: "export",
	Columns: []Column{
		{Name: "id", Field: "id", Rule: RuleDirect},
		{Name: "title", Field: "title", Rule: RuleDirect},
		{Name: "authors", Field: "authors", Rule: RuleJoined, Subfield: "name"},
		{Name: "subjects", Field: "subjects", Rule: RuleJoined, Subfield: "word"},
		{Name: "lang", Field: "lang", Rule: RuleFirst},
		{Name: "types", Field: "types", Rule: RuleJoined, Subfield: "type"},
		{Name: "year", Field: "year", Rule: RuleDirect},
		{Name: "call_number", Field: "call_number", Rule: RuleDirect},
	},
}

var builtin = map[string]*Schema{
	MARC21.Name: &MARC21,
	Export.Name: &Export,
}

// Builtin returns the names of the built-in schemas.
func Builtin() []string {
	var names []string
	for k := range builtin {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LoadSchema returns a built-in schema by name or reads a schema from a YAML
// file.
func LoadSchema(name string) (*Schema, error) {
	if s, ok := builtin[name]; ok {
		return s, nil
	}
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return ParseSchema(b)
}

// ParseSchema parses and validates a YAML schema.
func ParseSchema(b []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
