package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// Field is one entry of a node template. Value, Show, Required, DisplayName and FieldType are the
// attributes the graph model reads; every other key the editor stores (placeholders, option lists,
// type hints) is kept verbatim in Hints so documents round-trip unchanged.
type Field struct {
	Value       any
	Show        bool
	Required    bool
	DisplayName string
	FieldType   string
	Hints       map[string]any
}

// Clone returns a copy of f. Hints are copied one level deep.
func (f *Field) Clone() Field {
	c := *f
	if f.Hints != nil {
		c.Hints = maps.Clone(f.Hints)
	}
	return c
}

func (f Field) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(f.Hints)+5)
	maps.Copy(m, f.Hints)
	m["value"] = f.Value
	m["show"] = f.Show
	m["required"] = f.Required
	if f.DisplayName != "" {
		m["display_name"] = f.DisplayName
	}
	if f.FieldType != "" {
		m["field_type"] = f.FieldType
	}
	return json.Marshal(m)
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode field: %w", err)
	}
	*f = Field{}
	if raw == nil {
		return nil
	}
	f.Value = raw["value"]
	f.Show, _ = raw["show"].(bool)
	f.Required, _ = raw["required"].(bool)
	f.DisplayName, _ = raw["display_name"].(string)
	f.FieldType, _ = raw["field_type"].(string)
	for _, k := range []string{"value", "show", "required", "display_name", "field_type"} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		f.Hints = raw
	}
	return nil
}

// Template maps field names to field descriptors and remembers the order the editor declared
// them in, so projected input fields come out in form order.
type Template struct {
	names  []string
	fields map[string]*Field
}

// NewTemplate builds a template from entries in declaration order.
func NewTemplate(entries ...TemplateEntry) Template {
	var t Template
	for _, e := range entries {
		t.Set(e.Name, e.Field)
	}
	return t
}

// TemplateEntry is a named field used to build a Template.
type TemplateEntry struct {
	Name  string
	Field *Field
}

// Get returns the named field, or nil if the template has no such field.
func (t Template) Get(name string) *Field {
	return t.fields[name]
}

// Names returns field names in declaration order.
func (t Template) Names() []string {
	return t.names
}

// Len returns the number of fields.
func (t Template) Len() int {
	return len(t.names)
}

// Set adds or replaces a field. Replacing keeps the original position.
func (t *Template) Set(name string, f *Field) {
	if f == nil {
		f = &Field{}
	}
	if t.fields == nil {
		t.fields = make(map[string]*Field)
	}
	if _, ok := t.fields[name]; !ok {
		t.names = append(t.names, name)
	}
	t.fields[name] = f
}

func (t Template) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range t.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(t.fields[name])
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (t *Template) UnmarshalJSON(data []byte) error {
	*t = Template{}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode template: %w", err)
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decode template: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode template: %w", err)
		}
		name, _ := tok.(string)
		var f Field
		if err := dec.Decode(&f); err != nil {
			return fmt.Errorf("decode field %q: %w", name, err)
		}
		t.Set(name, &f)
	}
	_, err = dec.Token()
	return err
}
