// Package schema declares which fields are scraped and where they live.
package schema

import "fmt"

// Multiplicity tags a Field as taking the first match or all matches.
type Multiplicity int

const (
	Single Multiplicity = iota
	List
)

func (m Multiplicity) String() string {
	if m == List {
		return "list"
	}
	return "single"
}

type Field struct {
	Name         string
	Locator      string
	Multiplicity Multiplicity
}

func SingleField(name, locator string) Field {
	return Field{Name: name, Locator: locator, Multiplicity: Single}
}

func ListField(name, locator string) Field {
	return Field{Name: name, Locator: locator, Multiplicity: List}
}

// Source says which scope a block is resolved against.
type Source int

const (
	// Detail is the job detail panel opened by clicking an item.
	Detail Source = iota
	// Item is the clicked list item itself.
	Item
)

// Block groups fields that share a scope. An optional block whose Anchor is
// missing is filled with NA as a whole; a mandatory block has no anchor and
// resolves each field directly against its source scope.
type Block struct {
	Name     string
	Source   Source
	Optional bool
	Anchor   string
	Fields   []Field
}

type Schema struct {
	Blocks []Block
}

// FieldNames lists every field in column order.
func (s Schema) FieldNames() []string {
	var names []string
	for _, b := range s.Blocks {
		for _, f := range b.Fields {
			names = append(names, f.Name)
		}
	}
	return names
}

// Validate rejects duplicate names, empty locators and optional blocks
// without an anchor.
func (s Schema) Validate() error {
	seen := make(map[string]bool)
	for _, b := range s.Blocks {
		if b.Optional && b.Anchor == "" {
			return fmt.Errorf("optional block %q has no anchor", b.Name)
		}
		for _, f := range b.Fields {
			if f.Name == "" || f.Locator == "" {
				return fmt.Errorf("block %q has a field without name or locator", b.Name)
			}
			if seen[f.Name] {
				return fmt.Errorf("field %q declared twice", f.Name)
			}
			seen[f.Name] = true
		}
	}
	if len(seen) == 0 {
		return fmt.Errorf("schema declares no fields")
	}
	return nil
}
