// Package record holds the ordered field/value rows produced by extraction and
// consumed by the normalization pipeline and the sink.
package record

import "fmt"

// Field is one named column of a Record.
type Field struct {
	Name  string
	Value Value
}

// Record is an ordered mapping of field name to Value. Column order is the
// insertion order and is preserved by every mutation.
type Record struct {
	fields []Field
	index  map[string]int
}

func New() *Record {
	return &Record{index: make(map[string]int)}
}

// Set updates name in place, or appends it when it is new.
func (r *Record) Set(name string, v Value) {
	if i, ok := r.index[name]; ok {
		r.fields[i].Value = v
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: v})
}

func (r *Record) Get(name string) (Value, bool) {
	i, ok := r.index[name]
	if !ok {
		return NA, false
	}
	return r.fields[i].Value, true
}

func (r *Record) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

func (r *Record) Len() int { return len(r.fields) }

func (r *Record) Fields() []Field {
	cp := make([]Field, len(r.fields))
	copy(cp, r.fields)
	return cp
}

func (r *Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// Each calls fn for every field in column order; fn may return a replacement value.
func (r *Record) Each(fn func(name string, v Value) Value) {
	for i := range r.fields {
		r.fields[i].Value = fn(r.fields[i].Name, r.fields[i].Value)
	}
}

// Replace swaps the field called name for the given fields, inserted at its position.
func (r *Record) Replace(name string, with []Field) error {
	pos, ok := r.index[name]
	if !ok {
		return fmt.Errorf("record has no field %q", name)
	}
	for _, f := range with {
		if j, dup := r.index[f.Name]; dup && j != pos {
			return fmt.Errorf("record already has field %q", f.Name)
		}
	}

	out := make([]Field, 0, len(r.fields)-1+len(with))
	out = append(out, r.fields[:pos]...)
	out = append(out, with...)
	out = append(out, r.fields[pos+1:]...)

	r.fields = out
	r.index = make(map[string]int, len(out))
	for i, f := range out {
		r.index[f.Name] = i
	}
	return nil
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := New()
	for _, f := range r.fields {
		c.Set(f.Name, f.Value)
	}
	return c
}
