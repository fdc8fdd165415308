package record

import (
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNA Kind = iota
	KindText
	KindList
	KindNumber
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNA:
		return "NA"
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindNumber:
		return "number"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Value is a single field value. The zero Value is NA.
type Value struct {
	kind Kind
	text string
	list []string
	num  float64
	n    int64
	b    bool
}

// NA is the "field not observed" placeholder.
var NA = Value{}

func Text(s string) Value { return Value{kind: KindText, text: s} }

// List copies texts; an empty list is NA.
func List(texts []string) Value {
	if len(texts) == 0 {
		return NA
	}
	cp := make([]string, len(texts))
	copy(cp, texts)
	return Value{kind: KindList, list: cp}
}

// Number keeps the dot-decimal text next to its parsed value so that "4.0"
// is written back as "4.0".
func Number(text string) (Value, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return NA, err
	}
	return Value{kind: KindNumber, text: text, num: f}, nil
}

// Fraction is a Number built from a float, e.g. a parsed percentage.
func Fraction(f float64) Value {
	text := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return Value{kind: KindNumber, text: text, num: f}
}

func Int(n int64) Value { return Value{kind: KindInt, n: n} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNA() bool { return v.kind == KindNA }
func (v Value) Str() string { return v.text }
func (v Value) Float() float64 { return v.num }
func (v Value) Int64() int64 { return v.n }
func (v Value) Truth() bool { return v.b }

func (v Value) Strings() []string {
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp
}

// Format renders v as a single cell, using na for the NA sentinel.
func (v Value) Format(na string) string {
	switch v.kind {
	case KindText, KindNumber:
		return v.text
	case KindList:
		quoted := make([]string, len(v.list))
		for i, s := range v.list {
			quoted[i] = "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case KindInt:
		return strconv.FormatInt(v.n, 10)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	}
	return na
}

// Equal reports whether two values hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNA:
		return true
	case KindText, KindNumber:
		return v.text == o.text
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	case KindInt:
		return v.n == o.n
	case KindBool:
		return v.b == o.b
	}
	return false
}

func (v Value) String() string { return v.Format("NA") }
