// Package rapify implements the config parser and binary rapifier
// (spec §4.D): a recursive-descent parser over the preprocessor's flat
// string, a lint pass over the resulting tree, and a two-pass binary
// emitter producing the exact rapified byte layout.
package rapify

import "github.com/hemtt-go/hemtt/internal/diag"

// Class is a parsed "class Name: Parent { ... }" or "class Name;"
// declaration. The outermost file is itself represented as an
// unnamed, parent-less root Class.
type Class struct {
	Name     string
	Parent   string // "" if none declared
	External bool   // true for "class Name;" with no body
	Body     []Property
	Pos      diag.Position
}

// Property is one member of a class body.
type Property interface{ property() }

// EntryProperty is "name = value;" or "name[] = {...};".
type EntryProperty struct {
	Name          string
	Value         Value
	ExpectedArray bool
	Pos           diag.Position
}

// ClassProperty is a nested "class Name ... { ... }" or "class Name;".
type ClassProperty struct {
	Class *Class
}

// DeleteProperty is "delete Name;".
type DeleteProperty struct {
	Name string
	Pos  diag.Position
}

// MissingSemicolonProperty records a recovered missing-semicolon error
// (spec §4.D "recovers from missing semicolons (tag MissingSemicolon,
// continue)"). Parsing continues as though the semicolon were present.
type MissingSemicolonProperty struct {
	Name string
	Pos  diag.Position
}

func (EntryProperty) property()            {}
func (ClassProperty) property()            {}
func (DeleteProperty) property()           {}
func (MissingSemicolonProperty) property() {}

// Value is the right-hand side of an entry assignment.
type Value interface{ value() }

type StringValue struct {
	Text string
	Pos  diag.Position
}

// NumberKind distinguishes the two numeric representations the
// rapifier must choose between when emitting the binary form.
type NumberKind int

const (
	NumberInt32 NumberKind = iota
	NumberFloat32
)

type NumberValue struct {
	Kind  NumberKind
	Int   int32
	Float float32
	Pos   diag.Position
}

type ArrayValue struct {
	Expand bool
	Items  []Item
	Pos    diag.Position
}

// InvalidValue marks a value the parser could not make sense of (spec
// §4.D "malformed array items (tag Invalid, skip to , or })").
type InvalidValue struct{ Pos diag.Position }

func (StringValue) value()  {}
func (NumberValue) value()  {}
func (ArrayValue) value()   {}
func (InvalidValue) value() {}

// Item is one element of an array value.
type Item interface{ item() }

type StrItem struct {
	Text string
	Pos  diag.Position
}
type NumberItem struct {
	Kind  NumberKind
	Int   int32
	Float float32
	Pos   diag.Position
}
type ArrayItem struct {
	Items []Item
	Pos   diag.Position
}
type InvalidItem struct{ Pos diag.Position }

func (StrItem) item()     {}
func (NumberItem) item()  {}
func (ArrayItem) item()   {}
func (InvalidItem) item() {}
