package rapify

// This file converts the rich, recovery-aware parse tree (ast.go) into
// the flat representation the binary emitter operates on, mirroring
// the real rapifier's own Array/ArrayElement/Entry/Class split between
// a tolerant parse tree and a strict binary-ready form.

// RArray is a rapified array value: ordered elements plus whether it
// was declared with "+=" (expand).
type RArray struct {
	Expand   bool
	Elements []ArrayElement
}

// ArrayElement is one element of a rapified array.
type ArrayElement interface{ arrayElement() }

type AEStr struct{ S string }
type AEFloat struct{ F float32 }
type AEInt struct{ I int32 }
type AEArray struct{ A RArray }

func (AEStr) arrayElement()   {}
func (AEFloat) arrayElement() {}
func (AEInt) arrayElement()   {}
func (AEArray) arrayElement() {}

// REntry is one binary-ready class-member value, named separately in
// RClass.Entries.
type REntry interface{ rEntry() }

type REString struct{ S string }
type REFloat struct{ F float32 }
type REInt struct{ I int32 }
type REArrayEntry struct{ A RArray }
type REClassEntry struct{ C *RClass }

// REInvisible corresponds to the real rapifier's Entry::Invisible:
// a recorded entry contributing zero bytes to the binary form. Simplify
// never produces it: MissingSemicolonProperty markers are dropped there.
type REInvisible struct{}

func (REString) rEntry()     {}
func (REFloat) rEntry()      {}
func (REInt) rEntry()        {}
func (REArrayEntry) rEntry() {}
func (REClassEntry) rEntry() {}
func (REInvisible) rEntry()  {}

// NamedEntry pairs a class member's name with its value, preserving
// declaration order (the binary format is positional, not a map).
type NamedEntry struct {
	Name  string
	Entry REntry
}

// RClass is a class ready for rapified_length/write_rapified.
type RClass struct {
	Parent   string
	External bool
	Deletion bool
	Entries  []NamedEntry
}

// RConfig is a whole rapified config file: one root class with no name
// of its own.
type RConfig struct {
	Root *RClass
}

// Simplify lowers a parsed Class (typically the file's root) into the
// flat RClass the binary emitter consumes. A MissingSemicolonProperty
// has already been reported by Parse and is dropped here; InvalidValue
// and InvalidItem carry no diagnostic of their own and degrade to empty
// strings rather than panicking.
func Simplify(c *Class) *RClass {
	rc := &RClass{Parent: c.Parent, External: c.External}
	for _, prop := range c.Body {
		switch p := prop.(type) {
		case EntryProperty:
			rc.Entries = append(rc.Entries, NamedEntry{Name: p.Name, Entry: simplifyValue(p.Value)})
		case ClassProperty:
			child := Simplify(p.Class)
			rc.Entries = append(rc.Entries, NamedEntry{Name: p.Class.Name, Entry: REClassEntry{C: child}})
		case DeleteProperty:
			rc.Entries = append(rc.Entries, NamedEntry{Name: p.Name, Entry: REClassEntry{C: &RClass{Deletion: true}}})
		case MissingSemicolonProperty:
			// Already reported; contributes nothing further.
		}
	}
	return rc
}

func simplifyValue(v Value) REntry {
	switch val := v.(type) {
	case StringValue:
		return REString{S: val.Text}
	case NumberValue:
		if val.Kind == NumberFloat32 {
			return REFloat{F: val.Float}
		}
		return REInt{I: val.Int}
	case ArrayValue:
		items := make([]ArrayElement, 0, len(val.Items))
		for _, it := range val.Items {
			items = append(items, simplifyItem(it))
		}
		return REArrayEntry{A: RArray{Expand: val.Expand, Elements: items}}
	case InvalidValue:
		return REString{S: ""}
	default:
		return REString{S: ""}
	}
}

func simplifyItem(it Item) ArrayElement {
	switch v := it.(type) {
	case StrItem:
		return AEStr{S: v.Text}
	case NumberItem:
		if v.Kind == NumberFloat32 {
			return AEFloat{F: v.Float}
		}
		return AEInt{I: v.Int}
	case ArrayItem:
		nested := make([]ArrayElement, 0, len(v.Items))
		for _, sub := range v.Items {
			nested = append(nested, simplifyItem(sub))
		}
		return AEArray{A: RArray{Elements: nested}}
	case InvalidItem:
		return AEStr{S: ""}
	default:
		return AEStr{S: ""}
	}
}
