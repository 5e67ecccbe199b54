// Package cas is a small in-memory type system and document store that
// implements the featurepath host interfaces. Type systems and documents
// are loaded from YAML (or JSON) descriptors.
package cas

import (
	"sort"
	"strings"

	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/featurepath"
)

// Built-in type names.
const (
	TypeTop        = "uima.cas.TOP"
	TypeString     = "uima.cas.String"
	TypeInteger    = "uima.cas.Integer"
	TypeBoolean    = "uima.cas.Boolean"
	TypeFloat      = "uima.cas.Float"
	TypeDouble     = "uima.cas.Double"
	TypeByte       = "uima.cas.Byte"
	TypeLong       = "uima.cas.Long"
	TypeShort      = "uima.cas.Short"
	TypeFSArray    = "uima.cas.FSArray"
	TypeAnnotation = "uima.tcas.Annotation"

	FeatureBegin = "begin"
	FeatureEnd   = "end"

	// arraySuffix marks a typed FSArray, e.g. "de.julielab.jcore.types.Gene[]".
	arraySuffix = "[]"
)

var primitiveKinds = map[string]featurepath.Kind{
	TypeString:  featurepath.KindString,
	TypeInteger: featurepath.KindInteger,
	TypeBoolean: featurepath.KindBoolean,
	TypeFloat:   featurepath.KindFloat,
	TypeDouble:  featurepath.KindDouble,
	TypeByte:    featurepath.KindByte,
	TypeLong:    featurepath.KindLong,
	TypeShort:   featurepath.KindShort,
}

var primitiveArrays = map[string]string{
	"uima.cas.StringArray":  TypeString,
	"uima.cas.IntegerArray": TypeInteger,
	"uima.cas.BooleanArray": TypeBoolean,
	"uima.cas.FloatArray":   TypeFloat,
	"uima.cas.DoubleArray":  TypeDouble,
	"uima.cas.ByteArray":    TypeByte,
	"uima.cas.LongArray":    TypeLong,
	"uima.cas.ShortArray":   TypeShort,
}

// Type is a named type with single inheritance.
type Type struct {
	name     string
	parent   *Type
	subtypes []*Type
	features []*Feature
	class    featurepath.TypeClass
	kind     featurepath.Kind
	element  *Type
}

func (t *Type) Name() string                 { return t.name }
func (t *Type) Class() featurepath.TypeClass { return t.class }
func (t *Type) Kind() featurepath.Kind       { return t.kind }
func (t *Type) String() string               { return t.name }

// Feature looks up a declared or inherited feature.
func (t *Type) Feature(name string) featurepath.Feature {
	if f := t.lookup(name); f != nil {
		return f
	}
	return nil
}

func (t *Type) lookup(name string) *Feature {
	for cur := t; cur != nil; cur = cur.parent {
		for _, f := range cur.features {
			if f.name == name {
				return f
			}
		}
	}
	return nil
}

// Features returns declared and inherited features, nearest supertype last.
func (t *Type) Features() []*Feature {
	var chain []*Type
	for cur := t; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	var out []*Feature
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].features...)
	}
	return out
}

func (t *Type) Subtypes() []featurepath.Type {
	out := make([]featurepath.Type, len(t.subtypes))
	for i, s := range t.subtypes {
		out[i] = s
	}
	return out
}

func (t *Type) ElementType() featurepath.Type {
	if t.element == nil {
		return nil
	}
	return t.element
}

// Supertype returns the parent type, or nil for the root.
func (t *Type) Supertype() *Type { return t.parent }

// IsSubtypeOf reports whether t is other or inherits from it.
func (t *Type) IsSubtypeOf(other *Type) bool {
	for cur := t; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// Feature is a feature declared on a Type.
type Feature struct {
	name  string
	owner *Type
	rng   *Type
}

func (f *Feature) Name() string                { return f.name }
func (f *Feature) Range() featurepath.Type     { return f.rng }
func (f *Feature) Owner() *Type                { return f.owner }
func (f *Feature) String() string              { return f.owner.name + ":" + f.name }
func (f *Feature) kind() featurepath.Kind      { return f.rng.kind }
func (f *Feature) class() featurepath.TypeClass { return f.rng.class }

// TypeSystem holds all types of a document collection.
type TypeSystem struct {
	types map[string]*Type
}

// NewTypeSystem returns a type system with the built-in types.
func NewTypeSystem() *TypeSystem {
	ts := &TypeSystem{types: make(map[string]*Type)}
	top := &Type{name: TypeTop}
	ts.types[TypeTop] = top

	for name, kind := range primitiveKinds {
		ts.link(&Type{name: name, class: featurepath.ClassPrimitive, kind: kind}, top)
	}
	for name, elem := range primitiveArrays {
		ts.link(&Type{name: name, class: featurepath.ClassArray, element: ts.types[elem]}, top)
	}
	ts.link(&Type{name: TypeFSArray, class: featurepath.ClassArray, element: top}, top)

	ann := &Type{name: TypeAnnotation}
	ts.link(ann, top)
	ann.features = []*Feature{
		{name: FeatureBegin, owner: ann, rng: ts.types[TypeInteger]},
		{name: FeatureEnd, owner: ann, rng: ts.types[TypeInteger]},
	}
	return ts
}

func (ts *TypeSystem) link(t, parent *Type) {
	t.parent = parent
	parent.subtypes = append(parent.subtypes, t)
	sort.Slice(parent.subtypes, func(i, j int) bool { return parent.subtypes[i].name < parent.subtypes[j].name })
	ts.types[t.name] = t
}

// Type returns the named type. Typed FSArray names ("X[]") are created on
// first use.
func (ts *TypeSystem) Type(name string) (*Type, bool) {
	if t, ok := ts.types[name]; ok {
		return t, true
	}
	if elem, ok := strings.CutSuffix(name, arraySuffix); ok {
		et, ok := ts.Type(elem)
		if !ok || et.class != featurepath.ClassStructure {
			return nil, false
		}
		return ts.arrayOf(et), true
	}
	return nil, false
}

// MustType is like Type but panics for unknown names.
func (ts *TypeSystem) MustType(name string) *Type {
	t, ok := ts.Type(name)
	if !ok {
		panic("cas: unknown type " + name)
	}
	return t
}

func (ts *TypeSystem) arrayOf(elem *Type) *Type {
	name := elem.name + arraySuffix
	if t, ok := ts.types[name]; ok {
		return t
	}
	t := &Type{name: name, class: featurepath.ClassArray, element: elem}
	ts.link(t, ts.types[TypeFSArray])
	return t
}

// AddType declares a structure type. The supertype defaults to TOP.
func (ts *TypeSystem) AddType(name, supertype string) (*Type, error) {
	if name == "" {
		return nil, errors.NewInvalidRequestError("type name must not be empty")
	}
	if _, exists := ts.types[name]; exists {
		return nil, errors.NewInvalidRequestError("type %s is already defined", name)
	}
	if strings.HasSuffix(name, arraySuffix) {
		return nil, errors.NewInvalidRequestError("type name %s must not end in %s", name, arraySuffix)
	}
	if supertype == "" {
		supertype = TypeTop
	}
	parent, ok := ts.types[supertype]
	if !ok {
		return nil, errors.NewNotFoundError("supertype %s of %s is not defined", supertype, name)
	}
	if parent.class != featurepath.ClassStructure {
		return nil, errors.NewInvalidRequestError("type %s cannot inherit from %s %s", name, parent.class, supertype)
	}
	t := &Type{name: name}
	ts.link(t, parent)
	return t, nil
}

// AddFeature declares a feature. rangeName may name a primitive, a
// primitive array, uima.cas.FSArray, a typed array "X[]", or a structure.
func (ts *TypeSystem) AddFeature(typeName, featureName, rangeName string) (*Feature, error) {
	t, ok := ts.types[typeName]
	if !ok {
		return nil, errors.NewNotFoundError("type %s is not defined", typeName)
	}
	if t.class != featurepath.ClassStructure {
		return nil, errors.NewInvalidRequestError("cannot add feature %s to %s type %s", featureName, t.class, typeName)
	}
	if featureName == "" {
		return nil, errors.NewInvalidRequestError("feature name on %s must not be empty", typeName)
	}
	if existing := t.lookup(featureName); existing != nil {
		return nil, errors.NewInvalidRequestError("feature %s is already defined on %s", featureName, existing.owner.name)
	}
	rng, ok := ts.Type(rangeName)
	if !ok {
		return nil, errors.NewNotFoundError("range %s of feature %s:%s is not defined", rangeName, typeName, featureName)
	}
	f := &Feature{name: featureName, owner: t, rng: rng}
	t.features = append(t.features, f)
	return f, nil
}

// Types returns all types sorted by name.
func (ts *TypeSystem) Types() []*Type {
	out := make([]*Type, 0, len(ts.types))
	for _, t := range ts.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
