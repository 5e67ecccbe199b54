package cas

import (
	"unicode/utf8"

	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/featurepath"
)

// FS is a feature structure. Values are stored by feature name; inherited
// features share their name with the supertype declaration.
type FS struct {
	id     string
	typ    *Type
	doc    *Document
	values map[string]any
}

func (fs *FS) Type() featurepath.Type { return fs.typ }

// CASType returns the concrete type.
func (fs *FS) CASType() *Type { return fs.typ }

// TypeName is the fully qualified type name.
func (fs *FS) TypeName() string { return fs.typ.name }

// ID is the document-local identifier, empty for anonymous structures.
func (fs *FS) ID() string { return fs.id }

func (fs *FS) feature(f featurepath.Feature) (*Feature, error) {
	cf, ok := f.(*Feature)
	if !ok || fs.typ.lookup(cf.name) != cf {
		return nil, errors.NewInvalidRequestError("feature %v is not defined on %s", f, fs.typ.name)
	}
	return cf, nil
}

// Primitive returns the value of a primitive feature. Unset values are the
// zero value of the kind, or nil for strings.
func (fs *FS) Primitive(f featurepath.Feature) any {
	cf, err := fs.feature(f)
	if err != nil || cf.class() != featurepath.ClassPrimitive {
		return nil
	}
	if v, ok := fs.values[cf.name]; ok {
		return v
	}
	return zeroValue(cf.kind())
}

func (fs *FS) SetPrimitive(f featurepath.Feature, value any) error {
	cf, err := fs.feature(f)
	if err != nil {
		return err
	}
	if cf.class() != featurepath.ClassPrimitive {
		return errors.NewInvalidRequestError("feature %s is not primitive", cf)
	}
	if !featurepath.CheckValue(cf.kind(), value) {
		return errors.Mark(errors.Newf("value %v (%T) does not fit %s feature %s", value, value, cf.kind(), cf), errors.ErrUnsupportedType)
	}
	if value == nil {
		delete(fs.values, cf.name)
		return nil
	}
	fs.values[cf.name] = value
	return nil
}

func (fs *FS) Reference(f featurepath.Feature) featurepath.FeatureStructure {
	cf, err := fs.feature(f)
	if err != nil || cf.class() == featurepath.ClassPrimitive {
		return nil
	}
	if v, ok := fs.values[cf.name].(featurepath.FeatureStructure); ok {
		return v
	}
	return nil
}

// Get returns the raw value of a feature by name.
func (fs *FS) Get(name string) any {
	cf := fs.typ.lookup(name)
	if cf == nil {
		return nil
	}
	if cf.class() == featurepath.ClassPrimitive {
		return fs.Primitive(cf)
	}
	if ref := fs.Reference(cf); ref != nil {
		return ref
	}
	return nil
}

// Set assigns a feature by name. Primitive values must match the feature's
// kind; references must be structures whose type fits the range.
func (fs *FS) Set(name string, value any) error {
	cf := fs.typ.lookup(name)
	if cf == nil {
		return errors.Mark(errors.Newf("feature %q is not defined on %s", name, fs.typ.name), errors.ErrUndefinedFeature)
	}
	if cf.class() == featurepath.ClassPrimitive {
		return fs.SetPrimitive(cf, value)
	}
	if value == nil {
		delete(fs.values, cf.name)
		return nil
	}
	ref, ok := value.(featurepath.FeatureStructure)
	if !ok {
		return errors.NewInvalidRequestError("feature %s expects a structure, got %T", cf, value)
	}
	rt, ok := ref.Type().(*Type)
	if !ok || !rt.IsSubtypeOf(cf.rng) {
		return errors.NewInvalidRequestError("feature %s expects %s, got %s", cf, cf.rng.name, ref.Type().Name())
	}
	fs.values[cf.name] = ref
	return nil
}

func zeroValue(kind featurepath.Kind) any {
	switch kind {
	case featurepath.KindInteger:
		return int32(0)
	case featurepath.KindBoolean:
		return false
	case featurepath.KindFloat:
		return float32(0)
	case featurepath.KindDouble:
		return float64(0)
	case featurepath.KindByte:
		return int8(0)
	case featurepath.KindLong:
		return int64(0)
	case featurepath.KindShort:
		return int16(0)
	default:
		return nil
	}
}

// Annotation is a structure spanning [Begin, End) of the document text,
// measured in runes.
type Annotation struct {
	FS
}

func (a *Annotation) Begin() int { return a.offset(FeatureBegin) }
func (a *Annotation) End() int   { return a.offset(FeatureEnd) }

func (a *Annotation) offset(name string) int {
	if v, ok := a.values[name].(int32); ok {
		return int(v)
	}
	return 0
}

// CoveredText returns the text between Begin and End, clamped to the document.
func (a *Annotation) CoveredText() string {
	if a.doc == nil {
		return ""
	}
	text := a.doc.text
	n := utf8.RuneCountInString(text)
	begin, end := clamp(a.Begin(), 0, n), clamp(a.End(), 0, n)
	if begin >= end {
		return ""
	}
	runes := []rune(text)
	return string(runes[begin:end])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FSArray holds references to structures. Elements may be nil.
type FSArray struct {
	FS
	elems []featurepath.FeatureStructure
}

func (a *FSArray) Len() int { return len(a.elems) }

func (a *FSArray) At(i int) featurepath.FeatureStructure {
	if i < 0 || i >= len(a.elems) {
		return nil
	}
	return a.elems[i]
}

// SetAt stores a structure at index i. Typed arrays check the element type.
func (a *FSArray) SetAt(i int, v featurepath.FeatureStructure) error {
	if i < 0 || i >= len(a.elems) {
		return errors.NewInvalidRequestError("index %d out of range for array of length %d", i, len(a.elems))
	}
	if v != nil {
		rt, ok := v.Type().(*Type)
		if !ok || !rt.IsSubtypeOf(a.typ.element) {
			return errors.NewInvalidRequestError("array %s cannot hold %s", a.typ.name, v.Type().Name())
		}
	}
	a.elems[i] = v
	return nil
}

// PrimitiveArray holds primitive values of the element type's kind.
type PrimitiveArray struct {
	FS
	elems []any
}

func (a *PrimitiveArray) Len() int { return len(a.elems) }

func (a *PrimitiveArray) At(i int) any {
	if i < 0 || i >= len(a.elems) {
		return nil
	}
	return a.elems[i]
}

func (a *PrimitiveArray) Set(i int, value any) error {
	if i < 0 || i >= len(a.elems) {
		return errors.NewInvalidRequestError("index %d out of range for array of length %d", i, len(a.elems))
	}
	kind := a.typ.element.kind
	if !featurepath.CheckValue(kind, value) {
		return errors.Mark(errors.Newf("value %v (%T) does not fit %s", value, value, a.typ.name), errors.ErrUnsupportedType)
	}
	if value == nil {
		value = zeroValue(kind)
	}
	a.elems[i] = value
	return nil
}
