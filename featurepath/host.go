package featurepath

// TypeClass tells primitive, array and structure types apart.
type TypeClass int

const (
	ClassStructure TypeClass = iota
	ClassPrimitive
	ClassArray
)

func (c TypeClass) String() string {
	switch c {
	case ClassPrimitive:
		return "primitive"
	case ClassArray:
		return "array"
	default:
		return "structure"
	}
}

// Kind identifies the primitive value kinds the engine can read and write.
// Hosts report KindUnsupported for any other primitive range.
type Kind int

const (
	KindUnsupported Kind = iota
	KindString
	KindInteger
	KindBoolean
	KindFloat
	KindDouble
	KindByte
	KindLong
	KindShort
)

var kindNames = [...]string{
	KindUnsupported: "unsupported",
	KindString:      "String",
	KindInteger:     "Integer",
	KindBoolean:     "Boolean",
	KindFloat:       "Float",
	KindDouble:      "Double",
	KindByte:        "Byte",
	KindLong:        "Long",
	KindShort:       "Short",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnsupported]
	}
	return kindNames[k]
}

// Supported reports whether values of this kind can be evaluated.
func (k Kind) Supported() bool {
	return k > KindUnsupported && int(k) < len(kindNames)
}

// Type is the reflection surface the engine needs from a host type system.
type Type interface {
	// Name is the fully qualified type name.
	Name() string
	// Feature looks up a feature by base name, including inherited ones.
	// Returns nil when the type has no such feature.
	Feature(name string) Feature
	// Subtypes returns the direct subtypes only.
	Subtypes() []Type
	Class() TypeClass
	// Kind is the primitive kind of a primitive type.
	Kind() Kind
	// ElementType is the component type of an array type.
	ElementType() Type
}

// Feature is a named, typed slot on a Type. Implementations must be
// comparable; an inherited feature is the same value on every subtype.
type Feature interface {
	Name() string
	Range() Type
}

// FeatureStructure is a concrete instance of a Type.
//
// Primitive values are exchanged as Go values matching the feature's Kind:
// string, int32, bool, float32, float64, int8, int64 and int16. An unset
// string is nil.
type FeatureStructure interface {
	Type() Type
	Primitive(f Feature) any
	SetPrimitive(f Feature, value any) error
	// Reference returns the structure or array stored in a non-primitive
	// feature, or nil.
	Reference(f Feature) FeatureStructure
}

// FSArray is an array whose elements are feature structures.
type FSArray interface {
	FeatureStructure
	Len() int
	At(i int) FeatureStructure
}

// PrimitiveArray is an array of primitive values of its element type's Kind.
type PrimitiveArray interface {
	FeatureStructure
	Len() int
	At(i int) any
	Set(i int, value any) error
}

// Annotation is a feature structure spanning a region of the document text.
type Annotation interface {
	FeatureStructure
	CoveredText() string
}
