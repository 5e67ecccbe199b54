package cas

import (
	"sort"

	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/featurepath"
)

// Document is a text plus the structures annotating it.
type Document struct {
	ts         *TypeSystem
	text       string
	structures []featurepath.FeatureStructure
	byID       map[string]featurepath.FeatureStructure
}

// NewDocument creates an empty document over text.
func NewDocument(ts *TypeSystem, text string) *Document {
	return &Document{
		ts:   ts,
		text: text,
		byID: make(map[string]featurepath.FeatureStructure),
	}
}

func (d *Document) Text() string             { return d.text }
func (d *Document) TypeSystem() *TypeSystem  { return d.ts }

func (d *Document) structureType(name string) (*Type, error) {
	t, ok := d.ts.Type(name)
	if !ok {
		return nil, errors.NewNotFoundError("type %s is not defined", name)
	}
	return t, nil
}

func (d *Document) register(id string, fs featurepath.FeatureStructure) error {
	if id != "" {
		if _, dup := d.byID[id]; dup {
			return errors.NewInvalidRequestError("duplicate structure id %q", id)
		}
		d.byID[id] = fs
	}
	d.structures = append(d.structures, fs)
	return nil
}

func (d *Document) newFS(id string, t *Type) FS {
	return FS{id: id, typ: t, doc: d, values: make(map[string]any)}
}

// NewFS creates a structure of a non-annotation type.
func (d *Document) NewFS(id, typeName string) (*FS, error) {
	t, err := d.structureType(typeName)
	if err != nil {
		return nil, err
	}
	if t.class != featurepath.ClassStructure {
		return nil, errors.NewInvalidRequestError("%s is an array type, use NewFSArray or NewPrimitiveArray", typeName)
	}
	if t.IsSubtypeOf(d.ts.types[TypeAnnotation]) {
		return nil, errors.NewInvalidRequestError("%s is an annotation type, use NewAnnotation", typeName)
	}
	fs := d.newFS(id, t)
	if err := d.register(id, &fs); err != nil {
		return nil, err
	}
	return &fs, nil
}

// NewAnnotation creates an annotation over [begin, end).
func (d *Document) NewAnnotation(id, typeName string, begin, end int) (*Annotation, error) {
	t, err := d.structureType(typeName)
	if err != nil {
		return nil, err
	}
	if !t.IsSubtypeOf(d.ts.types[TypeAnnotation]) {
		return nil, errors.NewInvalidRequestError("%s is not an annotation type", typeName)
	}
	if begin > end {
		return nil, errors.NewInvalidRequestError("annotation %s has begin %d after end %d", typeName, begin, end)
	}
	a := &Annotation{FS: d.newFS(id, t)}
	a.values[FeatureBegin] = int32(begin)
	a.values[FeatureEnd] = int32(end)
	if err := d.register(id, a); err != nil {
		return nil, err
	}
	return a, nil
}

// NewFSArray creates an array of structures. typeName is uima.cas.FSArray
// or a typed array name such as "de.julielab.jcore.types.Gene[]".
func (d *Document) NewFSArray(id, typeName string, elems ...featurepath.FeatureStructure) (*FSArray, error) {
	t, err := d.structureType(typeName)
	if err != nil {
		return nil, err
	}
	if t.class != featurepath.ClassArray || t.element.class != featurepath.ClassStructure {
		return nil, errors.NewInvalidRequestError("%s is not a structure array type", typeName)
	}
	a := &FSArray{FS: d.newFS(id, t), elems: make([]featurepath.FeatureStructure, len(elems))}
	for i, e := range elems {
		if err := a.SetAt(i, e); err != nil {
			return nil, err
		}
	}
	if err := d.register(id, a); err != nil {
		return nil, err
	}
	return a, nil
}

// NewPrimitiveArray creates an array such as uima.cas.StringArray.
func (d *Document) NewPrimitiveArray(id, typeName string, values ...any) (*PrimitiveArray, error) {
	t, err := d.structureType(typeName)
	if err != nil {
		return nil, err
	}
	if t.class != featurepath.ClassArray || t.element.class != featurepath.ClassPrimitive {
		return nil, errors.NewInvalidRequestError("%s is not a primitive array type", typeName)
	}
	a := &PrimitiveArray{FS: d.newFS(id, t), elems: make([]any, len(values))}
	for i, v := range values {
		if err := a.Set(i, v); err != nil {
			return nil, err
		}
	}
	if err := d.register(id, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Lookup returns the structure with the given id.
func (d *Document) Lookup(id string) (featurepath.FeatureStructure, bool) {
	fs, ok := d.byID[id]
	return fs, ok
}

// Structures returns all structures in creation order.
func (d *Document) Structures() []featurepath.FeatureStructure {
	out := make([]featurepath.FeatureStructure, len(d.structures))
	copy(out, d.structures)
	return out
}

// Select returns the structures whose type is typeName or one of its
// subtypes, in creation order.
func (d *Document) Select(typeName string) ([]featurepath.FeatureStructure, error) {
	t, err := d.structureType(typeName)
	if err != nil {
		return nil, err
	}
	var out []featurepath.FeatureStructure
	for _, fs := range d.structures {
		if fs.Type().(*Type).IsSubtypeOf(t) {
			out = append(out, fs)
		}
	}
	return out, nil
}

// Annotations returns annotations whose type name is exactly one of
// typeNames (all annotations when none are given), ordered by begin, then
// longer first.
func (d *Document) Annotations(typeNames ...string) []*Annotation {
	want := make(map[string]struct{}, len(typeNames))
	for _, n := range typeNames {
		want[n] = struct{}{}
	}
	var out []*Annotation
	for _, fs := range d.structures {
		a, ok := fs.(*Annotation)
		if !ok {
			continue
		}
		if _, match := want[a.typ.name]; len(want) == 0 || match {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Begin() != out[j].Begin() {
			return out[i].Begin() < out[j].Begin()
		}
		return out[i].End() > out[j].End()
	})
	return out
}
