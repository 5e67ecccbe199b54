package cas

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/featurepath"
)

// TypeSystemDescriptor is the YAML form of a type system.
//
//	types:
//	  - name: de.julielab.jcore.types.Gene
//	    supertype: uima.tcas.Annotation
//	    features:
//	      - name: resourceEntryList
//	        range: uima.cas.FSArray
//	        elementType: de.julielab.jcore.types.ResourceEntry
type TypeSystemDescriptor struct {
	Types []TypeDescriptor `yaml:"types"`
}

type TypeDescriptor struct {
	Name        string              `yaml:"name"`
	Supertype   string              `yaml:"supertype,omitempty"`
	Description string              `yaml:"description,omitempty"`
	Features    []FeatureDescriptor `yaml:"features,omitempty"`
}

type FeatureDescriptor struct {
	Name        string `yaml:"name"`
	Range       string `yaml:"range"`
	ElementType string `yaml:"elementType,omitempty"`
}

// LoadTypeSystemFile reads a type system descriptor from path.
func LoadTypeSystemFile(path string) (*TypeSystem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open type system %s", path)
	}
	defer f.Close()
	ts, err := LoadTypeSystem(f)
	if err != nil {
		return nil, errors.Wrapf(err, "type system %s", path)
	}
	return ts, nil
}

// LoadTypeSystem reads a YAML or JSON type system descriptor. Types may be
// listed in any order.
func LoadTypeSystem(r io.Reader) (*TypeSystem, error) {
	var desc TypeSystemDescriptor
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&desc); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode type system")
	}
	return desc.Build()
}

// Build creates a type system from the descriptor.
func (desc TypeSystemDescriptor) Build() (*TypeSystem, error) {
	ts := NewTypeSystem()

	pending := desc.Types
	for len(pending) > 0 {
		var next []TypeDescriptor
		for _, td := range pending {
			super := td.Supertype
			if super == "" {
				super = TypeTop
			}
			if _, ok := ts.types[super]; !ok {
				next = append(next, td)
				continue
			}
			if _, err := ts.AddType(td.Name, super); err != nil {
				return nil, err
			}
		}
		if len(next) == len(pending) {
			names := make([]string, len(next))
			for i, td := range next {
				names[i] = fmt.Sprintf("%s (supertype %s)", td.Name, td.Supertype)
			}
			return nil, errors.NewNotFoundError("unresolvable supertypes: %s", strings.Join(names, ", "))
		}
		pending = next
	}

	for _, td := range desc.Types {
		for _, fd := range td.Features {
			rng := fd.Range
			if fd.ElementType != "" {
				if rng != TypeFSArray && rng != "" {
					return nil, errors.NewInvalidRequestError("feature %s:%s has elementType but range %s", td.Name, fd.Name, rng)
				}
				rng = fd.ElementType + arraySuffix
			}
			if _, err := ts.AddFeature(td.Name, fd.Name, rng); err != nil {
				return nil, err
			}
		}
	}
	return ts, nil
}

// DocumentDescriptor is the YAML form of a document.
//
//	text: "BRCA1 is mutated."
//	structures:
//	  - id: g1
//	    type: de.julielab.jcore.types.Gene
//	    begin: 0
//	    end: 5
//	    features:
//	      specificType: protein
//	      resourceEntryList: [{ref: re1}]
//	  - id: re1
//	    type: de.julielab.jcore.types.ResourceEntry
//	    features: {entryId: "672"}
//
// Array-valued features take a list (creating an anonymous array) or a
// reference to an array structure. Array structures list their elements.
type DocumentDescriptor struct {
	Text       string                `yaml:"text"`
	Structures []StructureDescriptor `yaml:"structures,omitempty"`
}

type StructureDescriptor struct {
	ID       string         `yaml:"id,omitempty"`
	Type     string         `yaml:"type"`
	Begin    *int           `yaml:"begin,omitempty"`
	End      *int           `yaml:"end,omitempty"`
	Features map[string]any `yaml:"features,omitempty"`
	Elements []any          `yaml:"elements,omitempty"`
}

// LoadDocumentFile reads a document descriptor from path.
func LoadDocumentFile(ts *TypeSystem, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open document %s", path)
	}
	defer f.Close()
	doc, err := LoadDocument(ts, f)
	if err != nil {
		return nil, errors.Wrapf(err, "document %s", path)
	}
	return doc, nil
}

// LoadDocument reads a YAML or JSON document descriptor.
func LoadDocument(ts *TypeSystem, r io.Reader) (*Document, error) {
	var desc DocumentDescriptor
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&desc); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode document")
	}
	return desc.Build(ts)
}

// Build creates the document. References may point forward.
func (desc DocumentDescriptor) Build(ts *TypeSystem) (*Document, error) {
	doc := NewDocument(ts, desc.Text)
	created := make([]featurepath.FeatureStructure, len(desc.Structures))

	for i, sd := range desc.Structures {
		fs, err := doc.create(sd)
		if err != nil {
			return nil, errors.Wrapf(err, "structure %d (%s)", i, sd.ID)
		}
		created[i] = fs
	}
	for i, sd := range desc.Structures {
		if err := doc.fill(created[i], sd); err != nil {
			return nil, errors.Wrapf(err, "structure %d (%s)", i, sd.ID)
		}
	}
	return doc, nil
}

func (d *Document) create(sd StructureDescriptor) (featurepath.FeatureStructure, error) {
	t, err := d.structureType(sd.Type)
	if err != nil {
		return nil, err
	}
	switch {
	case t.class == featurepath.ClassArray && t.element.class == featurepath.ClassPrimitive:
		values, err := primitiveValues(t.element.kind, sd.Elements)
		if err != nil {
			return nil, err
		}
		return d.NewPrimitiveArray(sd.ID, sd.Type, values...)
	case t.class == featurepath.ClassArray:
		return d.NewFSArray(sd.ID, sd.Type, make([]featurepath.FeatureStructure, len(sd.Elements))...)
	case t.IsSubtypeOf(d.ts.types[TypeAnnotation]):
		if sd.Begin == nil || sd.End == nil {
			return nil, errors.NewInvalidRequestError("annotation of type %s needs begin and end", sd.Type)
		}
		return d.NewAnnotation(sd.ID, sd.Type, *sd.Begin, *sd.End)
	default:
		return d.NewFS(sd.ID, sd.Type)
	}
}

func (d *Document) fill(fs featurepath.FeatureStructure, sd StructureDescriptor) error {
	if arr, ok := fs.(*FSArray); ok {
		for i, e := range sd.Elements {
			ref, err := d.reference(e)
			if err != nil {
				return errors.Wrapf(err, "element %d", i)
			}
			if err := arr.SetAt(i, ref); err != nil {
				return err
			}
		}
	}

	base := baseFS(fs)
	for name, raw := range sd.Features {
		if err := d.setFeature(base, name, raw); err != nil {
			return errors.Wrapf(err, "feature %s", name)
		}
	}
	return nil
}

func baseFS(fs featurepath.FeatureStructure) *FS {
	switch x := fs.(type) {
	case *FS:
		return x
	case *Annotation:
		return &x.FS
	case *FSArray:
		return &x.FS
	case *PrimitiveArray:
		return &x.FS
	}
	return nil
}

func (d *Document) setFeature(fs *FS, name string, raw any) error {
	f := fs.typ.lookup(name)
	if f == nil {
		return errors.Mark(errors.Newf("feature %q is not defined on %s", name, fs.typ.name), errors.ErrUndefinedFeature)
	}
	switch f.rng.class {
	case featurepath.ClassPrimitive:
		v, err := scalarValue(f.rng.kind, raw)
		if err != nil {
			return err
		}
		return fs.SetPrimitive(f, v)

	case featurepath.ClassArray:
		list, isList := raw.([]any)
		if !isList {
			ref, err := d.reference(raw)
			if err != nil {
				return err
			}
			return fs.Set(name, ref)
		}
		if f.rng.element.class == featurepath.ClassPrimitive {
			values, err := primitiveValues(f.rng.element.kind, list)
			if err != nil {
				return err
			}
			arr, err := d.NewPrimitiveArray("", f.rng.name, values...)
			if err != nil {
				return err
			}
			return fs.Set(name, arr)
		}
		elems := make([]featurepath.FeatureStructure, len(list))
		for i, e := range list {
			ref, err := d.reference(e)
			if err != nil {
				return errors.Wrapf(err, "element %d", i)
			}
			elems[i] = ref
		}
		arr, err := d.NewFSArray("", f.rng.name, elems...)
		if err != nil {
			return err
		}
		return fs.Set(name, arr)

	default:
		ref, err := d.reference(raw)
		if err != nil {
			return err
		}
		return fs.Set(name, ref)
	}
}

// reference resolves {ref: id}; nil stays nil.
func (d *Document) reference(raw any) (featurepath.FeatureStructure, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.NewInvalidRequestError("expected {ref: id}, got %v", raw)
	}
	id, ok := m["ref"].(string)
	if !ok || len(m) != 1 {
		return nil, errors.NewInvalidRequestError("expected {ref: id}, got %v", raw)
	}
	fs, ok := d.byID[id]
	if !ok {
		return nil, errors.NewNotFoundError("no structure with id %q", id)
	}
	return fs, nil
}

func primitiveValues(kind featurepath.Kind, raw []any) ([]any, error) {
	values := make([]any, len(raw))
	for i, r := range raw {
		v, err := scalarValue(kind, r)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		values[i] = v
	}
	return values, nil
}

func scalarValue(kind featurepath.Kind, raw any) (any, error) {
	switch x := raw.(type) {
	case nil:
		return zeroValue(kind), nil
	case string:
		return featurepath.ParseValue(kind, x)
	case map[string]any, []any:
		return nil, errors.NewInvalidRequestError("expected a %s value, got %v", kind, raw)
	default:
		return featurepath.ParseValue(kind, fmt.Sprint(x))
	}
}
