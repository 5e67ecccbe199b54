package cas

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/featurepath"
)

const testTypes = `
types:
  - name: jcore.Gene
    supertype: jcore.ConceptMention
    features:
      - {name: synonyms, range: uima.cas.StringArray}
  - name: jcore.ConceptMention
    supertype: uima.tcas.Annotation
    description: base of all concept mentions
    features:
      - {name: specificType, range: uima.cas.String}
      - {name: confidence, range: uima.cas.Float}
      - {name: resourceEntryList, range: uima.cas.FSArray, elementType: jcore.ResourceEntry}
      - {name: primary, range: jcore.ResourceEntry}
  - name: jcore.ResourceEntry
    features:
      - {name: entryId, range: uima.cas.String}
`

func loadTestTypes(t *testing.T) *TypeSystem {
	t.Helper()
	ts, err := LoadTypeSystem(strings.NewReader(testTypes))
	require.NoError(t, err)
	return ts
}

func TestNewTypeSystemBuiltins(t *testing.T) {
	ts := NewTypeSystem()

	for name, kind := range primitiveKinds {
		typ, ok := ts.Type(name)
		require.True(t, ok, name)
		assert.Equal(t, featurepath.ClassPrimitive, typ.Class())
		assert.Equal(t, kind, typ.Kind())
	}

	sa := ts.MustType("uima.cas.StringArray")
	assert.Equal(t, featurepath.ClassArray, sa.Class())
	assert.Equal(t, TypeString, sa.ElementType().Name())

	ann := ts.MustType(TypeAnnotation)
	assert.NotNil(t, ann.Feature(FeatureBegin))
	assert.Nil(t, ann.Feature("nope"))
	assert.Equal(t, TypeTop, ann.Supertype().Name())

	_, ok := ts.Type("uima.cas.Integer[]")
	assert.False(t, ok, "primitive element types have dedicated array types")
	assert.Panics(t, func() { ts.MustType("unknown.Type") })
}

func TestTypeHierarchy(t *testing.T) {
	ts := loadTestTypes(t)
	gene := ts.MustType("jcore.Gene")
	mention := ts.MustType("jcore.ConceptMention")

	assert.True(t, gene.IsSubtypeOf(mention))
	assert.True(t, gene.IsSubtypeOf(ts.MustType(TypeAnnotation)))
	assert.False(t, mention.IsSubtypeOf(gene))

	// Inherited features are the same value on every subtype.
	assert.Equal(t, mention.Feature("specificType"), gene.Feature("specificType"))
	assert.Nil(t, mention.Feature("synonyms"))

	subs := mention.Subtypes()
	require.Len(t, subs, 1)
	assert.Equal(t, "jcore.Gene", subs[0].Name())

	names := make([]string, 0)
	for _, f := range gene.Features() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"begin", "end", "specificType", "confidence", "resourceEntryList", "primary", "synonyms"}, names)

	list := gene.Feature("resourceEntryList").Range()
	assert.Equal(t, "jcore.ResourceEntry[]", list.Name())
	assert.Equal(t, featurepath.ClassArray, list.Class())
	assert.Equal(t, "jcore.ResourceEntry", list.ElementType().Name())
}

func TestTypeSystemErrors(t *testing.T) {
	ts := loadTestTypes(t)

	_, err := ts.AddType("jcore.Gene", "")
	assert.True(t, errors.IsInvalidRequestError(err))
	_, err = ts.AddType("jcore.Orphan", "jcore.Missing")
	assert.True(t, errors.IsNotFoundError(err))
	_, err = ts.AddType("jcore.Weird", TypeString)
	assert.True(t, errors.IsInvalidRequestError(err))
	_, err = ts.AddType("jcore.List[]", "")
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = ts.AddFeature("jcore.Gene", "specificType", TypeString)
	assert.True(t, errors.IsInvalidRequestError(err), "inherited name is taken")
	_, err = ts.AddFeature("jcore.Gene", "x", "jcore.Missing")
	assert.True(t, errors.IsNotFoundError(err))
	_, err = ts.AddFeature(TypeString, "x", TypeString)
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = LoadTypeSystem(strings.NewReader("types:\n  - name: a.B\n    supertype: a.C\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.B (supertype a.C)")

	_, err = LoadTypeSystem(strings.NewReader("types:\n  - name: a.B\n    color: red\n"))
	assert.Error(t, err, "unknown descriptor fields are rejected")
}

const testDocument = `
text: "Der BRCA1-Genort (Gen) liegt auf 17q21."
structures:
  - id: g1
    type: jcore.Gene
    begin: 4
    end: 9
    features:
      specificType: protein
      confidence: 0.75
      resourceEntryList: [{ref: re1}, null, {ref: re2}]
      primary: {ref: re2}
      synonyms: [BRCC1, RNF53]
  - id: re1
    type: jcore.ResourceEntry
    features: {entryId: 672}
  - id: re2
    type: jcore.ResourceEntry
    features: {entryId: P38398}
  - id: list
    type: jcore.ResourceEntry[]
    elements: [{ref: re2}]
  - id: m1
    type: jcore.ConceptMention
    begin: 18
    end: 21
    features:
      resourceEntryList: {ref: list}
`

func TestLoadDocument(t *testing.T) {
	ts := loadTestTypes(t)
	doc, err := LoadDocument(ts, strings.NewReader(testDocument))
	require.NoError(t, err)

	fs, ok := doc.Lookup("g1")
	require.True(t, ok)
	gene := fs.(*Annotation)
	assert.Equal(t, "BRCA1", gene.CoveredText())
	assert.Equal(t, "protein", gene.Get("specificType"))
	assert.Equal(t, float32(0.75), gene.Get("confidence"))

	list := gene.Get("resourceEntryList").(*FSArray)
	require.Equal(t, 3, list.Len())
	assert.Nil(t, list.At(1))
	assert.Equal(t, "672", list.At(0).(*FS).Get("entryId"), "numbers are converted to the feature kind")
	assert.Same(t, gene.Get("primary"), list.At(2))

	synonyms := gene.Get("synonyms").(*PrimitiveArray)
	assert.Equal(t, []any{"BRCC1", "RNF53"}, []any{synonyms.At(0), synonyms.At(1)})

	m1, _ := doc.Lookup("m1")
	referenced, _ := doc.Lookup("list")
	assert.Same(t, referenced, m1.(*Annotation).Get("resourceEntryList"))
	assert.Equal(t, "Gen", m1.(*Annotation).CoveredText())
}

func TestLoadDocumentErrors(t *testing.T) {
	ts := loadTestTypes(t)
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown type", "structures: [{type: jcore.Nope}]"},
		{"annotation without offsets", "structures: [{type: jcore.Gene}]"},
		{"dangling reference", "structures: [{type: jcore.Gene, begin: 0, end: 1, features: {primary: {ref: x}}}]"},
		{"undefined feature", "structures: [{type: jcore.ResourceEntry, features: {nope: 1}}]"},
		{"bad primitive", "structures: [{type: jcore.Gene, begin: 0, end: 1, features: {confidence: high}}]"},
		{"duplicate id", "structures: [{id: a, type: jcore.ResourceEntry}, {id: a, type: jcore.ResourceEntry}]"},
		{"wrong reference type", "structures: [{id: g, type: jcore.Gene, begin: 0, end: 1, features: {primary: {ref: g}}}]"},
		{"begin after end", "structures: [{type: jcore.Gene, begin: 3, end: 1}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDocument(ts, strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	tsPath := filepath.Join(dir, "types.yaml")
	docPath := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(tsPath, []byte(testTypes), 0o644))
	require.NoError(t, os.WriteFile(docPath, []byte(`{"text": "TP53", "structures": [{"id": "g", "type": "jcore.Gene", "begin": 0, "end": 4}]}`), 0o644))

	ts, err := LoadTypeSystemFile(tsPath)
	require.NoError(t, err)
	doc, err := LoadDocumentFile(ts, docPath)
	require.NoError(t, err)
	assert.Equal(t, "TP53", doc.Text())
	assert.Len(t, doc.Structures(), 1)

	_, err = LoadTypeSystemFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCoveredTextUsesRuneOffsets(t *testing.T) {
	ts := NewTypeSystem()
	doc := NewDocument(ts, "α-Synuclein und β-Amyloid")
	a, err := doc.NewAnnotation("", TypeAnnotation, 16, 25)
	require.NoError(t, err)
	assert.Equal(t, "β-Amyloid", a.CoveredText())

	clamped, err := doc.NewAnnotation("", TypeAnnotation, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, "yloid", clamped.CoveredText())
}

func TestSelectAndAnnotations(t *testing.T) {
	ts := loadTestTypes(t)
	doc := NewDocument(ts, "BRCA1 and TP53")

	late, err := doc.NewAnnotation("", "jcore.Gene", 10, 14)
	require.NoError(t, err)
	early, err := doc.NewAnnotation("", "jcore.ConceptMention", 0, 5)
	require.NoError(t, err)
	_, err = doc.NewFS("", "jcore.ResourceEntry")
	require.NoError(t, err)

	mentions, err := doc.Select("jcore.ConceptMention")
	require.NoError(t, err)
	assert.Len(t, mentions, 2, "subtypes are selected")

	genes, err := doc.Select("jcore.Gene")
	require.NoError(t, err)
	assert.Equal(t, []featurepath.FeatureStructure{late}, genes)

	assert.Equal(t, []*Annotation{early, late}, doc.Annotations())
	assert.Equal(t, []*Annotation{early}, doc.Annotations("jcore.ConceptMention"), "type names match exactly")

	_, err = doc.Select("jcore.Missing")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestPrimitiveAccess(t *testing.T) {
	ts := loadTestTypes(t)
	doc := NewDocument(ts, "BRCA1")
	gene, err := doc.NewAnnotation("", "jcore.Gene", 0, 5)
	require.NoError(t, err)

	conf := gene.CASType().Feature("confidence")
	assert.Equal(t, float32(0), gene.Primitive(conf), "unset numbers read as zero")
	assert.Nil(t, gene.Primitive(gene.CASType().Feature("specificType")), "unset strings read as nil")

	err = gene.SetPrimitive(conf, 0.5)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedType), "float64 does not fit a Float feature")
	require.NoError(t, gene.SetPrimitive(conf, float32(0.5)))
	assert.Equal(t, float32(0.5), gene.Primitive(conf))

	entryID := ts.MustType("jcore.ResourceEntry").Feature("entryId")
	assert.Error(t, gene.SetPrimitive(entryID, "x"), "feature of another type")
	assert.Nil(t, gene.Primitive(entryID))

	err = gene.Set("nope", 1)
	assert.True(t, errors.Is(err, errors.ErrUndefinedFeature))

	arr, err := doc.NewPrimitiveArray("", "uima.cas.IntegerArray", int32(1), int32(2))
	require.NoError(t, err)
	assert.Error(t, arr.Set(0, "x"))
	assert.Error(t, arr.Set(5, int32(1)))
	require.NoError(t, arr.Set(1, int32(9)))
	assert.Equal(t, int32(9), arr.At(1))
	assert.Nil(t, arr.At(-1))

	_, err = doc.NewFSArray("", "jcore.ResourceEntry[]", gene)
	assert.Error(t, err, "typed arrays check their elements")
	_, err = doc.NewFS("", "jcore.Gene")
	assert.Error(t, err, "annotations need offsets")
}
