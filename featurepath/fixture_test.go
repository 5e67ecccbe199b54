package featurepath_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/julielab/jcore/cas"
	"github.com/julielab/jcore/featurepath"
)

const fixtureTypes = `
types:
  - name: jcore.ResourceEntry
    features:
      - {name: entryId, range: uima.cas.String}
      - {name: confidence, range: uima.cas.Double}
      - {name: rank, range: uima.cas.Integer}
  - name: jcore.Gene
    supertype: jcore.ConceptMention
    features:
      - {name: geneId, range: uima.cas.Integer}
      - {name: label, range: uima.cas.String}
      - {name: synonyms, range: uima.cas.StringArray}
  - name: jcore.ConceptMention
    supertype: uima.tcas.Annotation
    features:
      - {name: specificType, range: uima.cas.String}
      - {name: resourceEntryList, range: uima.cas.FSArray, elementType: jcore.ResourceEntry}
  - name: jcore.EntityMention
    supertype: jcore.ConceptMention
    features:
      - {name: label, range: uima.cas.String}
      - {name: ref, range: jcore.ResourceEntry}
  - name: jcore.POSTag
    supertype: uima.tcas.Annotation
    features:
      - {name: value, range: uima.cas.String}
  - name: jcore.Token
    supertype: uima.tcas.Annotation
    features:
      - {name: posTag, range: uima.cas.FSArray, elementType: jcore.POSTag}
      - {name: mention, range: jcore.ConceptMention}
      - {name: scores, range: uima.cas.DoubleArray}
  - name: jcore.Sentence
    supertype: uima.tcas.Annotation
    features:
      - {name: tokens, range: uima.cas.FSArray, elementType: jcore.Token}
`

const fixtureText = "BRCA1 binds TP53 in human cells."

// fixture is a small annotated document:
//
//	gene     BRCA1 [0,5]  label PM, entries 672 / nil / P38398
//	entity   TP53 [12,16] label NotPM, ref 7157
//	token1   BRCA1 with POS NN, NNP and mention gene
//	token2   TP53 with no POS tags and mention entity
//	sentence tokens token1, token2
type fixture struct {
	ts       *cas.TypeSystem
	doc      *cas.Document
	gene     *cas.Annotation
	entity   *cas.Annotation
	token1   *cas.Annotation
	token2   *cas.Annotation
	sentence *cas.Annotation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ts, err := cas.LoadTypeSystem(strings.NewReader(fixtureTypes))
	require.NoError(t, err)

	doc := cas.NewDocument(ts, fixtureText)
	f := &fixture{ts: ts, doc: doc}

	entry := func(id string, confidence float64, rank int32) *cas.FS {
		re, err := doc.NewFS("", "jcore.ResourceEntry")
		require.NoError(t, err)
		require.NoError(t, re.Set("entryId", id))
		require.NoError(t, re.Set("confidence", confidence))
		require.NoError(t, re.Set("rank", rank))
		return re
	}
	annotation := func(typeName string, begin, end int) *cas.Annotation {
		a, err := doc.NewAnnotation("", typeName, begin, end)
		require.NoError(t, err)
		return a
	}
	set := func(fs interface{ Set(string, any) error }, name string, v any) {
		require.NoError(t, fs.Set(name, v))
	}

	f.gene = annotation("jcore.Gene", 0, 5)
	set(f.gene, "specificType", "protein")
	set(f.gene, "geneId", int32(672))
	set(f.gene, "label", "PM")
	entries, err := doc.NewFSArray("", "jcore.ResourceEntry[]", entry("672", 0.9, 1), nil, entry("P38398", 0.5, 2))
	require.NoError(t, err)
	set(f.gene, "resourceEntryList", entries)
	synonyms, err := doc.NewPrimitiveArray("", "uima.cas.StringArray", "BRCC1", "RNF53")
	require.NoError(t, err)
	set(f.gene, "synonyms", synonyms)

	f.entity = annotation("jcore.EntityMention", 12, 16)
	set(f.entity, "label", "NotPM")
	set(f.entity, "ref", entry("7157", 1, 1))

	nn := annotation("jcore.POSTag", 0, 5)
	set(nn, "value", "NN")
	nnp := annotation("jcore.POSTag", 0, 5)
	set(nnp, "value", "NNP")

	f.token1 = annotation("jcore.Token", 0, 5)
	tags, err := doc.NewFSArray("", "jcore.POSTag[]", nn, nnp)
	require.NoError(t, err)
	set(f.token1, "posTag", tags)
	set(f.token1, "mention", f.gene)
	scores, err := doc.NewPrimitiveArray("", "uima.cas.DoubleArray", 0.1, 0.2, 0.3)
	require.NoError(t, err)
	set(f.token1, "scores", scores)

	f.token2 = annotation("jcore.Token", 12, 16)
	noTags, err := doc.NewFSArray("", "jcore.POSTag[]")
	require.NoError(t, err)
	set(f.token2, "posTag", noTags)
	set(f.token2, "mention", f.entity)

	f.sentence = annotation("jcore.Sentence", 0, len(fixtureText))
	tokens, err := doc.NewFSArray("", "jcore.Token[]", f.token1, f.token2)
	require.NoError(t, err)
	set(f.sentence, "tokens", tokens)

	return f
}

func (f *fixture) typ(t *testing.T, name string) featurepath.Type {
	t.Helper()
	typ, ok := f.ts.Type(name)
	require.True(t, ok, "type %s", name)
	return typ
}

func mustPath(t *testing.T, expr string, opts ...featurepath.Option) *featurepath.FeaturePath {
	t.Helper()
	fp, err := featurepath.New(expr, opts...)
	require.NoError(t, err)
	return fp
}

// stubType is a host type whose primitive kind the engine does not support.
type stubType struct {
	name     string
	class    featurepath.TypeClass
	kind     featurepath.Kind
	features map[string]*stubFeature
}

func (s *stubType) Name() string                    { return s.name }
func (s *stubType) Subtypes() []featurepath.Type    { return nil }
func (s *stubType) Class() featurepath.TypeClass    { return s.class }
func (s *stubType) Kind() featurepath.Kind          { return s.kind }
func (s *stubType) ElementType() featurepath.Type   { return nil }
func (s *stubType) Feature(name string) featurepath.Feature {
	if f, ok := s.features[name]; ok {
		return f
	}
	return nil
}

type stubFeature struct {
	name string
	rng  *stubType
}

func (f *stubFeature) Name() string            { return f.name }
func (f *stubFeature) Range() featurepath.Type { return f.rng }
