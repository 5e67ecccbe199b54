package condensed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julielab/jcore/cas"
	"github.com/julielab/jcore/condensed"
)

type offsets map[int]int

func assertOffsets(t *testing.T, text *condensed.Text, toCondensed, toOriginal offsets) {
	t.Helper()
	for o, want := range toCondensed {
		assert.Equal(t, want, text.CondensedOffset(o), "CondensedOffset(%d)", o)
	}
	for c, want := range toOriginal {
		assert.Equal(t, want, text.OriginalOffset(c), "OriginalOffset(%d)", c)
	}
}

func TestReferenceMarkers(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		spans       []condensed.Span
		opts        []condensed.Option
		want        string
		toCondensed offsets
		toOriginal  offsets
	}{
		{
			name:        "trailing markers",
			text:        "This sentence1 has references.2",
			spans:       []condensed.Span{{13, 14}, {30, 31}},
			want:        "This sentence has references.",
			toCondensed: offsets{13: 13, 15: 14, 30: 29, 31: 29},
			toOriginal:  offsets{0: 0, 13: 13, 14: 15, 29: 30},
		},
		{
			name:        "marker before period",
			text:        "This sentence1 has references2.",
			spans:       []condensed.Span{{13, 14}, {29, 30}},
			want:        "This sentence has references.",
			toCondensed: offsets{15: 14, 30: 28, 31: 29},
			toOriginal:  offsets{14: 15, 29: 31},
		},
		{
			name: "separators between markers",
			text: "This sentence has multiple references.2,5;42 This is a second sentence.7,8",
			spans: []condensed.Span{
				{38, 39}, {40, 41}, {42, 44}, {71, 72}, {73, 74},
			},
			opts: []condensed.Option{condensed.WithCutCharacters(',', ';')},
			want: "This sentence has multiple references. This is a second sentence.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]condensed.Option{condensed.WithWhitespaceCollapse()}, tt.opts...)
			text := condensed.New(tt.text, tt.spans, opts...)
			assert.Equal(t, tt.want, text.String())
			assert.Equal(t, tt.text, text.Original())
			assertOffsets(t, text, tt.toCondensed, tt.toOriginal)
		})
	}
}

func TestCutAwaySentences(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		spans       []condensed.Span
		want        string
		toCondensed offsets
	}{
		{
			name:        "offsets within cut",
			text:        "Not cut away 1. Cut away 1. Not cut away 2. Cut away 2. Not cut away 3.",
			spans:       []condensed.Span{{16, 27}, {44, 55}},
			want:        "Not cut away 1. Not cut away 2. Not cut away 3.",
			toCondensed: offsets{10: 10, 15: 15, 16: 16, 17: 16, 27: 16, 31: 19},
		},
		{
			name:        "at beginning",
			text:        "Cut away. Not cut away.",
			spans:       []condensed.Span{{0, 9}},
			want:        "Not cut away.",
			toCondensed: offsets{3: 0, 13: 3},
		},
		{
			name:        "at end",
			text:        "Not cut away. Cut away.",
			spans:       []condensed.Span{{14, 23}},
			want:        "Not cut away.",
			toCondensed: offsets{10: 10, 16: 13, 23: 13},
		},
		{
			name:        "embedded",
			text:        "Not cut away. Cut away. Not cut away.",
			spans:       []condensed.Span{{14, 23}},
			want:        "Not cut away. Not cut away.",
			toCondensed: offsets{10: 10, 16: 14, 23: 14, 25: 15},
		},
		{
			name:        "enclosing",
			text:        "Cut away. Not cut away. Cut away.",
			spans:       []condensed.Span{{0, 9}, {24, 33}},
			want:        "Not cut away.",
			toCondensed: offsets{10: 0, 13: 3, 27: 13, 33: 13},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := condensed.New(tt.text, tt.spans, condensed.WithWhitespaceCollapse())
			assert.Equal(t, tt.want, text.String())
			assertOffsets(t, text, tt.toCondensed, nil)
		})
	}
}

func TestNoSpans(t *testing.T) {
	text := condensed.New("unchanged", nil)
	assert.Equal(t, "unchanged", text.String())
	assert.Empty(t, text.Spans())
	for i := 0; i <= 9; i++ {
		assert.Equal(t, i, text.CondensedOffset(i))
		assert.Equal(t, i, text.OriginalOffset(i))
	}
}

func TestSpanNormalisation(t *testing.T) {
	text := condensed.New("abcdefghij", []condensed.Span{
		{6, 8}, {1, 3}, {2, 4}, {4, 5}, {9, 20}, {-3, 0}, {7, 7},
	})
	assert.Equal(t, []condensed.Span{{1, 5}, {6, 8}, {9, 10}}, text.Spans())
	assert.Equal(t, "afi", text.String())
	assert.Equal(t, 3, text.Len())
}

func TestOffsetClamping(t *testing.T) {
	text := condensed.New("abc def", []condensed.Span{{3, 7}})
	assert.Equal(t, "abc", text.String())
	assert.Equal(t, 0, text.CondensedOffset(-5))
	assert.Equal(t, 3, text.CondensedOffset(100))
	assert.Equal(t, 0, text.OriginalOffset(-1))
	assert.Equal(t, 3, text.OriginalOffset(42))
}

func TestRuneOffsets(t *testing.T) {
	text := condensed.New("Gène¹ und Protein²", []condensed.Span{{4, 5}, {17, 18}})
	assert.Equal(t, "Gène und Protein", text.String())
	assert.Equal(t, 4, text.CondensedOffset(5))
	assert.Equal(t, 16, text.Len())
}

func TestRoundTrip(t *testing.T) {
	inputs := []struct {
		text  string
		spans []condensed.Span
	}{
		{"This sentence1 has references.2", []condensed.Span{{13, 14}, {30, 31}}},
		{"Cut away. Not cut away. Cut away.", []condensed.Span{{0, 9}, {24, 33}}},
		{"0123456789abcdef", []condensed.Span{{0, 2}, {3, 5}, {8, 9}, {15, 16}}},
	}
	for _, in := range inputs {
		text := condensed.New(in.text, in.spans)
		removed := 0
		for _, s := range in.spans {
			removed += s.End - s.Begin
		}
		require.Equal(t, len([]rune(in.text))-removed, text.Len(), in.text)
		for c := 0; c <= text.Len(); c++ {
			assert.Equal(t, c, text.CondensedOffset(text.OriginalOffset(c)), "%q at %d", in.text, c)
		}
		prev := 0
		for o := 0; o <= len([]rune(in.text)); o++ {
			got := text.CondensedOffset(o)
			assert.GreaterOrEqual(t, got, prev, "monotone at %d", o)
			prev = got
		}
	}
}

func TestFromMarkers(t *testing.T) {
	ts := cas.NewTypeSystem()
	_, err := ts.AddType("jcore.InternalReference", cas.TypeAnnotation)
	require.NoError(t, err)
	_, err = ts.AddType("jcore.Sentence", cas.TypeAnnotation)
	require.NoError(t, err)

	doc := cas.NewDocument(ts, "This sentence1 has references.2")
	_, err = doc.NewAnnotation("r1", "jcore.InternalReference", 13, 14)
	require.NoError(t, err)
	_, err = doc.NewAnnotation("r2", "jcore.InternalReference", 30, 31)
	require.NoError(t, err)
	_, err = doc.NewAnnotation("s1", "jcore.Sentence", 0, 31)
	require.NoError(t, err)

	markers := doc.Annotations()
	spans := condensed.SpansFromMarkers(markers, "jcore.InternalReference")
	assert.ElementsMatch(t, []condensed.Span{{13, 14}, {30, 31}}, spans)
	assert.Len(t, condensed.SpansFromMarkers(markers), 3)

	text := condensed.FromMarkers(doc.Text(), markers, []string{"jcore.InternalReference"})
	assert.Equal(t, "This sentence has references.", text.String())
	assert.Equal(t, 15, text.OriginalOffset(14))
}
