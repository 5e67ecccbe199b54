// Package condensed builds a copy of a text with marker spans cut out and
// translates offsets between the original and the condensed text.
//
// Offsets are rune offsets. Both translations are total: inputs outside the
// valid range are clamped to it.
package condensed

import (
	"sort"
	"strings"
	"unicode"
)

// Span is a half-open rune range [Begin, End) of the original text.
type Span struct {
	Begin int
	End   int
}

func (s Span) Len() int { return s.End - s.Begin }

// Marker is an annotation whose span should be cut away.
type Marker interface {
	Begin() int
	End() int
	TypeName() string
}

// Option configures how spans are widened before cutting.
type Option func(*config)

type config struct {
	cutCharacters      map[rune]struct{}
	collapseWhitespace bool
}

// WithCutCharacters removes the given characters when they touch a cut,
// e.g. the commas of "2,5;42" between reference markers.
func WithCutCharacters(chars ...rune) Option {
	return func(c *config) {
		if c.cutCharacters == nil {
			c.cutCharacters = make(map[rune]struct{}, len(chars))
		}
		for _, r := range chars {
			c.cutCharacters[r] = struct{}{}
		}
	}
}

// WithWhitespaceCollapse removes one whitespace rune next to a cut that is
// bounded by whitespace (or the start of the text) on the left: the rune
// after the cut if there is one, otherwise the rune before it. This keeps
// "Cut away. Not cut away." from condensing to " Not cut away.".
func WithWhitespaceCollapse() Option {
	return func(c *config) { c.collapseWhitespace = true }
}

// Text is a condensed text with its offset maps. It is immutable.
type Text struct {
	original  string
	condensed string
	length    int
	spans     []Span
	condStart []int // condensed offset at which span i was removed
	cumBefore []int // runes removed before span i
}

// New condenses text by cutting the given spans. Spans are clamped to the
// text, sorted, and merged when they overlap or touch.
func New(text string, spans []Span, opts ...Option) *Text {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	runes := []rune(text)
	n := len(runes)
	merged := normalize(spans, n)
	if len(cfg.cutCharacters) > 0 {
		merged = normalize(extendOverCutCharacters(merged, runes, cfg.cutCharacters), n)
	}
	if cfg.collapseWhitespace {
		merged = normalize(collapseWhitespace(merged, runes), n)
	}

	t := &Text{
		original:  text,
		length:    n,
		spans:     merged,
		condStart: make([]int, len(merged)),
		cumBefore: make([]int, len(merged)),
	}

	var b strings.Builder
	b.Grow(len(text))
	removed, pos := 0, 0
	for i, s := range merged {
		b.WriteString(string(runes[pos:s.Begin]))
		t.cumBefore[i] = removed
		t.condStart[i] = s.Begin - removed
		removed += s.Len()
		pos = s.End
	}
	b.WriteString(string(runes[pos:]))
	t.condensed = b.String()
	return t
}

// SpansFromMarkers returns the spans of markers whose type name is one of
// types. With no types given, every marker is used.
func SpansFromMarkers[M Marker](markers []M, types ...string) []Span {
	want := make(map[string]struct{}, len(types))
	for _, name := range types {
		want[name] = struct{}{}
	}
	spans := make([]Span, 0, len(markers))
	for _, m := range markers {
		if _, ok := want[m.TypeName()]; ok || len(want) == 0 {
			spans = append(spans, Span{Begin: m.Begin(), End: m.End()})
		}
	}
	return spans
}

// FromMarkers condenses text by cutting the markers of the given types.
func FromMarkers[M Marker](text string, markers []M, types []string, opts ...Option) *Text {
	return New(text, SpansFromMarkers(markers, types...), opts...)
}

func (t *Text) String() string   { return t.condensed }
func (t *Text) Original() string { return t.original }

// Len is the rune length of the condensed text.
func (t *Text) Len() int { return t.length - t.removed() }

// Spans returns the spans actually cut, after merging and widening.
func (t *Text) Spans() []Span {
	out := make([]Span, len(t.spans))
	copy(out, t.spans)
	return out
}

func (t *Text) removed() int {
	if len(t.spans) == 0 {
		return 0
	}
	last := len(t.spans) - 1
	return t.cumBefore[last] + t.spans[last].Len()
}

// CondensedOffset maps an original offset to the condensed text. Offsets
// inside a cut map to the point where the cut was made.
func (t *Text) CondensedOffset(original int) int {
	o := clamp(original, 0, t.length)
	// spans[:i] begin before o
	i := sort.Search(len(t.spans), func(k int) bool { return t.spans[k].Begin >= o })
	if i == 0 {
		return o
	}
	s := t.spans[i-1]
	removed := t.cumBefore[i-1]
	if o < s.End {
		removed += o - s.Begin
	} else {
		removed += s.Len()
	}
	return o - removed
}

// OriginalOffset maps a condensed offset to the original text. Where a cut
// was made, the offset right before the cut is returned, which is the first
// original offset mapping to it.
func (t *Text) OriginalOffset(condensed int) int {
	c := clamp(condensed, 0, t.Len())
	// condStart[:j] lie before c
	j := sort.Search(len(t.condStart), func(k int) bool { return t.condStart[k] >= c })
	if j == 0 {
		return c
	}
	return c + t.cumBefore[j-1] + t.spans[j-1].Len()
}

func normalize(spans []Span, n int) []Span {
	out := make([]Span, 0, len(spans))
	for _, s := range spans {
		s.Begin, s.End = clamp(s.Begin, 0, n), clamp(s.End, 0, n)
		if s.Begin < s.End {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Begin != out[j].Begin {
			return out[i].Begin < out[j].Begin
		}
		return out[i].End < out[j].End
	})

	merged := out[:0]
	for _, s := range out {
		if k := len(merged) - 1; k >= 0 && s.Begin <= merged[k].End {
			if s.End > merged[k].End {
				merged[k].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

func extendOverCutCharacters(spans []Span, runes []rune, cut map[rune]struct{}) []Span {
	isCut := func(r rune) bool {
		_, ok := cut[r]
		return ok
	}
	out := make([]Span, len(spans))
	for i, s := range spans {
		for s.End < len(runes) && isCut(runes[s.End]) {
			s.End++
		}
		for s.Begin > 0 && isCut(runes[s.Begin-1]) {
			s.Begin--
		}
		out[i] = s
	}
	return out
}

func collapseWhitespace(spans []Span, runes []rune) []Span {
	n := len(runes)
	out := make([]Span, len(spans))
	for i, s := range spans {
		leftOpen := s.Begin == 0 || unicode.IsSpace(runes[s.Begin-1])
		switch {
		case leftOpen && s.End < n && unicode.IsSpace(runes[s.End]):
			s.End++
		case s.Begin > 0 && leftOpen && s.End == n:
			s.Begin--
		}
		out[i] = s
	}
	return out
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
