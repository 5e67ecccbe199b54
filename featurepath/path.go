// Package featurepath evaluates path expressions over typed feature structures.
//
// A path such as
//
//	/resourceEntryList[0]/entryId
//	/tokens/posTag[-1]/value
//	/specificType:coveredText()
//
// is parsed once, resolved against the type it is applied to, and evaluated
// against instances of that type. Array segments without an index expand to
// every element; negative indices count from the end. Missing data (short
// arrays, nil references, features absent on a runtime subtype) yields nil,
// while configuration mistakes surface as errors from Parse and Resolve.
package featurepath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/julielab/jcore/errors"
)

// Function is a built-in function applied to the value a path points to.
type Function int

const (
	FuncNone Function = iota
	// FuncCoveredText returns the text spanned by an annotation.
	FuncCoveredText
	// FuncTypeName returns the fully qualified type name of a structure.
	FuncTypeName
)

func (f Function) String() string {
	switch f {
	case FuncCoveredText:
		return "coveredText()"
	case FuncTypeName:
		return "typeName()"
	default:
		return ""
	}
}

var functionsByName = map[string]Function{
	"coveredText()": FuncCoveredText,
	"typeName()":    FuncTypeName,
}

// Segment is one step of a path.
type Segment struct {
	Name     string
	Index    int
	HasIndex bool
}

func (s Segment) String() string {
	if s.HasIndex {
		return fmt.Sprintf("%s[%d]", s.Name, s.Index)
	}
	return s.Name
}

// Path is a parsed feature path expression. It is immutable and may be
// shared between goroutines.
type Path struct {
	expr     string
	segments []Segment
	function Function
}

// Expr returns the expression the path was parsed from.
func (p *Path) Expr() string { return p.expr }

// Segments returns a copy of the path segments.
func (p *Path) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Function returns the built-in function applied to the path's value.
func (p *Path) Function() Function { return p.function }

// Len is the number of segments.
func (p *Path) Len() int { return len(p.segments) }

func (p *Path) String() string {
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	if p.function != FuncNone {
		if len(p.segments) == 0 {
			b.WriteByte('/')
		}
		b.WriteByte(':')
		b.WriteString(p.function.String())
	}
	return b.String()
}

// ParseError describes a malformed path expression.
type ParseError struct {
	Expr     string // Expression being parsed
	Position int    // Byte offset of the offending segment
	Segment  string // Offending segment text
	Message  string
	Err      error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("invalid feature path %q", e.Expr)
	if e.Segment != "" {
		msg += fmt.Sprintf(" at segment %q (position %d)", e.Segment, e.Position)
	}
	return msg + ": " + e.Message
}

func (e *ParseError) Unwrap() error { return e.Err }

func newParseError(expr string, pos int, segment, format string, args ...interface{}) *ParseError {
	msg := fmt.Sprintf(format, args...)
	return &ParseError{
		Expr:     expr,
		Position: pos,
		Segment:  segment,
		Message:  msg,
		Err:      errors.Mark(errors.New(msg), errors.ErrParse),
	}
}

var segmentPattern = regexp.MustCompile(`^([^\[\]:/]+)(?:\[(-?[0-9]+)\])?$`)

// Parse parses a feature path expression. A missing leading slash is
// tolerated. Built-in function names are checked here, so an unknown
// function fails with errors.ErrUnsupportedFunction.
func Parse(expr string) (*Path, error) {
	trimmed := strings.TrimSpace(expr)
	body := strings.TrimPrefix(trimmed, "/")
	offset := len(trimmed) - len(body)
	p := &Path{expr: expr}

	if i := strings.LastIndex(body, "/"); strings.Contains(body[i+1:], ":") {
		last := body[i+1:]
		colon := strings.Index(last, ":")
		name := last[colon+1:]
		fn, ok := functionsByName[name]
		if !ok {
			perr := newParseError(expr, offset+i+1+colon+1, name, "unsupported built-in function %q, expected coveredText() or typeName()", name)
			perr.Err = errors.Mark(perr.Err, errors.ErrUnsupportedFunction)
			return nil, perr
		}
		p.function = fn
		body = body[:i+1+colon]
	}

	if body == "" {
		if p.function == FuncNone {
			return nil, newParseError(expr, offset, "", "empty path")
		}
		return p, nil
	}

	pos := offset
	for _, raw := range strings.Split(body, "/") {
		seg, err := parseSegment(expr, pos, raw)
		if err != nil {
			return nil, err
		}
		p.segments = append(p.segments, seg)
		pos += len(raw) + 1
	}
	return p, nil
}

// MustParse is like Parse but panics on error. Intended for constant paths.
func MustParse(expr string) *Path {
	p, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(expr string, pos int, raw string) (Segment, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return Segment{}, newParseError(expr, pos, raw, "empty segment")
	}
	m := segmentPattern.FindStringSubmatch(name)
	if m == nil {
		return Segment{}, newParseError(expr, pos, raw, "malformed segment, expected name or name[index]")
	}
	seg := Segment{Name: m[1]}
	if m[2] != "" {
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			return Segment{}, newParseError(expr, pos, raw, "array index %s out of range", m[2])
		}
		seg.Index = idx
		seg.HasIndex = true
	}
	return seg, nil
}
