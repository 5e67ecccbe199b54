package featurepath

import (
	"go.uber.org/zap"

	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/logger"
)

// BindingKind tells how a segment was bound during resolution.
type BindingKind int

const (
	// BindDirect: the feature is declared on (or inherited by) the traversal type.
	BindDirect BindingKind = iota
	// BindCanonical: exactly one subtype declares the feature. Evaluation
	// still looks it up on the runtime type of each instance.
	BindCanonical
	// BindAmbiguous: several subtypes declare the feature; it is looked up
	// per instance.
	BindAmbiguous
	// BindDeferred: a segment after an ambiguous one. The traversal type is
	// unknown until evaluation.
	BindDeferred
	// BindIgnored: a segment after a non-terminal primitive; never evaluated.
	BindIgnored
)

func (k BindingKind) String() string {
	switch k {
	case BindDirect:
		return "direct"
	case BindCanonical:
		return "canonical"
	case BindAmbiguous:
		return "ambiguous"
	case BindDeferred:
		return "deferred"
	case BindIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

type binding struct {
	kind       BindingKind
	feature    Feature
	candidates []Feature
}

// Resolved is a path bound to the features of one root type.
type Resolved struct {
	path       *Path
	root       Type
	bindings   []binding
	truncateAt int // index of a non-terminal primitive segment, or -1
}

// Root returns the type the path was resolved against.
func (r *Resolved) Root() Type { return r.root }

// Path returns the parsed path.
func (r *Resolved) Path() *Path { return r.path }

// Binding returns how segment i was bound. Indices outside
// [0, Path().Len()) report BindIgnored.
func (r *Resolved) Binding(i int) BindingKind { return r.binding(i).kind }

// Feature returns the feature bound to segment i, or nil for segments that
// are resolved per instance and for indices out of range.
func (r *Resolved) Feature(i int) Feature { return r.binding(i).feature }

// Candidates returns the subtype features an ambiguous segment may bind to.
func (r *Resolved) Candidates(i int) []Feature {
	b := r.binding(i)
	if len(b.candidates) == 0 {
		return nil
	}
	out := make([]Feature, len(b.candidates))
	copy(out, b.candidates)
	return out
}

func (r *Resolved) binding(i int) binding {
	if i < 0 || i >= len(r.bindings) {
		return binding{kind: BindIgnored}
	}
	return r.bindings[i]
}

// Truncated reports the index of the non-terminal primitive segment the
// path stops at, if any.
func (r *Resolved) Truncated() (int, bool) {
	return r.truncateAt, r.truncateAt >= 0
}

type lookupKey struct {
	typeName string
	feature  string
}

// featureIndex memoises feature lookups per (type, feature name) so subtype
// trees are walked once per distinct runtime type.
type featureIndex struct {
	direct   map[lookupKey]Feature
	subtypes map[lookupKey][]Feature
}

func newFeatureIndex() *featureIndex {
	return &featureIndex{
		direct:   make(map[lookupKey]Feature),
		subtypes: make(map[lookupKey][]Feature),
	}
}

func (x *featureIndex) feature(t Type, name string) Feature {
	key := lookupKey{t.Name(), name}
	if f, ok := x.direct[key]; ok {
		return f
	}
	f := t.Feature(name)
	x.direct[key] = f
	return f
}

func (x *featureIndex) subtypeCandidates(t Type, name string) []Feature {
	key := lookupKey{t.Name(), name}
	if c, ok := x.subtypes[key]; ok {
		return c
	}
	seen := make(map[Feature]struct{})
	var out []Feature
	var walk func(Type)
	walk = func(t Type) {
		for _, sub := range t.Subtypes() {
			if f := x.feature(sub, name); f != nil {
				if _, dup := seen[f]; !dup {
					seen[f] = struct{}{}
					out = append(out, f)
				}
			}
			walk(sub)
		}
	}
	walk(t)
	x.subtypes[key] = out
	return out
}

// Resolve binds the path to the features of root.
func (p *Path) Resolve(root Type) (*Resolved, error) {
	return p.resolve(root, newFeatureIndex(), zap.NewNop().Sugar())
}

func (p *Path) resolve(root Type, index *featureIndex, log *zap.SugaredLogger) (*Resolved, error) {
	r := &Resolved{
		path:       p,
		root:       root,
		bindings:   make([]binding, len(p.segments)),
		truncateAt: -1,
	}
	current := root
	deferred := false
	last := len(p.segments) - 1

	for i, seg := range p.segments {
		if r.truncateAt >= 0 {
			r.bindings[i] = binding{kind: BindIgnored}
			continue
		}
		if deferred {
			r.bindings[i] = binding{kind: BindDeferred}
			continue
		}

		b := binding{kind: BindDirect, feature: index.feature(current, seg.Name)}
		if b.feature == nil {
			candidates := index.subtypeCandidates(current, seg.Name)
			switch len(candidates) {
			case 0:
				return nil, errors.WithDetailf(
					errors.Mark(errors.Newf("feature %q is not defined on type %s or any of its subtypes", seg.Name, current.Name()), errors.ErrUndefinedFeature),
					"path %s, segment %d", p.expr, i)
			case 1:
				b = binding{kind: BindCanonical, feature: candidates[0]}
			default:
				r.bindings[i] = binding{kind: BindAmbiguous, candidates: candidates}
				deferred = true
				log.Debugw("feature defined on several subtypes, resolving per instance",
					logger.FieldFeaturePath, p.expr,
					logger.FieldFeature, seg.Name,
					logger.FieldType, current.Name(),
					logger.FieldCount, len(candidates))
				continue
			}
		}
		r.bindings[i] = b

		rng := b.feature.Range()
		switch rng.Class() {
		case ClassPrimitive:
			if err := checkKind(rng, seg.Name); err != nil {
				return nil, err
			}
		case ClassArray:
			if elem := rng.ElementType(); elem != nil {
				if elem.Class() == ClassPrimitive {
					if err := checkKind(elem, seg.Name); err != nil {
						return nil, err
					}
				}
				rng = elem
			}
		}
		if rng.Class() == ClassPrimitive && i < last {
			log.Warnw("primitive-valued segment is not the last one, the rest of the path is ignored",
				logger.FieldFeaturePath, p.expr,
				logger.FieldSegment, i,
				logger.FieldFeature, seg.Name)
			r.truncateAt = i
		}
		log.Debugw("bound path segment",
			logger.FieldFeaturePath, p.expr,
			logger.FieldSegment, i,
			logger.FieldFeature, seg.Name,
			"binding", b.kind.String(),
			logger.FieldType, rng.Name())
		current = rng
	}
	return r, nil
}

func checkKind(t Type, feature string) error {
	if t.Kind().Supported() {
		return nil
	}
	return errors.Mark(
		errors.Newf("feature %q has range %s which is not a supported primitive type", feature, t.Name()),
		errors.ErrUnsupportedType)
}
