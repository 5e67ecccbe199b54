package featurepath

import (
	"strings"

	"go.uber.org/zap"

	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/logger"
)

// FeaturePath evaluates one parsed path against feature structures. It
// caches the resolution for the last root type seen and memoises feature
// lookups per runtime type. A FeaturePath is not safe for concurrent use;
// create one per goroutine from a shared *Path.
type FeaturePath struct {
	path     *Path
	table    *ReplacementTable
	logger   *zap.SugaredLogger
	index    *featureIndex
	resolved *Resolved
}

// Option configures a FeaturePath.
type Option func(*FeaturePath)

// WithReplacements sets the table used by ReplaceValue.
func WithReplacements(t *ReplacementTable) Option {
	return func(fp *FeaturePath) { fp.table = t }
}

// WithLogger sets the logger. Defaults to the "featurepath" component logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(fp *FeaturePath) {
		if l != nil {
			fp.logger = l
		}
	}
}

// New parses expr and returns an evaluator for it.
func New(expr string, opts ...Option) (*FeaturePath, error) {
	p, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return FromPath(p, opts...), nil
}

// FromPath returns an evaluator for an already parsed path.
func FromPath(p *Path, opts ...Option) *FeaturePath {
	fp := &FeaturePath{
		path:   p,
		logger: logger.ComponentLogger("featurepath"),
		index:  newFeatureIndex(),
	}
	for _, opt := range opts {
		opt(fp)
	}
	return fp
}

// Path returns the parsed path.
func (fp *FeaturePath) Path() *Path { return fp.path }

// Replacements returns the configured replacement table, or nil.
func (fp *FeaturePath) Replacements() *ReplacementTable { return fp.table }

// TypeInit resolves the path against root unless it is already resolved
// for a type of that name.
func (fp *FeaturePath) TypeInit(root Type) (*Resolved, error) {
	if fp.resolved != nil && fp.resolved.root.Name() == root.Name() {
		return fp.resolved, nil
	}
	r, err := fp.path.resolve(root, fp.index, fp.logger)
	if err != nil {
		return nil, err
	}
	fp.resolved = r
	return r, nil
}

// Value evaluates the path against fs without replacing anything.
//
// The result is a primitive Go value, a FeatureStructure, a []any holding
// the flattened values of an expanded array, or nil when the data does not
// reach the end of the path.
//
// Expansion skips nil array elements only. An element whose remaining path
// yields nil still contributes a nil entry, so the list stays aligned with
// the non-nil elements it was computed from.
func (fp *FeaturePath) Value(fs FeatureStructure) (any, error) {
	return fp.evaluate(nil, fs)
}

// ReplaceValue evaluates the path against fs and replaces each primitive
// value it reaches according to the replacement table, writing the
// replacement back into the structure. Values already replaced in sess
// are left alone.
func (fp *FeaturePath) ReplaceValue(sess *Session, fs FeatureStructure) (any, error) {
	if fp.table == nil {
		return nil, errors.NewInvalidRequestError("feature path %s has no replacement table", fp.path.expr)
	}
	if sess == nil {
		return nil, errors.NewInvalidRequestError("replacing values requires a session")
	}
	return fp.evaluate(sess, fs)
}

// ValueAsString evaluates the path and renders the result as a string.
// Expanded arrays are joined with ", ". Passing a nil session evaluates
// without replacement.
func (fp *FeaturePath) ValueAsString(sess *Session, fs FeatureStructure) (string, error) {
	v, err := fp.value(sess, fs)
	if err != nil || v == nil {
		return "", err
	}
	if list, ok := v.([]any); ok {
		parts := make([]string, len(list))
		for i, e := range list {
			parts[i] = FormatValue(e)
		}
		return strings.Join(parts, ", "), nil
	}
	return FormatValue(v), nil
}

// ValueAsStrings evaluates the path and renders each result value as a
// string. A nil result yields a nil slice; a single value yields one element.
// Nil entries of an expanded array render as "".
func (fp *FeaturePath) ValueAsStrings(sess *Session, fs FeatureStructure) ([]string, error) {
	v, err := fp.value(sess, fs)
	if err != nil || v == nil {
		return nil, err
	}
	if list, ok := v.([]any); ok {
		out := make([]string, len(list))
		for i, e := range list {
			out[i] = FormatValue(e)
		}
		return out, nil
	}
	return []string{FormatValue(v)}, nil
}

func (fp *FeaturePath) value(sess *Session, fs FeatureStructure) (any, error) {
	if sess == nil {
		return fp.Value(fs)
	}
	return fp.ReplaceValue(sess, fs)
}

func (fp *FeaturePath) evaluate(sess *Session, fs FeatureStructure) (any, error) {
	if fs == nil {
		return nil, errors.NewInvalidRequestError("cannot evaluate feature path %s on a nil structure", fp.path.expr)
	}
	r, err := fp.TypeInit(fs.Type())
	if err != nil {
		return nil, err
	}
	v, err := fp.walk(r, sess, fs, 0)
	if err != nil {
		return nil, err
	}
	if fp.path.function == FuncNone {
		return v, nil
	}
	if len(fp.path.segments) == 0 {
		return applyFunction(fp.path.function, fs), nil
	}
	if list, ok := v.([]any); ok {
		for i, e := range list {
			list[i] = applyFunction(fp.path.function, e)
		}
		return list, nil
	}
	return applyFunction(fp.path.function, v), nil
}

// walk evaluates segments start.. against fs. Missing data ends the branch
// with a nil value and no error.
func (fp *FeaturePath) walk(r *Resolved, sess *Session, fs FeatureStructure, start int) (any, error) {
	segments := fp.path.segments
	last := len(segments) - 1
	current := fs

	for i := start; i <= last; i++ {
		seg := segments[i]
		f := fp.featureAt(r, i, current.Type())
		if f == nil {
			fp.logger.Debugw("feature not defined on runtime type, no value",
				logger.FieldFeaturePath, fp.path.expr,
				logger.FieldFeature, seg.Name,
				logger.FieldType, current.Type().Name())
			return nil, nil
		}
		rng := f.Range()

		switch rng.Class() {
		case ClassPrimitive:
			if i < last {
				fp.logger.Debugw("primitive-valued segment is not the last one, returning its value",
					logger.FieldFeaturePath, fp.path.expr,
					logger.FieldSegment, i)
			}
			return fp.primitive(sess, current, f)

		case ClassArray:
			ref := current.Reference(f)
			if ref == nil {
				return nil, nil
			}
			switch arr := ref.(type) {
			case PrimitiveArray:
				if i < last {
					fp.logger.Debugw("primitive array segment is not the last one, returning its values",
						logger.FieldFeaturePath, fp.path.expr,
						logger.FieldSegment, i)
				}
				return fp.primitiveArray(sess, arr, seg)
			case FSArray:
				return fp.fsArray(r, sess, arr, i)
			default:
				return nil, errors.AssertionFailedf("feature %s has an array range but holds a %T", seg.Name, ref)
			}

		default:
			ref := current.Reference(f)
			if i == last {
				if sess != nil {
					return nil, fp.nonPrimitiveReplacement(seg)
				}
				if ref == nil {
					return nil, nil
				}
				return ref, nil
			}
			if ref == nil {
				return nil, nil
			}
			current = ref
		}
	}
	return nil, nil
}

func (fp *FeaturePath) featureAt(r *Resolved, i int, runtime Type) Feature {
	b := r.bindings[i]
	if b.kind == BindDirect {
		return b.feature
	}
	return fp.index.feature(runtime, fp.path.segments[i].Name)
}

func (fp *FeaturePath) fsArray(r *Resolved, sess *Session, arr FSArray, i int) (any, error) {
	seg := fp.path.segments[i]
	last := i == len(fp.path.segments)-1
	if last && sess != nil {
		return nil, fp.nonPrimitiveReplacement(seg)
	}

	if !seg.HasIndex {
		n := arr.Len()
		values := make([]any, 0, n)
		for j := 0; j < n; j++ {
			elem := arr.At(j)
			if elem == nil {
				continue
			}
			if last {
				values = append(values, elem)
				continue
			}
			v, err := fp.walk(r, sess, elem, i+1)
			if err != nil {
				return nil, err
			}
			if nested, ok := v.([]any); ok {
				values = append(values, nested...)
			} else {
				values = append(values, v)
			}
		}
		return values, nil
	}

	idx, ok := effectiveIndex(seg.Index, arr.Len())
	if !ok {
		fp.logger.Debugw("array index out of range, no value",
			logger.FieldFeaturePath, fp.path.expr,
			logger.FieldIndex, seg.Index,
			logger.FieldSize, arr.Len())
		return nil, nil
	}
	elem := arr.At(idx)
	if elem == nil {
		return nil, nil
	}
	if last {
		return elem, nil
	}
	return fp.walk(r, sess, elem, i+1)
}

func (fp *FeaturePath) primitiveArray(sess *Session, arr PrimitiveArray, seg Segment) (any, error) {
	var kind Kind
	if elem := arr.Type().ElementType(); elem != nil {
		kind = elem.Kind()
	}
	if !kind.Supported() {
		return nil, checkKind(arr.Type(), seg.Name)
	}

	replace := sess != nil && !sess.Replaced(arr, "")
	replaced := false
	element := func(j int) (any, error) {
		v := arr.At(j)
		if !replace {
			return v, nil
		}
		nv, ok, err := fp.replacement(kind, v)
		if err != nil || !ok {
			return v, err
		}
		if err := arr.Set(j, nv); err != nil {
			fp.logger.Errorw("failed to write replaced array value",
				logger.FieldFeaturePath, fp.path.expr,
				logger.FieldIndex, j,
				logger.FieldError, err)
			return nil, errors.Wrapf(err, "failed to replace element %d of %s", j, seg.Name)
		}
		replaced = true
		return nv, nil
	}

	var result any
	if !seg.HasIndex {
		values := make([]any, arr.Len())
		for j := range values {
			v, err := element(j)
			if err != nil {
				return nil, err
			}
			values[j] = v
		}
		result = values
	} else if idx, ok := effectiveIndex(seg.Index, arr.Len()); ok {
		v, err := element(idx)
		if err != nil {
			return nil, err
		}
		result = v
	}
	if replaced {
		sess.mark(arr, "")
	}
	return result, nil
}

func (fp *FeaturePath) primitive(sess *Session, fs FeatureStructure, f Feature) (any, error) {
	kind := f.Range().Kind()
	if !kind.Supported() {
		return nil, checkKind(f.Range(), f.Name())
	}
	v := fs.Primitive(f)
	if sess == nil {
		return v, nil
	}
	if sess.Replaced(fs, f.Name()) {
		fp.logger.Debugw("value already replaced in this session",
			logger.FieldFeaturePath, fp.path.expr,
			logger.FieldSessionID, sess.ID(),
			logger.FieldFeature, f.Name())
		return v, nil
	}
	nv, ok, err := fp.replacement(kind, v)
	if err != nil || !ok {
		return v, err
	}
	if err := fs.SetPrimitive(f, nv); err != nil {
		fp.logger.Errorw("failed to write replaced value",
			logger.FieldFeaturePath, fp.path.expr,
			logger.FieldFeature, f.Name(),
			logger.FieldError, err)
		return nil, errors.Wrapf(err, "failed to replace value of %s", f.Name())
	}
	sess.mark(fs, f.Name())
	return nv, nil
}

// replacement looks up v in the table and converts the substitute to kind.
func (fp *FeaturePath) replacement(kind Kind, v any) (any, bool, error) {
	s, ok := fp.table.replacementFor(v)
	if !ok {
		return nil, false, nil
	}
	nv, err := ParseValue(kind, s)
	if err != nil {
		return nil, false, errors.WithDetailf(err, "replacing %q in path %s", FormatValue(v), fp.path.expr)
	}
	return nv, true, nil
}

func (fp *FeaturePath) nonPrimitiveReplacement(seg Segment) error {
	return errors.Mark(
		errors.Newf("path %s ends at non-primitive segment %s, only primitive values can be replaced", fp.path.expr, seg),
		errors.ErrUnsupportedType)
}

func effectiveIndex(index, size int) (int, bool) {
	if index < 0 {
		index += size
	}
	if index < 0 || index >= size {
		return 0, false
	}
	return index, true
}

func applyFunction(fn Function, v any) any {
	switch fn {
	case FuncCoveredText:
		if a, ok := v.(Annotation); ok {
			return a.CoveredText()
		}
	case FuncTypeName:
		if fs, ok := v.(FeatureStructure); ok {
			return fs.Type().Name()
		}
	}
	return nil
}
