package embedding

import (
	"container/heap"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/julielab/jcore/errors"
	"github.com/julielab/jcore/logger"
)

// MergeStats summarises one merge run.
type MergeStats struct {
	Inputs         int
	RecordsRead    int
	RecordsWritten int
	Duration       time.Duration
}

// Merger performs a k-way merge of record streams sorted ascending by text.
type Merger struct {
	groupByText bool
	bufferSize  int
	logger      *zap.SugaredLogger
}

// MergeOption configures a Merger.
type MergeOption func(*Merger)

// WithGroupByText collapses all records sharing a text into one record
// holding the mean vector.
func WithGroupByText(group bool) MergeOption {
	return func(m *Merger) { m.groupByText = group }
}

// WithBufferSize sets the per-input read buffer size.
func WithBufferSize(n int) MergeOption {
	return func(m *Merger) { m.bufferSize = n }
}

// WithLogger sets the logger. Defaults to the "embedding" component logger.
func WithLogger(l *zap.SugaredLogger) MergeOption {
	return func(m *Merger) {
		if l != nil {
			m.logger = l
		}
	}
}

func NewMerger(opts ...MergeOption) *Merger {
	m := &Merger{
		bufferSize: DefaultBufferSize,
		logger:     logger.ComponentLogger("embedding"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge merges inputs into out with default settings.
func Merge(inputs []io.Reader, out io.Writer, groupByText bool) error {
	_, err := NewMerger(WithGroupByText(groupByText)).Merge(inputs, out)
	return err
}

// head is the current record of one input.
type head struct {
	rec   Record
	input int
}

// heads orders by text, then by input index so equal texts keep input order.
type heads []head

func (h heads) Len() int { return len(h) }
func (h heads) Less(i, j int) bool {
	if h[i].rec.Text != h[j].rec.Text {
		return h[i].rec.Text < h[j].rec.Text
	}
	return h[i].input < h[j].input
}
func (h heads) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *heads) Push(x any)   { *h = append(*h, x.(head)) }
func (h *heads) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Merge reads every input to the end and writes the merged stream to out.
// Each input is advanced only after its current record was taken.
func (m *Merger) Merge(inputs []io.Reader, out io.Writer) (MergeStats, error) {
	start := time.Now()
	stats := MergeStats{Inputs: len(inputs)}
	cursors := make([]*Cursor, len(inputs))
	for i, r := range inputs {
		cursors[i] = NewCursor(r, m.bufferSize)
	}

	pending := make(heads, 0, len(inputs))
	advance := func(i int) error {
		rec, err := cursors[i].Next()
		if err == io.EOF {
			m.logger.Debugw("input exhausted",
				logger.FieldIndex, i,
				logger.FieldCount, cursors[i].Records())
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "failed to read input %d", i)
		}
		stats.RecordsRead++
		heap.Push(&pending, head{rec: rec, input: i})
		return nil
	}
	for i := range cursors {
		if err := advance(i); err != nil {
			return stats, err
		}
	}

	enc := NewEncoder(out)
	var (
		group     Centroid
		groupText string
		last      string
		started   bool
	)
	flush := func() error {
		if group.Count() == 0 {
			return nil
		}
		if err := enc.Write(Record{Text: groupText, Vector: group.Mean()}); err != nil {
			return err
		}
		stats.RecordsWritten++
		group.Reset()
		return nil
	}

	for pending.Len() > 0 {
		h := heap.Pop(&pending).(head)
		if started && h.rec.Text < last {
			m.logger.Warnw("input is not sorted by text, output order is undefined",
				logger.FieldIndex, h.input,
				"text", h.rec.Text)
		}
		last, started = h.rec.Text, true

		if m.groupByText {
			if group.Count() > 0 && h.rec.Text != groupText {
				if err := flush(); err != nil {
					return stats, err
				}
			}
			groupText = h.rec.Text
			if err := group.Add(h.rec.Vector); err != nil {
				return stats, errors.Wrapf(err, "cannot average vectors for %q", h.rec.Text)
			}
		} else {
			if err := enc.Write(h.rec); err != nil {
				return stats, err
			}
			stats.RecordsWritten++
		}

		if err := advance(h.input); err != nil {
			return stats, err
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}
	if err := enc.Flush(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	m.logger.Infow("merged embedding streams",
		logger.FieldInputs, stats.Inputs,
		logger.FieldCount, stats.RecordsWritten,
		"records_read", stats.RecordsRead,
		"group_by_text", m.groupByText,
		logger.FieldDurationMS, stats.Duration.Milliseconds())
	return stats, nil
}
