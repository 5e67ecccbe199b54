// Package embedding reads, writes and merges streams of (text, vector)
// records.
//
// A record is laid out big-endian with no stream header:
//
//	int32   text length in bytes
//	[]byte  UTF-8 text
//	int32   vector length
//	float64 × vector length
package embedding

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/julielab/jcore/errors"
)

// DefaultBufferSize is the read and write buffer size per stream.
const DefaultBufferSize = 8192

// Record is one text with its embedding vector.
type Record struct {
	Text   string
	Vector []float64
}

// EncodedLen is the number of bytes rec occupies on the wire.
func (r Record) EncodedLen() int {
	return 4 + len(r.Text) + 4 + 8*len(r.Vector)
}

// Encode returns the wire form of a single record.
func Encode(text string, vector []float64) []byte {
	rec := Record{Text: text, Vector: vector}
	return AppendRecord(make([]byte, 0, rec.EncodedLen()), rec)
}

// AppendRecord appends the wire form of rec to dst.
func AppendRecord(dst []byte, rec Record) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(rec.Text)))
	dst = append(dst, rec.Text...)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(rec.Vector)))
	for _, v := range rec.Vector {
		dst = binary.BigEndian.AppendUint64(dst, math.Float64bits(v))
	}
	return dst
}

// Encoder writes records to a stream, reusing one scratch buffer.
type Encoder struct {
	w     *bufio.Writer
	buf   []byte
	count int
}

// NewEncoder returns an encoder writing to w. Call Flush when done.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriterSize(w, DefaultBufferSize)}
}

// Write encodes one record.
func (e *Encoder) Write(rec Record) error {
	e.buf = AppendRecord(e.buf[:0], rec)
	if _, err := e.w.Write(e.buf); err != nil {
		return errors.Wrapf(err, "failed to write record %q", rec.Text)
	}
	e.count++
	return nil
}

// Count is the number of records written so far.
func (e *Encoder) Count() int { return e.count }

// Flush writes any buffered data to the underlying writer.
func (e *Encoder) Flush() error {
	return errors.Wrap(e.w.Flush(), "failed to flush records")
}

// Cursor decodes records one at a time from a stream. It never reads
// further ahead than its buffer.
type Cursor struct {
	r       *bufio.Reader
	scratch [8]byte
	offset  int64
	records int
}

// NewCursor returns a cursor over r. A bufferSize below 16 uses
// DefaultBufferSize.
func NewCursor(r io.Reader, bufferSize int) *Cursor {
	if bufferSize < 16 {
		bufferSize = DefaultBufferSize
	}
	return &Cursor{r: bufio.NewReaderSize(r, bufferSize)}
}

// Offset is the number of bytes consumed so far.
func (c *Cursor) Offset() int64 { return c.offset }

// Records is the number of records decoded so far.
func (c *Cursor) Records() int { return c.records }

// Next decodes the next record. It returns io.EOF when the stream ends
// between records and an error marked ErrIncompleteRecord when it ends
// inside one.
func (c *Cursor) Next() (Record, error) {
	start := c.offset
	textLen, err := c.readLength()
	if err == io.EOF {
		return Record{}, io.EOF
	}
	if err != nil {
		return Record{}, c.incomplete(err, start, "text length")
	}

	// Lengths come from the stream; memory grows with the bytes actually read.
	var text bytes.Buffer
	text.Grow(min(textLen, c.r.Buffered()))
	n, err := io.CopyN(&text, c.r, int64(textLen))
	c.offset += n
	if err != nil {
		return Record{}, c.incomplete(err, start, "text")
	}

	vecLen, err := c.readLength()
	if err != nil {
		return Record{}, c.incomplete(err, start, "vector length")
	}
	vector := make([]float64, 0, min(vecLen, c.r.Buffered()/8))
	for len(vector) < vecLen {
		if err := c.read(c.scratch[:8]); err != nil {
			return Record{}, c.incomplete(err, start, "vector")
		}
		vector = append(vector, math.Float64frombits(binary.BigEndian.Uint64(c.scratch[:8])))
	}

	c.records++
	return Record{Text: text.String(), Vector: vector}, nil
}

func (c *Cursor) readLength() (int, error) {
	if err := c.read(c.scratch[:4]); err != nil {
		return 0, err
	}
	n := int32(binary.BigEndian.Uint32(c.scratch[:4]))
	if n < 0 {
		return 0, errors.Mark(errors.Newf("negative length %d at byte %d", n, c.offset-4), errors.ErrParse)
	}
	return int(n), nil
}

// read fills p. It returns io.EOF only if nothing at all was read.
func (c *Cursor) read(p []byte) error {
	n, err := io.ReadFull(c.r, p)
	c.offset += int64(n)
	return err
}

func (c *Cursor) incomplete(err error, start int64, field string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrapf(errors.ErrIncompleteRecord,
			"stream ended in %s of record %d starting at byte %d", field, c.records, start)
	}
	return errors.Wrapf(err, "failed to read %s of record %d", field, c.records)
}

// DecodeAll reads every record of r.
func DecodeAll(r io.Reader) ([]Record, error) {
	return DecodeAllSize(r, DefaultBufferSize)
}

// DecodeAllSize is DecodeAll with an explicit buffer size.
func DecodeAllSize(r io.Reader, bufferSize int) ([]Record, error) {
	c := NewCursor(r, bufferSize)
	var out []Record
	for {
		rec, err := c.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
