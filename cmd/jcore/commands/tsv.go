package commands

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/julielab/jcore/embedding"
	"github.com/julielab/jcore/errors"
)

// readTSV parses lines of the form "text<TAB>v1 v2 ...". Blank lines are
// skipped; the text may contain spaces but no tab.
func readTSV(r io.Reader) ([]embedding.Record, error) {
	br := bufio.NewReader(r)
	var records []embedding.Record
	for line := 1; ; line++ {
		raw, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, "failed to read line %d", line)
		}
		s := strings.TrimRight(raw, "\r\n")
		if s != "" {
			rec, perr := parseTSVLine(s)
			if perr != nil {
				return nil, errors.Wrapf(perr, "line %d", line)
			}
			records = append(records, rec)
		}
		if err == io.EOF {
			return records, nil
		}
	}
}

func parseTSVLine(s string) (embedding.Record, error) {
	text, values, ok := strings.Cut(s, "\t")
	if !ok {
		return embedding.Record{}, errors.WithHint(
			errors.Mark(errors.New("missing tab between text and vector"), errors.ErrParse),
			"expected text<TAB>v1 v2 ...")
	}
	fields := strings.Fields(values)
	vec := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return embedding.Record{}, errors.Mark(errors.Wrapf(err, "component %d", i), errors.ErrParse)
		}
		vec[i] = v
	}
	return embedding.Record{Text: text, Vector: vec}, nil
}

// formatVector renders v space-separated with the shortest exact float form.
func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func writeTSV(w io.Writer, rec embedding.Record) error {
	_, err := io.WriteString(w, rec.Text+"\t"+formatVector(rec.Vector)+"\n")
	return err
}
