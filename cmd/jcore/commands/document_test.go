package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julielab/jcore/errors"
)

// row returns the first output line containing all of parts.
func row(t *testing.T, out string, parts ...string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		match := true
		for _, p := range parts {
			if !strings.Contains(line, p) {
				match = false
				break
			}
		}
		if match {
			return line
		}
	}
	t.Fatalf("no line containing %q in:\n%s", parts, out)
	return ""
}

func TestPath_Values(t *testing.T) {
	typesPath, docPath := writeDocument(t)

	var out bytes.Buffer
	require.NoError(t, runPath(pathOptions{
		expr: "/specificType", typesPath: typesPath, docPath: docPath, typeName: "jcore.ConceptMention",
	}, &out))
	s := out.String()
	assert.Contains(t, row(t, s, "g1"), "protein")
	assert.Contains(t, row(t, s, "g2"), "gene")
	assert.Contains(t, row(t, s, "m1"), "mention", "subtypes and the type itself are selected")

	out.Reset()
	require.NoError(t, runPath(pathOptions{
		expr: "/primary/entryId", typesPath: typesPath, docPath: docPath, typeName: "jcore.Gene",
	}, &out))
	assert.Contains(t, row(t, out.String(), "g1"), "P38398")
	assert.NotContains(t, out.String(), "m1")

	out.Reset()
	require.NoError(t, runPath(pathOptions{
		expr: "/:coveredText()", typesPath: typesPath, docPath: docPath, typeName: "jcore.Token",
	}, &out))
	assert.Contains(t, row(t, out.String(), "t1"), "cells")
}

func TestPath_Replacements(t *testing.T) {
	typesPath, docPath := writeDocument(t)
	table := writeFile(t, t.TempDir(), "types.txt", "# specific types\nprotein=Protein\n")

	var out bytes.Buffer
	require.NoError(t, runPath(pathOptions{
		expr: "/specificType", typesPath: typesPath, docPath: docPath, typeName: "jcore.Gene",
		replacementsFile: table,
	}, &out))
	assert.Contains(t, row(t, out.String(), "g1"), "Protein")
	assert.Contains(t, row(t, out.String(), "g2"), "gene", "unmapped values are kept")

	out.Reset()
	require.NoError(t, runPath(pathOptions{
		expr: "/specificType", typesPath: typesPath, docPath: docPath, typeName: "jcore.Gene",
		replacementsFile: table, replaceUnmapped: true, defaultReplacement: "OTHER",
	}, &out))
	assert.Contains(t, row(t, out.String(), "g2"), "OTHER")
}

func TestPath_Errors(t *testing.T) {
	typesPath, docPath := writeDocument(t)

	tests := []struct {
		name  string
		opts  pathOptions
		check func(error) bool
	}{
		{"parse error", pathOptions{expr: "/a[x", typesPath: typesPath, docPath: docPath, typeName: "jcore.Gene"},
			func(err error) bool { return errors.Is(err, errors.ErrParse) }},
		{"undefined feature", pathOptions{expr: "/nope", typesPath: typesPath, docPath: docPath, typeName: "jcore.Gene"},
			errors.IsConfigurationError},
		{"missing document", pathOptions{expr: "/specificType", typeName: "jcore.Gene"},
			errors.IsInvalidRequestError},
		{"bad replacements", pathOptions{expr: "/specificType", typesPath: typesPath, docPath: docPath, typeName: "jcore.Gene",
			replacementsFile: writeFile(t, t.TempDir(), "bad.txt", "a=b=c\n")},
			func(err error) bool { return errors.Is(err, errors.ErrParse) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runPath(tt.opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}

	err := runPath(pathOptions{expr: "/specificType", typesPath: typesPath, docPath: docPath, typeName: "jcore.Nope"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestCondense_CutsMarkers(t *testing.T) {
	typesPath, docPath := writeDocument(t)

	var out bytes.Buffer
	require.NoError(t, runCondense(condenseOptions{
		typesPath: typesPath, docPath: docPath,
		markerTypes: []string{"jcore.InternalReference"},
		cut:         ",;",
		collapse:    true,
		offsets:     true,
	}, &out))

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "BRCA1 binds TP53 in cells.\n"), s)
	token := row(t, s, "t1")
	assert.Contains(t, token, "[24,29)")
	assert.Contains(t, token, "[20,25)")
	assert.Contains(t, token, "cells")
	assert.Contains(t, row(t, s, "g2"), "[12,16)")
	assert.NotContains(t, s, "ref1")
}

func TestCondense_WithoutCollapse(t *testing.T) {
	typesPath, docPath := writeDocument(t)

	var out bytes.Buffer
	require.NoError(t, runCondense(condenseOptions{
		typesPath: typesPath, docPath: docPath,
		markerTypes: []string{"jcore.InternalReference"},
	}, &out))
	assert.Equal(t, "BRCA1 binds TP53  in cells.\n", out.String())
}

func TestCondense_NoMarkersOfType(t *testing.T) {
	typesPath, docPath := writeDocument(t)

	var out bytes.Buffer
	require.NoError(t, runCondense(condenseOptions{
		typesPath: typesPath, docPath: docPath,
		markerTypes: []string{"jcore.Footnote"},
		collapse:    true,
	}, &out))
	assert.Equal(t, "BRCA1 binds TP53 [3] in cells.\n", out.String())
}
