package am

import (
	"strings"

	"github.com/julielab/jcore/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Buffer size: 0 = default, below the bufio minimum is invalid
	if c.Embeddings.BufferSize != 0 && c.Embeddings.BufferSize < 16 {
		return errors.Newf("embeddings.buffer_size must be >= 16 or 0 for the default, got %d", c.Embeddings.BufferSize)
	}

	if c.FeaturePath.DefaultReplacement != "" && !c.FeaturePath.ReplaceUnmapped {
		return errors.WithHint(
			errors.New("featurepath.default_replacement is set but featurepath.replace_unmapped is false"),
			"set replace_unmapped = true or remove default_replacement")
	}

	for i, name := range c.Condense.MarkerTypes {
		if strings.TrimSpace(name) == "" {
			return errors.Newf("condense.marker_types[%d] is empty", i)
		}
	}

	if strings.ContainsAny(c.Condense.CutCharacters, " \t\r\n") {
		return errors.WithHint(
			errors.Newf("condense.cut_characters must not contain whitespace, got %q", c.Condense.CutCharacters),
			"use condense.collapse_whitespace for whitespace around cuts")
	}

	return nil
}
