package featurepath

import "github.com/google/uuid"

// Session records which primitive values already had a replacement written
// in the current batch. A value is identified by its structure and feature
// name; a primitive array counts as one value. Paths sharing a session
// therefore replace distinct features of one structure independently but
// never replace the same value twice.
// The caller owns the session and resets it at batch boundaries, typically
// once per document. A Session is not safe for concurrent use.
type Session struct {
	id       string
	replaced map[replacedKey]struct{}
}

type replacedKey struct {
	fs      FeatureStructure
	feature string
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{
		id:       uuid.NewString(),
		replaced: make(map[replacedKey]struct{}),
	}
}

// ID identifies the current batch in logs. Reset assigns a new one.
func (s *Session) ID() string { return s.id }

// Len is the number of values replaced in this batch.
func (s *Session) Len() int { return len(s.replaced) }

// Reset forgets all replaced values and starts a new batch.
func (s *Session) Reset() {
	clear(s.replaced)
	s.id = uuid.NewString()
}

// Replaced reports whether feature of fs had its value replaced in this
// batch. For a primitive array pass the array and an empty feature name.
func (s *Session) Replaced(fs FeatureStructure, feature string) bool {
	_, ok := s.replaced[replacedKey{fs, feature}]
	return ok
}

func (s *Session) mark(fs FeatureStructure, feature string) {
	s.replaced[replacedKey{fs, feature}] = struct{}{}
}
