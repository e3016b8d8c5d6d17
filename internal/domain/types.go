package domain

// Document is a single searchable listing description. It is built once by
// the corpus builder and never mutated afterwards; Text is the exact string
// that was embedded.
type Document struct {
	ID       int64
	Text     string
	Metadata map[string]string
}

// ScoredDocument pairs a retrieved document with its similarity score.
type ScoredDocument struct {
	Document Document
	Score    float64
}

// Status reports whether a query produced a grounded answer.
type Status int

const (
	StatusOK Status = iota
	StatusFailed
)

// String returns a short human-readable status label.
func (s Status) String() string {
	if s == StatusOK {
		return "ok"
	}
	return "failed"
}

// Answer is the user-facing result of a single question. Sources are the
// retrieved documents the answer was grounded on, most relevant first;
// they are empty when Status is StatusFailed.
type Answer struct {
	Text    string
	Sources []Document
	Status  Status
}
