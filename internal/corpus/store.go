package corpus

import "estateqa/internal/domain"

// Store holds a corpus snapshot and answers id lookups. It is built once
// and read-only afterwards, so concurrent queries need no locking.
type Store struct {
	byID map[int64]domain.Document
	docs []domain.Document
}

// NewStore indexes documents by id. Builder output is already collision
// free, so duplicates here simply keep the first occurrence.
func NewStore(docs []domain.Document) *Store {
	s := &Store{
		byID: make(map[int64]domain.Document, len(docs)),
		docs: docs,
	}
	for _, d := range docs {
		if _, ok := s.byID[d.ID]; !ok {
			s.byID[d.ID] = d
		}
	}
	return s
}

// Get returns the document for id, if present.
func (s *Store) Get(id int64) (domain.Document, bool) {
	d, ok := s.byID[id]
	return d, ok
}

// Len returns the number of documents in the snapshot.
func (s *Store) Len() int { return len(s.docs) }

// Documents returns the snapshot in original corpus order.
func (s *Store) Documents() []domain.Document { return s.docs }
