package selection

import "github.com/draftgrid/cadsel/internal/entity"

// pickBucket holds the live pick-set standing in for the interactive
// pick in the active view. It is session-tagged like any bucket but
// consumed on read so repeated invocations never double-process it.
const pickBucket = "__pick"

// SetPick replaces the live pick-set with the given refs.
func (s *Store) SetPick(refs []entity.Ref, sessionToken string) error {
	entries := make([]Entry, len(refs))
	for i, r := range refs {
		entries[i] = Entry{SessionToken: sessionToken, Ref: r}
	}
	return s.Save(pickBucket, entries)
}

// TakePick reads and clears the pick-set, returning only the refs that
// belong to the given session. Clearing happens even when the filter
// leaves nothing: a stale foreign pick must not linger either.
func (s *Store) TakePick(sessionToken string) ([]entity.Ref, error) {
	entries, err := s.Load(pickBucket)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	if err := s.Clear(pickBucket); err != nil {
		return nil, err
	}

	var refs []entity.Ref
	for _, e := range FilterSession(entries, sessionToken) {
		refs = append(refs, e.Ref)
	}
	return refs, nil
}

// ClearPick discards the pick-set for every session.
func (s *Store) ClearPick() error {
	return s.Clear(pickBucket)
}

// PeekPick reads the pick-set without consuming it.
func (s *Store) PeekPick(sessionToken string) ([]entity.Ref, error) {
	entries, err := s.Load(pickBucket)
	if err != nil {
		return nil, err
	}
	var refs []entity.Ref
	for _, e := range FilterSession(entries, sessionToken) {
		refs = append(refs, e.Ref)
	}
	return refs, nil
}
