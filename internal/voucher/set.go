package voucher

// mapIDSet implements IDSet using a map for O(1) lookups.
type mapIDSet struct {
	ids map[string]struct{}
}

// NewIDSet builds a set from ids. Empty ids are ignored.
func NewIDSet(ids []string) IDSet {
	s := &mapIDSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

// Contains checks if an id exists in the set.
func (s *mapIDSet) Contains(id string) bool {
	_, exists := s.ids[id]
	return exists
}

// containsAny reports whether any of ids is in set.
func containsAny(set IDSet, ids []string) bool {
	for _, id := range ids {
		if set.Contains(id) {
			return true
		}
	}
	return false
}
