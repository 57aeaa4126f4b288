package spoke

import "slices"

// Query describes which archetypes a query matches. An archetype matches
// if it contains all of the With types and none of the Without types.
type Query struct {
	With    []*ComponentType
	Without []*ComponentType
}

func (q *Query) AddWith(componentType *ComponentType) {
	if !slices.Contains(q.With, componentType) {
		q.With = append(q.With, componentType)
	}
}

func (q *Query) AddWithout(componentType *ComponentType) {
	if !slices.Contains(q.Without, componentType) {
		q.Without = append(q.Without, componentType)
	}
}

func (q *Query) MatchesArchetype(archetype *Archetype) bool {
	for _, ty := range q.With {
		if !archetype.ContainsType(ty) {
			return false
		}
	}

	for _, ty := range q.Without {
		if archetype.ContainsType(ty) {
			return false
		}
	}

	return true
}
