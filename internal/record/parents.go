package record

import "github.com/draftgrid/cadsel/internal/entity"

// ContainmentMap maps a block definition name to one block-reference
// entity that instantiates it. It is built once per batch: walking the
// containment chain per entity without it rescans every block for every
// entity, which is quadratic on large drawings.
type ContainmentMap struct {
	parents map[string]*entity.Entity
}

// BuildContainmentMap indexes the block references of a document.
// When a definition is instantiated more than once, the first reference
// seen wins; the chain only needs one containing parent per definition.
func BuildContainmentMap(entities []*entity.Entity) *ContainmentMap {
	m := &ContainmentMap{parents: make(map[string]*entity.Entity)}
	for _, e := range entities {
		if e.Kind != entity.KindBlockReference || e.Name == "" {
			continue
		}
		if _, ok := m.parents[e.Name]; !ok {
			m.parents[e.Name] = e
		}
	}
	return m
}

// Chain walks outward from the block definition that owns an entity to
// the nearest layout, returning the enclosing block references ordered
// outermost-first. A cycle in the containment graph terminates the walk.
func (m *ContainmentMap) Chain(ownerBlock string) []*entity.Entity {
	if m == nil || ownerBlock == "" {
		return nil
	}

	var chain []*entity.Entity
	visited := make(map[string]bool)
	current := ownerBlock
	for current != "" && !visited[current] {
		visited[current] = true
		ref, ok := m.parents[current]
		if !ok {
			break
		}
		// Prepend: the walk goes inside-out, the result reads outside-in.
		chain = append([]*entity.Entity{ref}, chain...)
		current = ref.OwnerBlock
	}
	return chain
}
