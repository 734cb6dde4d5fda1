package metadata

import (
	"fmt"
	"sync"
)

type Registry struct {
	mu         sync.RWMutex
	entities   map[string]*Entity
	byPath     map[string]*Entity
	ordered    []*Entity
	dependents map[string][]string
}

func NewRegistry() *Registry {
	return &Registry{
		entities:   make(map[string]*Entity),
		byPath:     make(map[string]*Entity),
		dependents: make(map[string][]string),
	}
}

// GetEntity returns the entity with the given name, or nil.
func (r *Registry) GetEntity(name string) *Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities[name]
}

// GetEntityByPath returns the entity routed under path, or nil.
func (r *Registry) GetEntityByPath(path string) *Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byPath[path]
}

// AllEntities returns all registered entities in declaration order.
func (r *Registry) AllEntities() []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entity, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Dependents returns the names of entities whose read views embed rows of
// the named entity, directly or through a join.
func (r *Registry) Dependents(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dependents[name]
}

// Load validates the declarations and replaces the registry contents.
func (r *Registry) Load(entities []*Entity) error {
	byName := make(map[string]*Entity, len(entities))
	byPath := make(map[string]*Entity)
	for _, e := range entities {
		if _, dup := byName[e.Name]; dup {
			return fmt.Errorf("entity %s declared twice", e.Name)
		}
		byName[e.Name] = e
		if e.Path != "" {
			if other, dup := byPath[e.Path]; dup {
				return fmt.Errorf("path %s used by %s and %s", e.Path, other.Name, e.Name)
			}
			byPath[e.Path] = e
		}
	}

	for _, e := range entities {
		if err := validateEntity(e, byName); err != nil {
			return fmt.Errorf("entity %s: %w", e.Name, err)
		}
	}

	dependents := make(map[string][]string)
	for _, e := range entities {
		seen := make(map[string]bool)
		for _, rel := range e.Relations {
			for _, target := range []string{rel.Target, rel.Join} {
				if target == "" || target == e.Name || seen[target] {
					continue
				}
				seen[target] = true
				dependents[target] = append(dependents[target], e.Name)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities = byName
	r.byPath = byPath
	r.ordered = entities
	r.dependents = dependents
	return nil
}

func validateEntity(e *Entity, byName map[string]*Entity) error {
	if e.Table == "" {
		return fmt.Errorf("missing table")
	}
	if e.Association == nil && e.PrimaryKey.Field == "" {
		return fmt.Errorf("missing primary key")
	}
	if a := e.Association; a != nil {
		if !e.HasField(a.Fixed) || !e.HasField(a.Varying) {
			return fmt.Errorf("association keys %s/%s must be declared fields", a.Fixed, a.Varying)
		}
	}
	for _, ref := range e.References {
		if !e.HasField(ref.Field) {
			return fmt.Errorf("reference on unknown field %s", ref.Field)
		}
		if byName[ref.Target] == nil {
			return fmt.Errorf("reference %s targets unknown entity %s", ref.Field, ref.Target)
		}
	}
	for _, rel := range e.Relations {
		if byName[rel.Target] == nil {
			return fmt.Errorf("relation %s targets unknown entity %s", rel.Name, rel.Target)
		}
		switch rel.Kind {
		case BelongsTo:
			if !e.HasField(rel.LocalKey) {
				return fmt.Errorf("relation %s: unknown local key %s", rel.Name, rel.LocalKey)
			}
		case HasMany:
			if !byName[rel.Target].HasField(rel.ForeignKey) {
				return fmt.Errorf("relation %s: unknown foreign key %s", rel.Name, rel.ForeignKey)
			}
		case Through:
			join := byName[rel.Join]
			if join == nil {
				return fmt.Errorf("relation %s: unknown join entity %s", rel.Name, rel.Join)
			}
			if !join.HasField(rel.SourceJoinKey) || !join.HasField(rel.TargetJoinKey) {
				return fmt.Errorf("relation %s: join keys not declared on %s", rel.Name, rel.Join)
			}
		default:
			return fmt.Errorf("relation %s: unknown kind %q", rel.Name, rel.Kind)
		}
	}
	for op, names := range e.Includes {
		for _, name := range names {
			if e.GetRelation(name) == nil {
				return fmt.Errorf("%s view includes unknown relation %s", op, name)
			}
		}
	}
	if len(e.Nested) > 0 {
		if len(e.Nested) != 2 {
			return fmt.Errorf("nested view needs exactly two relations")
		}
		via := e.GetRelation(e.Nested[0])
		if via == nil || via.Kind != HasMany {
			return fmt.Errorf("nested view: %s is not a has_many relation", e.Nested[0])
		}
		if byName[via.Target].GetRelation(e.Nested[1]) == nil {
			return fmt.Errorf("nested view: %s has no relation %s", via.Target, e.Nested[1])
		}
	}
	if e.Offers(OpSearch) && !e.HasField(e.SearchField) {
		return fmt.Errorf("search offered without a search field")
	}
	return nil
}
