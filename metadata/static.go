package metadata

import "github.com/relq/optimizer/relqerr"

// EntityDef is one entity's worth of metadata.
type EntityDef struct {
	Table      string
	Columns    map[string]string // property -> column
	PrimaryKey []string
	Nullable   map[string]bool // property -> nullable
	Relations  map[string]RelationRef
}

// RelationRef names the related entity and the kind of relation a
// property represents.
type RelationRef struct {
	Entity string
	Kind   RelationKind
}

// Static is an in-memory, read-only-after-construction Port: constructed
// once at startup, never mutated by the optimizer.
type Static struct {
	entities map[string]EntityDef
	// dependents[entity] = set of entities with an FK (many-to-one
	// relation) pointing at entity, computed once in NewStatic.
	dependents map[string]map[string]bool
}

// NewStatic builds a Static registry from entity definitions and
// pre-computes the reverse (dependent-entities) index.
func NewStatic(entities map[string]EntityDef) *Static {
	s := &Static{
		entities:   entities,
		dependents: make(map[string]map[string]bool),
	}
	for name, def := range entities {
		for _, rel := range def.Relations {
			if rel.Kind != RelationManyToOne {
				continue
			}
			if s.dependents[rel.Entity] == nil {
				s.dependents[rel.Entity] = make(map[string]bool)
			}
			s.dependents[rel.Entity][name] = true
		}
	}
	return s
}

func (s *Static) EntityExists(entity string) bool {
	_, ok := s.entities[entity]
	return ok
}

func (s *Static) lookup(op, entity string) (EntityDef, error) {
	def, ok := s.entities[entity]
	if !ok {
		return EntityDef{}, relqerr.New(op, relqerr.UnknownEntity)
	}
	return def, nil
}

func (s *Static) TableOf(entity string) (string, error) {
	def, err := s.lookup("metadata.TableOf", entity)
	if err != nil {
		return "", err
	}
	return def.Table, nil
}

func (s *Static) ColumnMap(entity string) (map[string]string, error) {
	def, err := s.lookup("metadata.ColumnMap", entity)
	if err != nil {
		return nil, err
	}
	return def.Columns, nil
}

func (s *Static) PrimaryKeyColumns(entity string) ([]string, error) {
	def, err := s.lookup("metadata.PrimaryKeyColumns", entity)
	if err != nil {
		return nil, err
	}
	return def.PrimaryKey, nil
}

// IsColumnNullable conservatively treats unknown fields as nullable.
func (s *Static) IsColumnNullable(entity, property string) (bool, error) {
	def, err := s.lookup("metadata.IsColumnNullable", entity)
	if err != nil {
		return true, err
	}
	nullable, ok := def.Nullable[property]
	if !ok {
		return true, relqerr.New("metadata.IsColumnNullable", relqerr.UnknownProperty)
	}
	return nullable, nil
}

func (s *Static) RelationKind(entity, property string) (RelationKind, error) {
	def, err := s.lookup("metadata.RelationKind", entity)
	if err != nil {
		return RelationNone, err
	}
	rel, ok := def.Relations[property]
	if !ok {
		return RelationNone, nil
	}
	return rel.Kind, nil
}

func (s *Static) DependentEntities(entity string) ([]string, error) {
	if !s.EntityExists(entity) {
		return nil, relqerr.New("metadata.DependentEntities", relqerr.UnknownEntity)
	}
	var out []string
	for dep := range s.dependents[entity] {
		out = append(out, dep)
	}
	return out, nil
}
