// Package schema declares the institute's entities, their attributes and the
// foreign-key relationships between them together with the delete policy of
// every relationship. Migrations, the identity resolver, the attribute-map
// validation and the integrity enforcer all read from the same Schema.
package schema

import (
	"fmt"
	"strings"

	"institute-service/internal/apperrors"
)

type EntityType string

const (
	Course     EntityType = "course"
	Instructor EntityType = "instructor"
	Student    EntityType = "student"
	Result     EntityType = "result"
)

// ParseEntityType accepts the singular or plural form, case-insensitively.
func ParseEntityType(s string) (EntityType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "course", "courses":
		return Course, nil
	case "instructor", "instructors":
		return Instructor, nil
	case "student", "students":
		return Student, nil
	case "result", "results":
		return Result, nil
	}
	return "", apperrors.Validation("", "entity", "unknown entity type %q", s)
}

// Policy is the action taken on dependent rows when the target of a
// relationship is deleted.
type Policy string

const (
	Cascade  Policy = "CASCADE"
	Nullify  Policy = "NULLIFY"
	Restrict Policy = "RESTRICT"
)

// SQL returns the ON DELETE clause for the policy.
func (p Policy) SQL() string {
	switch p {
	case Nullify:
		return "SET NULL"
	case Cascade:
		return "CASCADE"
	default:
		return "RESTRICT"
	}
}

type Kind int

const (
	Text Kind = iota
	Number
)

func (k Kind) String() string {
	if k == Number {
		return "number"
	}
	return "text"
}

// Attribute is a scalar column of an entity. Relationship columns are
// described by Relation instead.
type Attribute struct {
	Name     string
	Kind     Kind
	Required bool
	Unique   bool
}

// Relation is a foreign key from Owner.Column to Target's identity.
// Callers address it either by Attribute (label form) or Column (identity
// form).
type Relation struct {
	Owner     EntityType
	Attribute string
	Column    string
	Target    EntityType
	Nullable  bool
	OnDelete  Policy
}

func (r Relation) String() string {
	return fmt.Sprintf("%s.%s -> %s (%s)", r.Owner, r.Column, r.Target, r.OnDelete)
}

type Entity struct {
	Type  EntityType
	Table string
	// LabelColumn is the human-readable column used by the resolver.
	// Empty when the entity has no label.
	LabelColumn string
	Attributes  []Attribute
}

// Attribute looks up a scalar attribute by name.
func (e Entity) Attribute(name string) (Attribute, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

type Schema struct {
	order     []EntityType
	entities  map[EntityType]Entity
	relations []Relation
}

// New builds a schema. Entities must be listed so that every relation
// target appears before its owner; migrations create tables in that order.
func New(entities []Entity, relations []Relation) (*Schema, error) {
	s := &Schema{
		entities: make(map[EntityType]Entity, len(entities)),
	}
	tables := make(map[string]bool, len(entities))
	position := make(map[EntityType]int, len(entities))

	for i, e := range entities {
		if e.Type == "" || e.Table == "" {
			return nil, fmt.Errorf("schema: entity %d has no type or table", i)
		}
		if _, dup := s.entities[e.Type]; dup {
			return nil, fmt.Errorf("schema: duplicate entity %s", e.Type)
		}
		if tables[e.Table] {
			return nil, fmt.Errorf("schema: duplicate table %s", e.Table)
		}
		if e.LabelColumn != "" {
			if _, ok := e.Attribute(e.LabelColumn); !ok {
				return nil, fmt.Errorf("schema: %s label column %s is not an attribute", e.Type, e.LabelColumn)
			}
		}
		tables[e.Table] = true
		position[e.Type] = i
		s.entities[e.Type] = e
		s.order = append(s.order, e.Type)
	}

	columns := make(map[string]bool, len(relations))
	for _, r := range relations {
		owner, ok := s.entities[r.Owner]
		if !ok {
			return nil, fmt.Errorf("schema: relation %s has unknown owner", r)
		}
		if _, ok := s.entities[r.Target]; !ok {
			return nil, fmt.Errorf("schema: relation %s has unknown target", r)
		}
		if r.Column == "" || r.Attribute == "" {
			return nil, fmt.Errorf("schema: relation %s needs a column and an attribute", r)
		}
		switch r.OnDelete {
		case Cascade, Nullify, Restrict:
		default:
			return nil, fmt.Errorf("schema: relation %s has unknown policy", r)
		}
		if r.OnDelete == Nullify && !r.Nullable {
			return nil, fmt.Errorf("schema: relation %s cannot nullify a required reference", r)
		}
		if position[r.Target] >= position[r.Owner] {
			return nil, fmt.Errorf("schema: relation %s target must be declared before its owner", r)
		}
		key := string(r.Owner) + "." + r.Column
		if columns[key] {
			return nil, fmt.Errorf("schema: duplicate relation column %s", key)
		}
		if _, clash := owner.Attribute(r.Column); clash {
			return nil, fmt.Errorf("schema: relation column %s clashes with an attribute", key)
		}
		columns[key] = true
		s.relations = append(s.relations, r)
	}

	return s, nil
}

// MustNew is New that panics on an invalid declaration.
func MustNew(entities []Entity, relations []Relation) *Schema {
	s, err := New(entities, relations)
	if err != nil {
		panic(err)
	}
	return s
}

// Types returns the entity types in declaration (creation) order.
func (s *Schema) Types() []EntityType {
	out := make([]EntityType, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Schema) Entity(t EntityType) (Entity, bool) {
	e, ok := s.entities[t]
	return e, ok
}

// Relations returns every relation in declaration order.
func (s *Schema) Relations() []Relation {
	out := make([]Relation, len(s.relations))
	copy(out, s.relations)
	return out
}

// RelationsOf returns the relations owned by t.
func (s *Schema) RelationsOf(t EntityType) []Relation {
	var out []Relation
	for _, r := range s.relations {
		if r.Owner == t {
			out = append(out, r)
		}
	}
	return out
}

// RelationsTargeting returns the relations whose target is t.
func (s *Schema) RelationsTargeting(t EntityType) []Relation {
	var out []Relation
	for _, r := range s.relations {
		if r.Target == t {
			out = append(out, r)
		}
	}
	return out
}

// Relation finds a relation of owner by its attribute or column name.
func (s *Schema) Relation(owner EntityType, name string) (Relation, bool) {
	for _, r := range s.relations {
		if r.Owner == owner && (r.Attribute == name || r.Column == name) {
			return r, true
		}
	}
	return Relation{}, false
}
