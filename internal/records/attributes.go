package records

import (
	"encoding/json"
	"math"
	"strings"

	"institute-service/internal/apperrors"
	"institute-service/internal/resolver"
	"institute-service/internal/schema"

	"github.com/go-viper/mapstructure/v2"
)

// Attributes is the loosely typed attribute map callers submit. Keys are
// attribute names; a relationship is addressed by its label form
// ("course": "Python") or its identity form ("course_id": 3).
type Attributes map[string]any

// prepared is an attribute map checked against the schema.
type prepared struct {
	scalars map[string]any
	cleared map[string]bool
	refs    map[string]*resolver.Ref
}

func prepare(s *schema.Schema, t schema.EntityType, attrs Attributes, create bool) (*prepared, error) {
	entity, ok := s.Entity(t)
	if !ok {
		return nil, apperrors.Validation(string(t), "", "unknown entity type")
	}
	name := string(t)

	p := &prepared{
		scalars: map[string]any{},
		cleared: map[string]bool{},
		refs:    map[string]*resolver.Ref{},
	}

	for key, value := range attrs {
		if key == "id" {
			return nil, apperrors.Validation(name, "id", "identity is assigned by the system")
		}

		if attr, ok := entity.Attribute(key); ok {
			if err := p.scalar(name, attr, value); err != nil {
				return nil, err
			}
			continue
		}

		if rel, ok := s.Relation(t, key); ok {
			if _, dup := p.refs[rel.Attribute]; dup {
				return nil, apperrors.Validation(name, rel.Attribute, "give either %s or %s", rel.Attribute, rel.Column)
			}
			ref, err := reference(name, rel, key, value)
			if err != nil {
				return nil, err
			}
			p.refs[rel.Attribute] = ref
			continue
		}

		return nil, apperrors.Validation(name, key, "unknown attribute")
	}

	if create {
		for _, attr := range entity.Attributes {
			if _, ok := p.scalars[attr.Name]; attr.Required && !ok {
				return nil, apperrors.Validation(name, attr.Name, "is required")
			}
		}
		for _, rel := range s.RelationsOf(t) {
			if ref, ok := p.refs[rel.Attribute]; !rel.Nullable && (!ok || ref.IsZero()) {
				return nil, apperrors.Validation(name, rel.Attribute, "is required")
			}
		}
	}
	return p, nil
}

func (p *prepared) scalar(entity string, attr schema.Attribute, value any) error {
	if value == nil {
		if attr.Required {
			return apperrors.Validation(entity, attr.Name, "is required")
		}
		if attr.Kind == schema.Text {
			p.scalars[attr.Name] = ""
		} else {
			p.cleared[attr.Name] = true
		}
		return nil
	}

	switch attr.Kind {
	case schema.Text:
		s, ok := value.(string)
		if !ok {
			return apperrors.Validation(entity, attr.Name, "must be text")
		}
		s = strings.TrimSpace(s)
		if s == "" && attr.Required {
			return apperrors.Validation(entity, attr.Name, "is required")
		}
		p.scalars[attr.Name] = s
	case schema.Number:
		f, ok := toFloat(value)
		if !ok {
			return apperrors.Validation(entity, attr.Name, "must be a number")
		}
		p.scalars[attr.Name] = f
	}
	return nil
}

func reference(entity string, rel schema.Relation, key string, value any) (*resolver.Ref, error) {
	if value == nil {
		return resolver.None(), nil
	}

	if key == rel.Attribute {
		label, ok := value.(string)
		if !ok {
			return nil, apperrors.Validation(entity, key, "must be a label")
		}
		label = strings.TrimSpace(label)
		if label == "" {
			return resolver.None(), nil
		}
		return resolver.ByLabel(label), nil
	}

	f, ok := toFloat(value)
	if !ok || f != math.Trunc(f) || f <= 0 {
		return nil, apperrors.Validation(entity, key, "must be a positive identity")
	}
	return resolver.ByID(int64(f)), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// decode fills a typed input from the checked scalars.
func decode(entity string, scalars map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(scalars); err != nil {
		return apperrors.Validation(entity, "", "%v", err)
	}
	return nil
}
