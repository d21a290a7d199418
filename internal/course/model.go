package course

import (
	"github.com/uptrace/bun"
)

type Course struct {
	bun.BaseModel `bun:"table:courses,alias:c"`

	ID       int64    `bun:"id,pk,autoincrement" json:"id"`
	Name     string   `bun:"name,notnull,unique" json:"name"`
	Duration string   `bun:"duration,notnull" json:"duration"`
	Price    *float64 `bun:"price" json:"price"`
}

// Input carries the attributes of a create or partial update. Nil fields
// are left unchanged on update.
type Input struct {
	Name     *string  `mapstructure:"name" validate:"omitnil,notblank,max=200"`
	Duration *string  `mapstructure:"duration" validate:"omitnil,notblank,max=100"`
	Price    *float64 `mapstructure:"price" validate:"omitnil,gte=0"`
	// ClearPrice removes a stored price.
	ClearPrice bool `mapstructure:"-"`
}

func (in Input) apply(c *Course) {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Duration != nil {
		c.Duration = *in.Duration
	}
	if in.Price != nil {
		price := *in.Price
		c.Price = &price
	}
	if in.ClearPrice {
		c.Price = nil
	}
}
