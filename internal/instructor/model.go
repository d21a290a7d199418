package instructor

import (
	"github.com/uptrace/bun"
)

type Instructor struct {
	bun.BaseModel `bun:"table:instructors,alias:i"`

	ID         int64  `bun:"id,pk,autoincrement" json:"id"`
	Name       string `bun:"name,notnull" json:"name"`
	FatherName string `bun:"father_name" json:"father_name"`
	MotherName string `bun:"mother_name" json:"mother_name"`
	BloodGroup string `bun:"blood_group" json:"blood_group"`
	MobileNo   string `bun:"mobile_no" json:"mobile_no"`
	Expertise  string `bun:"expertise" json:"expertise"`
}

type Input struct {
	Name       *string `mapstructure:"name" validate:"omitnil,notblank,max=200"`
	FatherName *string `mapstructure:"father_name" validate:"omitnil,max=200"`
	MotherName *string `mapstructure:"mother_name" validate:"omitnil,max=200"`
	BloodGroup *string `mapstructure:"blood_group" validate:"omitnil,max=10"`
	MobileNo   *string `mapstructure:"mobile_no" validate:"omitnil,max=30"`
	Expertise  *string `mapstructure:"expertise" validate:"omitnil,max=200"`
}

func (in Input) apply(i *Instructor) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&i.Name, in.Name)
	set(&i.FatherName, in.FatherName)
	set(&i.MotherName, in.MotherName)
	set(&i.BloodGroup, in.BloodGroup)
	set(&i.MobileNo, in.MobileNo)
	set(&i.Expertise, in.Expertise)
}
