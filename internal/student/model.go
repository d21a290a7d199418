package student

import (
	"institute-service/internal/resolver"

	"github.com/uptrace/bun"
)

type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id"`
	Name         string `bun:"name,notnull" json:"name"`
	FatherName   string `bun:"father_name" json:"father_name"`
	MotherName   string `bun:"mother_name" json:"mother_name"`
	Address      string `bun:"address" json:"address"`
	BloodGroup   string `bun:"blood_group" json:"blood_group"`
	MobileNo     string `bun:"mobile_no" json:"mobile_no"`
	CourseID     *int64 `bun:"course_id" json:"course_id"`
	InstructorID *int64 `bun:"instructor_id" json:"instructor_id"`
	BatchNo      string `bun:"batch_no" json:"batch_no"`

	// Labels of the referenced rows, filled by joins on read.
	CourseName     *string `bun:"course_name,scanonly" json:"course_name"`
	InstructorName *string `bun:"instructor_name,scanonly" json:"instructor_name"`
}

type Input struct {
	Name       *string `mapstructure:"name" validate:"omitnil,notblank,max=200"`
	FatherName *string `mapstructure:"father_name" validate:"omitnil,max=200"`
	MotherName *string `mapstructure:"mother_name" validate:"omitnil,max=200"`
	Address    *string `mapstructure:"address" validate:"omitnil,max=500"`
	BloodGroup *string `mapstructure:"blood_group" validate:"omitnil,max=10"`
	MobileNo   *string `mapstructure:"mobile_no" validate:"omitnil,max=30"`
	BatchNo    *string `mapstructure:"batch_no" validate:"omitnil,max=50"`

	// Nil keeps the current reference; a zero Ref clears it.
	Course     *resolver.Ref `mapstructure:"-"`
	Instructor *resolver.Ref `mapstructure:"-"`
}

func (in Input) apply(s *Student) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&s.Name, in.Name)
	set(&s.FatherName, in.FatherName)
	set(&s.MotherName, in.MotherName)
	set(&s.Address, in.Address)
	set(&s.BloodGroup, in.BloodGroup)
	set(&s.MobileNo, in.MobileNo)
	set(&s.BatchNo, in.BatchNo)
}
