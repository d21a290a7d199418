package result

import (
	"institute-service/internal/resolver"

	"github.com/uptrace/bun"
)

type Result struct {
	bun.BaseModel `bun:"table:results,alias:r"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id"`
	StudentID    int64  `bun:"student_id,notnull" json:"student_id"`
	CourseID     *int64 `bun:"course_id" json:"course_id"`
	InstructorID *int64 `bun:"instructor_id" json:"instructor_id"`
	Grade        string `bun:"grade,notnull" json:"grade"`

	StudentName    *string `bun:"student_name,scanonly" json:"student_name"`
	CourseName     *string `bun:"course_name,scanonly" json:"course_name"`
	InstructorName *string `bun:"instructor_name,scanonly" json:"instructor_name"`
}

type Input struct {
	Grade *string `mapstructure:"grade" validate:"omitnil,notblank,max=20"`

	Student    *resolver.Ref `mapstructure:"-"`
	Course     *resolver.Ref `mapstructure:"-"`
	Instructor *resolver.Ref `mapstructure:"-"`
}
