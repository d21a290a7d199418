package records

import (
	"institute-service/internal/course"
	"institute-service/internal/instructor"
	"institute-service/internal/result"
	"institute-service/internal/schema"
	"institute-service/internal/student"
)

func courseInput(p *prepared) (course.Input, error) {
	var in course.Input
	if err := decode(string(schema.Course), p.scalars, &in); err != nil {
		return in, err
	}
	in.ClearPrice = p.cleared["price"]
	return in, nil
}

func studentInput(p *prepared) (student.Input, error) {
	var in student.Input
	if err := decode(string(schema.Student), p.scalars, &in); err != nil {
		return in, err
	}
	in.Course = p.refs["course"]
	in.Instructor = p.refs["instructor"]
	return in, nil
}

func resultInput(p *prepared) (result.Input, error) {
	var in result.Input
	if err := decode(string(schema.Result), p.scalars, &in); err != nil {
		return in, err
	}
	in.Student = p.refs["student"]
	in.Course = p.refs["course"]
	in.Instructor = p.refs["instructor"]
	return in, nil
}

func courseView(c *course.Course) *View {
	var price any
	if c.Price != nil {
		price = *c.Price
	}
	return &View{
		Type: schema.Course,
		ID:   c.ID,
		Attributes: map[string]any{
			"name":     c.Name,
			"duration": c.Duration,
			"price":    price,
		},
	}
}

func instructorView(i *instructor.Instructor) *View {
	return &View{
		Type: schema.Instructor,
		ID:   i.ID,
		Attributes: map[string]any{
			"name":        i.Name,
			"father_name": i.FatherName,
			"mother_name": i.MotherName,
			"blood_group": i.BloodGroup,
			"mobile_no":   i.MobileNo,
			"expertise":   i.Expertise,
		},
	}
}

func studentView(s *student.Student) *View {
	return &View{
		Type: schema.Student,
		ID:   s.ID,
		Attributes: map[string]any{
			"name":        s.Name,
			"father_name": s.FatherName,
			"mother_name": s.MotherName,
			"address":     s.Address,
			"blood_group": s.BloodGroup,
			"mobile_no":   s.MobileNo,
			"batch_no":    s.BatchNo,
		},
		References: map[string]Reference{
			"course":     {ID: s.CourseID, Label: s.CourseName},
			"instructor": {ID: s.InstructorID, Label: s.InstructorName},
		},
	}
}

func resultView(r *result.Result) *View {
	studentID := r.StudentID
	return &View{
		Type: schema.Result,
		ID:   r.ID,
		Attributes: map[string]any{
			"grade": r.Grade,
		},
		References: map[string]Reference{
			"student":    {ID: &studentID, Label: r.StudentName},
			"course":     {ID: r.CourseID, Label: r.CourseName},
			"instructor": {ID: r.InstructorID, Label: r.InstructorName},
		},
	}
}
