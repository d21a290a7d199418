package schema

var defaultSchema = MustNew(
	[]Entity{
		{
			Type:        Course,
			Table:       "courses",
			LabelColumn: "name",
			Attributes: []Attribute{
				{Name: "name", Kind: Text, Required: true, Unique: true},
				{Name: "duration", Kind: Text, Required: true},
				{Name: "price", Kind: Number},
			},
		},
		{
			Type:        Instructor,
			Table:       "instructors",
			LabelColumn: "name",
			Attributes: []Attribute{
				{Name: "name", Kind: Text, Required: true},
				{Name: "father_name", Kind: Text},
				{Name: "mother_name", Kind: Text},
				{Name: "blood_group", Kind: Text},
				{Name: "mobile_no", Kind: Text},
				{Name: "expertise", Kind: Text},
			},
		},
		{
			Type:        Student,
			Table:       "students",
			LabelColumn: "name",
			Attributes: []Attribute{
				{Name: "name", Kind: Text, Required: true},
				{Name: "father_name", Kind: Text},
				{Name: "mother_name", Kind: Text},
				{Name: "address", Kind: Text},
				{Name: "blood_group", Kind: Text},
				{Name: "mobile_no", Kind: Text},
				{Name: "batch_no", Kind: Text},
			},
		},
		{
			Type:  Result,
			Table: "results",
			Attributes: []Attribute{
				{Name: "grade", Kind: Text, Required: true},
			},
		},
	},
	[]Relation{
		{Owner: Student, Attribute: "course", Column: "course_id", Target: Course, Nullable: true, OnDelete: Nullify},
		{Owner: Student, Attribute: "instructor", Column: "instructor_id", Target: Instructor, Nullable: true, OnDelete: Nullify},
		{Owner: Result, Attribute: "student", Column: "student_id", Target: Student, Nullable: false, OnDelete: Cascade},
		{Owner: Result, Attribute: "course", Column: "course_id", Target: Course, Nullable: true, OnDelete: Nullify},
		{Owner: Result, Attribute: "instructor", Column: "instructor_id", Target: Instructor, Nullable: true, OnDelete: Nullify},
	},
)

// Default returns the institute schema. The delete policies are fixed:
// weak references (course, instructor) are nullified, a result is owned by
// its student and removed with it.
func Default() *Schema {
	return defaultSchema
}
