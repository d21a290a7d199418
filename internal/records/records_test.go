package records_test

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"institute-service/internal/apperrors"
	"institute-service/internal/events"
	"institute-service/internal/logger"
	"institute-service/internal/metrics"
	"institute-service/internal/records"
	"institute-service/internal/schema"
	"institute-service/internal/store"
	"institute-service/testing/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*records.Records, *events.Recorder) {
	t.Helper()

	database := testdb.NewSQLite(t)
	require.NoError(t, records.Migrate(context.Background(), database, schema.Default()))

	rec := &events.Recorder{}
	st := store.New(database, metrics.NewMock())
	return records.New(st, schema.Default(), rec, logger.Discard()), rec
}

func mustCreate(t *testing.T, r *records.Records, et schema.EntityType, attrs records.Attributes) int64 {
	t.Helper()
	id, err := r.CreateEntity(context.Background(), et, attrs)
	require.NoError(t, err)
	require.Positive(t, id)
	return id
}

func TestCreateReadRoundTrip(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	courseID := mustCreate(t, r, schema.Course, records.Attributes{
		"name": "Python", "duration": "3 months", "price": 1500.0,
	})
	instructorID := mustCreate(t, r, schema.Instructor, records.Attributes{
		"name": "Karim", "expertise": "Programming", "blood_group": "O+",
	})
	studentID := mustCreate(t, r, schema.Student, records.Attributes{
		"name":       "Amin",
		"address":    "Dhaka",
		"batch_no":   "B-12",
		"course":     "Python",
		"instructor": "Karim",
	})
	resultID := mustCreate(t, r, schema.Result, records.Attributes{
		"student_id": studentID,
		"course":     "Python",
		"grade":      "A",
	})

	t.Run("course", func(t *testing.T) {
		view, err := r.ReadEntity(ctx, schema.Course, courseID)
		require.NoError(t, err)
		assert.Equal(t, courseID, view.ID)
		assert.Equal(t, "Python", view.Attributes["name"])
		assert.Equal(t, "3 months", view.Attributes["duration"])
		assert.Equal(t, 1500.0, view.Attributes["price"])
	})

	t.Run("instructor", func(t *testing.T) {
		view, err := r.ReadEntity(ctx, schema.Instructor, instructorID)
		require.NoError(t, err)
		assert.Equal(t, "Karim", view.Attributes["name"])
		assert.Equal(t, "Programming", view.Attributes["expertise"])
		assert.Equal(t, "O+", view.Attributes["blood_group"])
		assert.Equal(t, "", view.Attributes["mobile_no"])
	})

	t.Run("student references resolve to creation-time identities", func(t *testing.T) {
		view, err := r.ReadEntity(ctx, schema.Student, studentID)
		require.NoError(t, err)
		assert.Equal(t, "Amin", view.Attributes["name"])
		assert.Equal(t, "B-12", view.Attributes["batch_no"])

		require.NotNil(t, view.References["course"].ID)
		assert.Equal(t, courseID, *view.References["course"].ID)
		assert.Equal(t, "Python", *view.References["course"].Label)
		require.NotNil(t, view.References["instructor"].ID)
		assert.Equal(t, instructorID, *view.References["instructor"].ID)
	})

	t.Run("result", func(t *testing.T) {
		view, err := r.ReadEntity(ctx, schema.Result, resultID)
		require.NoError(t, err)
		assert.Equal(t, "A", view.Attributes["grade"])
		assert.Equal(t, studentID, *view.References["student"].ID)
		assert.Equal(t, "Amin", *view.References["student"].Label)
		assert.Equal(t, courseID, *view.References["course"].ID)
		assert.Nil(t, view.References["instructor"].ID)
		assert.Nil(t, view.References["instructor"].Label)
	})

	t.Run("identity is not affected by a later relabel", func(t *testing.T) {
		require.NoError(t, r.UpdateEntity(ctx, schema.Course, courseID, records.Attributes{"name": "Python 3"}))

		view, err := r.ReadEntity(ctx, schema.Student, studentID)
		require.NoError(t, err)
		assert.Equal(t, courseID, *view.References["course"].ID)
		assert.Equal(t, "Python 3", *view.References["course"].Label)
	})
}

func TestDeleteCourseNullifiesStudentReference(t *testing.T) {
	r, rec := setup(t)
	ctx := context.Background()

	courseID := mustCreate(t, r, schema.Course, records.Attributes{"name": "Python", "duration": "3 months"})
	studentID := mustCreate(t, r, schema.Student, records.Attributes{
		"name": "Amin", "mobile_no": "0171", "course": "Python",
	})
	resultID := mustCreate(t, r, schema.Result, records.Attributes{
		"student": "Amin", "course_id": courseID, "grade": "B",
	})

	report, err := r.DeleteEntity(ctx, schema.Course, courseID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Nullified["students.course_id"])
	assert.Equal(t, 1, report.Nullified["results.course_id"])
	assert.Empty(t, report.Cascaded)

	student, err := r.ReadEntity(ctx, schema.Student, studentID)
	require.NoError(t, err)
	assert.Nil(t, student.References["course"].ID)
	assert.Nil(t, student.References["course"].Label)
	assert.Equal(t, "Amin", student.Attributes["name"])
	assert.Equal(t, "0171", student.Attributes["mobile_no"])

	result, err := r.ReadEntity(ctx, schema.Result, resultID)
	require.NoError(t, err)
	assert.Nil(t, result.References["course"].ID)
	assert.Equal(t, studentID, *result.References["student"].ID)

	changes := rec.Changes()
	last := changes[len(changes)-1]
	assert.Equal(t, events.Deleted, last.Action)
	assert.Equal(t, schema.Course, last.Entity)
	require.NotNil(t, last.Integrity)
	assert.Equal(t, 1, last.Integrity.Nullified["students.course_id"])
}

func TestDeleteStudentCascadesToResults(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	studentID := mustCreate(t, r, schema.Student, records.Attributes{"name": "Rina"})
	first := mustCreate(t, r, schema.Result, records.Attributes{"student_id": studentID, "grade": "A"})
	second := mustCreate(t, r, schema.Result, records.Attributes{"student_id": studentID, "grade": "B+"})

	other := mustCreate(t, r, schema.Student, records.Attributes{"name": "Tania"})
	kept := mustCreate(t, r, schema.Result, records.Attributes{"student_id": other, "grade": "C"})

	report, err := r.DeleteEntity(ctx, schema.Student, studentID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Cascaded["results"])

	for _, id := range []int64{first, second} {
		_, err := r.ReadEntity(ctx, schema.Result, id)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	}
	_, err = r.ReadEntity(ctx, schema.Student, studentID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = r.ReadEntity(ctx, schema.Result, kept)
	assert.NoError(t, err)
}

func TestDuplicateCourseNameLeavesTableUnchanged(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	mustCreate(t, r, schema.Course, records.Attributes{"name": "Python", "duration": "3 months"})
	before, err := r.ListEntities(ctx, schema.Course, records.ListOptions{})
	require.NoError(t, err)

	_, err = r.CreateEntity(ctx, schema.Course, records.Attributes{"name": "Python", "duration": "6 months"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUniqueness, apperrors.KindOf(err))

	_, err = r.CreateEntity(ctx, schema.Course, records.Attributes{"name": "  Python ", "duration": "6 months"})
	assert.Equal(t, apperrors.KindUniqueness, apperrors.KindOf(err))

	after, err := r.ListEntities(ctx, schema.Course, records.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestRenameCourseToTakenName(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	mustCreate(t, r, schema.Course, records.Attributes{"name": "Python", "duration": "3 months"})
	goID := mustCreate(t, r, schema.Course, records.Attributes{"name": "Go", "duration": "2 months"})

	err := r.UpdateEntity(ctx, schema.Course, goID, records.Attributes{"name": "Python"})
	assert.Equal(t, apperrors.KindUniqueness, apperrors.KindOf(err))

	// Renaming to its own name is not a collision.
	assert.NoError(t, r.UpdateEntity(ctx, schema.Course, goID, records.Attributes{"name": "Go"}))
}

func TestAmbiguousStudentLabel(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	a := mustCreate(t, r, schema.Student, records.Attributes{"name": "Amin"})
	b := mustCreate(t, r, schema.Student, records.Attributes{"name": "Amin"})

	_, err := r.ResolveLabel(ctx, schema.Student, "Amin")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAmbiguousReference)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []int64{a, b}, appErr.IDs)

	t.Run("create by ambiguous label fails", func(t *testing.T) {
		_, err := r.CreateEntity(ctx, schema.Result, records.Attributes{"student": "Amin", "grade": "A"})
		assert.ErrorIs(t, err, apperrors.ErrAmbiguousReference)

		results, err := r.ListEntities(ctx, schema.Result, records.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("identity form disambiguates", func(t *testing.T) {
		id, err := r.CreateEntity(ctx, schema.Result, records.Attributes{"student_id": b, "grade": "A"})
		require.NoError(t, err)

		view, err := r.ReadEntity(ctx, schema.Result, id)
		require.NoError(t, err)
		assert.Equal(t, b, *view.References["student"].ID)
	})
}

func TestDeleteTwiceReturnsNotFound(t *testing.T) {
	r, rec := setup(t)
	ctx := context.Background()

	for _, et := range []schema.EntityType{schema.Course, schema.Instructor, schema.Student} {
		t.Run(string(et), func(t *testing.T) {
			attrs := records.Attributes{"name": "Once " + string(et)}
			if et == schema.Course {
				attrs["duration"] = "1 month"
			}
			id := mustCreate(t, r, et, attrs)

			_, err := r.DeleteEntity(ctx, et, id)
			require.NoError(t, err)

			published := len(rec.Changes())
			_, err = r.DeleteEntity(ctx, et, id)
			assert.ErrorIs(t, err, apperrors.ErrNotFound)
			assert.Len(t, rec.Changes(), published, "failed delete publishes nothing")
		})
	}
}

func TestPartialUpdateKeepsReferences(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	courseID := mustCreate(t, r, schema.Course, records.Attributes{"name": "Python", "duration": "3 months"})
	instructorID := mustCreate(t, r, schema.Instructor, records.Attributes{"name": "Karim"})
	studentID := mustCreate(t, r, schema.Student, records.Attributes{"name": "Amin"})
	resultID := mustCreate(t, r, schema.Result, records.Attributes{
		"student": "Amin", "course": "Python", "instructor": "Karim", "grade": "B",
	})

	require.NoError(t, r.UpdateEntity(ctx, schema.Result, resultID, records.Attributes{"grade": "A+"}))

	view, err := r.ReadEntity(ctx, schema.Result, resultID)
	require.NoError(t, err)
	assert.Equal(t, "A+", view.Attributes["grade"])
	assert.Equal(t, studentID, *view.References["student"].ID)
	assert.Equal(t, courseID, *view.References["course"].ID)
	assert.Equal(t, instructorID, *view.References["instructor"].ID)
}

func TestUpdateReferences(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	mustCreate(t, r, schema.Course, records.Attributes{"name": "Python", "duration": "3 months"})
	goID := mustCreate(t, r, schema.Course, records.Attributes{"name": "Go", "duration": "2 months"})
	studentID := mustCreate(t, r, schema.Student, records.Attributes{"name": "Amin", "course": "Python"})

	t.Run("switch by label", func(t *testing.T) {
		require.NoError(t, r.UpdateEntity(ctx, schema.Student, studentID, records.Attributes{"course": "Go"}))
		view, err := r.ReadEntity(ctx, schema.Student, studentID)
		require.NoError(t, err)
		assert.Equal(t, goID, *view.References["course"].ID)
		assert.Equal(t, studentID, view.ID)
	})

	t.Run("clear with null", func(t *testing.T) {
		require.NoError(t, r.UpdateEntity(ctx, schema.Student, studentID, records.Attributes{"course_id": nil}))
		view, err := r.ReadEntity(ctx, schema.Student, studentID)
		require.NoError(t, err)
		assert.Nil(t, view.References["course"].ID)
	})

	t.Run("unknown label leaves row unchanged", func(t *testing.T) {
		err := r.UpdateEntity(ctx, schema.Student, studentID, records.Attributes{
			"name":   "Changed",
			"course": "Rust",
		})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		view, err := r.ReadEntity(ctx, schema.Student, studentID)
		require.NoError(t, err)
		assert.Equal(t, "Amin", view.Attributes["name"])
	})

	t.Run("required reference cannot be cleared", func(t *testing.T) {
		resultID := mustCreate(t, r, schema.Result, records.Attributes{"student_id": studentID, "grade": "A"})
		err := r.UpdateEntity(ctx, schema.Result, resultID, records.Attributes{"student": ""})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("missing identity", func(t *testing.T) {
		err := r.UpdateEntity(ctx, schema.Student, 9999, records.Attributes{"name": "Ghost"})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestCourseAttributes(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	id := mustCreate(t, r, schema.Course, records.Attributes{"name": "Python", "duration": "3 months", "price": 10})

	require.NoError(t, r.UpdateEntity(ctx, schema.Course, id, records.Attributes{"price": nil}))
	view, err := r.ReadEntity(ctx, schema.Course, id)
	require.NoError(t, err)
	assert.Nil(t, view.Attributes["price"])
	assert.Equal(t, "3 months", view.Attributes["duration"])

	err = r.UpdateEntity(ctx, schema.Course, id, records.Attributes{"price": -5})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAttributeValidation(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()
	mustCreate(t, r, schema.Course, records.Attributes{"name": "Python", "duration": "3 months"})

	tests := []struct {
		name   string
		entity schema.EntityType
		attrs  records.Attributes
		field  string
	}{
		{"missing required name", schema.Course, records.Attributes{"duration": "1 month"}, "name"},
		{"blank name", schema.Instructor, records.Attributes{"name": "   "}, "name"},
		{"negative price", schema.Course, records.Attributes{"name": "Go", "duration": "1 month", "price": -1.5}, "price"},
		{"price as text", schema.Course, records.Attributes{"name": "Go", "duration": "1 month", "price": "cheap"}, "price"},
		{"unknown attribute", schema.Student, records.Attributes{"name": "Amin", "age": 20}, "age"},
		{"caller supplied identity", schema.Student, records.Attributes{"id": 7, "name": "Amin"}, "id"},
		{"result without student", schema.Result, records.Attributes{"grade": "A"}, "student"},
		{"result without grade", schema.Result, records.Attributes{"student_id": 1}, "grade"},
		{"both reference forms", schema.Student, records.Attributes{"name": "Amin", "course": "Python", "course_id": 1}, "course"},
		{"fractional identity", schema.Student, records.Attributes{"name": "Amin", "course_id": 1.5}, "course_id"},
		{"name as number", schema.Student, records.Attributes{"name": 12}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.CreateEntity(ctx, tt.entity, tt.attrs)
			require.Error(t, err)

			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.KindValidation, appErr.Kind)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}

	courses, err := r.ListEntities(ctx, schema.Course, records.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestListOrderingAndFilters(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	python := mustCreate(t, r, schema.Course, records.Attributes{"name": "Python", "duration": "3 months"})
	mustCreate(t, r, schema.Course, records.Attributes{"name": "Go", "duration": "2 months"})

	zara := mustCreate(t, r, schema.Student, records.Attributes{"name": "Zara", "course": "Python"})
	amin := mustCreate(t, r, schema.Student, records.Attributes{"name": "Amin", "course": "Go"})
	mina := mustCreate(t, r, schema.Student, records.Attributes{"name": "Mina", "course_id": python})

	ids := func(views []records.View) []int64 {
		out := make([]int64, 0, len(views))
		for _, v := range views {
			out = append(out, v.ID)
		}
		return out
	}

	views, err := r.ListEntities(ctx, schema.Student, records.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int64{zara, amin, mina}, ids(views))
	assert.Equal(t, "Python", *views[0].References["course"].Label)

	views, err = r.ListEntities(ctx, schema.Student, records.ListOptions{OrderBy: "name"})
	require.NoError(t, err)
	assert.Equal(t, []int64{amin, mina, zara}, ids(views))

	views, err = r.ListEntities(ctx, schema.Student, records.ListOptions{Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{mina, amin, zara}, ids(views))

	views, err = r.ListEntities(ctx, schema.Student, records.ListOptions{CourseID: &python})
	require.NoError(t, err)
	assert.Equal(t, []int64{zara, mina}, ids(views))

	views, err = r.ListEntities(ctx, schema.Student, records.ListOptions{Search: "MIN"})
	require.NoError(t, err)
	assert.Equal(t, []int64{amin, mina}, ids(views))

	_, err = r.ListEntities(ctx, schema.Course, records.ListOptions{StudentID: &zara})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = r.ListEntities(ctx, schema.Course, records.ListOptions{OrderBy: "price"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLabels(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	id := mustCreate(t, r, schema.Course, records.Attributes{"name": "Python", "duration": "3 months"})

	got, err := r.ResolveLabel(ctx, schema.Course, " Python ")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	label, err := r.LabelOf(ctx, schema.Course, id)
	require.NoError(t, err)
	assert.Equal(t, "Python", label)

	_, err = r.ResolveLabel(ctx, schema.Course, "python")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = r.LabelOf(ctx, schema.Course, id+100)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = r.ResolveLabel(ctx, schema.Result, "A")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestIdentitiesAreNotReused(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	first := mustCreate(t, r, schema.Instructor, records.Attributes{"name": "Karim"})
	second := mustCreate(t, r, schema.Instructor, records.Attributes{"name": "Rahim"})
	_, err := r.DeleteEntity(ctx, schema.Instructor, second)
	require.NoError(t, err)

	third := mustCreate(t, r, schema.Instructor, records.Attributes{"name": "Salma"})
	assert.Greater(t, third, second)
	assert.Greater(t, second, first)
}

func TestConcurrentCreatesOfSameCourse(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	const callers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.CreateEntity(ctx, schema.Course, records.Attributes{"name": "Python", "duration": "3 months"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if apperrors.KindOf(err) == apperrors.KindUniqueness {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, callers-1, rejected)
}

func TestChangesArePublishedAfterCommit(t *testing.T) {
	r, rec := setup(t)
	ctx := context.Background()

	id := mustCreate(t, r, schema.Course, records.Attributes{"name": "Python", "duration": "3 months"})
	require.NoError(t, r.UpdateEntity(ctx, schema.Course, id, records.Attributes{"duration": "4 months"}))
	_, err := r.CreateEntity(ctx, schema.Course, records.Attributes{"name": "Python", "duration": "1 month"})
	require.Error(t, err)

	changes := rec.Changes()
	require.Len(t, changes, 2)
	assert.Equal(t, events.Created, changes[0].Action)
	assert.Equal(t, id, changes[0].ID)
	assert.Equal(t, events.Updated, changes[1].Action)
	assert.Equal(t, "course:"+itoa(id), changes[1].Key())
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
