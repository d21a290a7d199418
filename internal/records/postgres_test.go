//go:build integration

package records_test

import (
	"context"
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

func TestRecords_Postgres(t *testing.T) {
	pgContainer := testdb.SetupSharedPostgres(t)
	defer pgContainer.Cleanup(t)

	ctx := context.Background()
	require.NoError(t, records.Migrate(ctx, pgContainer.DB, schema.Default()))

	r := records.New(store.New(pgContainer.DB, metrics.NewMock()), schema.Default(), events.Noop(), logger.Discard())
	reset := func(t *testing.T) {
		testdb.CleanupTables(t, pgContainer.DB, "results", "students", "instructors", "courses")
	}

	t.Run("IdentityNotReused", func(t *testing.T) {
		reset(t)

		first := mustCreate(t, r, schema.Course, records.Attributes{"name": "Go", "duration": "2 months"})
		_, err := r.DeleteEntity(ctx, schema.Course, first)
		require.NoError(t, err)

		second := mustCreate(t, r, schema.Course, records.Attributes{"name": "Go", "duration": "2 months"})
		assert.Greater(t, second, first)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		reset(t)

		mustCreate(t, r, schema.Course, records.Attributes{"name": "Rust", "duration": "1 month"})
		_, err := r.CreateEntity(ctx, schema.Course, records.Attributes{"name": "Rust", "duration": "6 weeks"})
		assert.Equal(t, apperrors.KindUniqueness, apperrors.KindOf(err))
	})

	t.Run("CascadeAndNullify", func(t *testing.T) {
		reset(t)

		courseID := mustCreate(t, r, schema.Course, records.Attributes{"name": "SQL", "duration": "1 month"})
		studentID := mustCreate(t, r, schema.Student, records.Attributes{"name": "Nadia", "course_id": courseID})
		mustCreate(t, r, schema.Result, records.Attributes{"student_id": studentID, "course_id": courseID, "grade": "A"})

		report, err := r.DeleteEntity(ctx, schema.Course, courseID)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Nullified["students.course_id"])
		assert.Equal(t, 1, report.Nullified["results.course_id"])

		report, err = r.DeleteEntity(ctx, schema.Student, studentID)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Cascaded["results"])
	})
}
