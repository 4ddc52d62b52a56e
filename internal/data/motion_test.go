package data

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newMotionMockDB(t *testing.T) (sqlmock.Sqlmock, MotionModel, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return mock, MotionModel{DB: db}, func() { db.Close() }
}

func TestMarkViewed_ScopedThroughCameraOwner(t *testing.T) {
	mock, model, cleanup := newMotionMockDB(t)
	defer cleanup()

	eventID := uuid.New()
	userID := uuid.New()
	mock.ExpectExec(`UPDATE motion_events SET viewed = TRUE\s+FROM cameras`).
		WithArgs(eventID, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := model.MarkViewed(context.Background(), eventID, userID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkViewed_OtherUsersEventIsNotFound(t *testing.T) {
	mock, model, cleanup := newMotionMockDB(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE motion_events SET viewed = TRUE\s+FROM cameras`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := model.MarkViewed(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
