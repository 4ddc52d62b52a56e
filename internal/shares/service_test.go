package shares

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/truevault/tv-dvr/internal/data"
)

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Create(ctx context.Context, s *data.ShareToken) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockTokenStore) GetByToken(ctx context.Context, token string) (*data.ShareToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.ShareToken), args.Error(1)
}

func (m *MockTokenStore) IncrementViews(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockRecordingStore struct {
	mock.Mock
}

func (m *MockRecordingStore) GetOwned(ctx context.Context, id, userID uuid.UUID) (*data.Recording, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Recording), args.Error(1)
}

func (m *MockRecordingStore) Get(ctx context.Context, id uuid.UUID) (*data.Recording, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Recording), args.Error(1)
}

func TestIssue_GeneratesHexToken(t *testing.T) {
	tokens := new(MockTokenStore)
	recs := new(MockRecordingStore)
	svc := NewService(tokens, recs, "https://dvr.example.com", 0)

	userID := uuid.New()
	recID := uuid.New()
	recs.On("GetOwned", mock.Anything, recID, userID).Return(&data.Recording{ID: recID, UserID: userID}, nil)
	tokens.On("Create", mock.Anything, mock.MatchedBy(func(s *data.ShareToken) bool {
		return s.RecordingID == recID && len(s.Token) == 64 && s.ExpiresAt.After(time.Now())
	})).Return(nil)

	grant, err := svc.Issue(context.Background(), userID, recID, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(grant.Token) != 64 {
		t.Errorf("expected 64-char token, got %d chars", len(grant.Token))
	}
	for _, c := range grant.Token {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("token contains non-hex char %q", c)
		}
	}
	if grant.URL != "https://dvr.example.com/shared/"+grant.Token {
		t.Errorf("unexpected share URL %s", grant.URL)
	}
	tokens.AssertExpectations(t)
}

func TestIssue_UnownedRecording(t *testing.T) {
	tokens := new(MockTokenStore)
	recs := new(MockRecordingStore)
	svc := NewService(tokens, recs, "https://dvr.example.com", 0)

	recs.On("GetOwned", mock.Anything, mock.Anything, mock.Anything).Return(nil, data.ErrRecordNotFound)

	_, err := svc.Issue(context.Background(), uuid.New(), uuid.New(), time.Hour)
	if !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("expected ErrShareNotFound, got %v", err)
	}
	tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolve_ValidTokenCountsView(t *testing.T) {
	tokens := new(MockTokenStore)
	recs := new(MockRecordingStore)
	svc := NewService(tokens, recs, "", 0)

	recID := uuid.New()
	share := &data.ShareToken{
		ID:          uuid.New(),
		RecordingID: recID,
		Token:       "abc",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	tokens.On("GetByToken", mock.Anything, "abc").Return(share, nil)
	recs.On("Get", mock.Anything, recID).Return(&data.Recording{ID: recID}, nil)
	tokens.On("IncrementViews", mock.Anything, share.ID).Return(nil)

	rec, err := svc.Resolve(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rec.ID != recID {
		t.Errorf("expected recording %s, got %s", recID, rec.ID)
	}
	tokens.AssertExpectations(t)
}

func TestResolve_Expired(t *testing.T) {
	tokens := new(MockTokenStore)
	recs := new(MockRecordingStore)
	svc := NewService(tokens, recs, "", 0)

	share := &data.ShareToken{
		ID:        uuid.New(),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	tokens.On("GetByToken", mock.Anything, "stale").Return(share, nil)

	_, err := svc.Resolve(context.Background(), "stale")
	if !errors.Is(err, ErrShareExpired) {
		t.Fatalf("expected ErrShareExpired, got %v", err)
	}
	tokens.AssertNotCalled(t, "IncrementViews", mock.Anything, mock.Anything)
}

func TestResolve_UnknownToken(t *testing.T) {
	tokens := new(MockTokenStore)
	recs := new(MockRecordingStore)
	svc := NewService(tokens, recs, "", 0)

	tokens.On("GetByToken", mock.Anything, "nope").Return(nil, data.ErrRecordNotFound)

	_, err := svc.Resolve(context.Background(), "nope")
	if !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("expected ErrShareNotFound, got %v", err)
	}
}

// The FK cascade removes tokens with their recording; a resolve racing the
// delete sees the recording missing and reports NotFound.
func TestResolve_DeletedRecording(t *testing.T) {
	tokens := new(MockTokenStore)
	recs := new(MockRecordingStore)
	svc := NewService(tokens, recs, "", 0)

	recID := uuid.New()
	share := &data.ShareToken{
		ID:          uuid.New(),
		RecordingID: recID,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	tokens.On("GetByToken", mock.Anything, "orphan").Return(share, nil)
	recs.On("Get", mock.Anything, recID).Return(nil, data.ErrRecordNotFound)

	_, err := svc.Resolve(context.Background(), "orphan")
	if !errors.Is(err, ErrShareNotFound) {
		t.Fatalf("expected ErrShareNotFound, got %v", err)
	}
}
