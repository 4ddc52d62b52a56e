package shares

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/truevault/tv-dvr/internal/data"
)

var (
	ErrShareNotFound = errors.New("share not found")
	ErrShareExpired  = errors.New("share link expired")
)

type TokenStore interface {
	Create(ctx context.Context, s *data.ShareToken) error
	GetByToken(ctx context.Context, token string) (*data.ShareToken, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

type RecordingStore interface {
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*data.Recording, error)
	Get(ctx context.Context, id uuid.UUID) (*data.Recording, error)
}

// Grant is the caller-facing result of issuing a share.
type Grant struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service issues and resolves unauthenticated share links. Expiry is
// evaluated at resolve time; nothing revokes a token early except deleting
// its recording.
type Service struct {
	tokens     TokenStore
	recordings RecordingStore
	baseURL    string
	defaultTTL time.Duration
}

func NewService(tokens TokenStore, recordings RecordingStore, baseURL string, defaultTTL time.Duration) *Service {
	if defaultTTL == 0 {
		defaultTTL = 24 * time.Hour
	}
	return &Service{
		tokens:     tokens,
		recordings: recordings,
		baseURL:    baseURL,
		defaultTTL: defaultTTL,
	}
}

// newToken draws 32 random bytes, hex-encoded to 64 chars.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Issue creates a share link for a recording the user owns.
func (s *Service) Issue(ctx context.Context, userID, recordingID uuid.UUID, ttl time.Duration) (*Grant, error) {
	if _, err := s.recordings.GetOwned(ctx, recordingID, userID); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	share := &data.ShareToken{
		RecordingID: recordingID,
		Token:       token,
		CreatedBy:   userID,
		ExpiresAt:   time.Now().UTC().Add(ttl),
	}
	if err := s.tokens.Create(ctx, share); err != nil {
		return nil, err
	}

	return &Grant{
		Token:     token,
		URL:       fmt.Sprintf("%s/shared/%s", s.baseURL, token),
		ExpiresAt: share.ExpiresAt,
	}, nil
}

// Resolve exchanges a token for its recording. Expired wins over any other
// outcome; a deleted recording reads as NotFound because the FK cascade
// removed the token with it.
func (s *Service) Resolve(ctx context.Context, token string) (*data.Recording, error) {
	share, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}

	if !time.Now().Before(share.ExpiresAt) {
		return nil, ErrShareExpired
	}

	rec, err := s.recordings.Get(ctx, share.RecordingID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}

	if err := s.tokens.IncrementViews(ctx, share.ID); err != nil {
		return nil, err
	}
	return rec, nil
}
