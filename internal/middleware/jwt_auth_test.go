package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/truevault/tv-dvr/internal/middleware"
	"github.com/truevault/tv-dvr/internal/tokens"
)

func protectedHandler(t *testing.T, wantUser uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := middleware.GetAuthContext(r.Context())
		if !ok {
			t.Error("expected auth context")
			return
		}
		if ac.UserID != wantUser {
			t.Errorf("expected user %s, got %s", wantUser, ac.UserID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTAuth_ValidToken(t *testing.T) {
	mgr := tokens.NewManager("test-key")
	userID := uuid.New()
	token, err := mgr.GenerateAccessToken(userID.String())
	if err != nil {
		t.Fatal(err)
	}

	mw := middleware.NewJWTAuth(mgr)
	req := httptest.NewRequest("GET", "/api/v1/cameras", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	mw.Middleware(protectedHandler(t, userID)).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	mw := middleware.NewJWTAuth(tokens.NewManager("test-key"))

	req := httptest.NewRequest("GET", "/api/v1/cameras", nil)
	w := httptest.NewRecorder()
	mw.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not run")
	})).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_RefreshTokenRejected(t *testing.T) {
	mgr := tokens.NewManager("test-key")
	token, _ := mgr.GenerateRefreshToken(uuid.New().String())

	mw := middleware.NewJWTAuth(mgr)
	req := httptest.NewRequest("GET", "/api/v1/cameras", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mw.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not run")
	})).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_NonUUIDSubjectRejected(t *testing.T) {
	mgr := tokens.NewManager("test-key")
	token, _ := mgr.GenerateAccessToken("not-a-uuid")

	mw := middleware.NewJWTAuth(mgr)
	req := httptest.NewRequest("GET", "/api/v1/cameras", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mw.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not run")
	})).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}
