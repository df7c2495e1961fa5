package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoctorJWTMissingSecret(t *testing.T) {
	mw := DoctorJWT("")
	req := httptest.NewRequest(http.MethodGet, "/api/doctor/4/appointments", nil)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestDoctorJWTMissingHeader(t *testing.T) {
	mw := DoctorJWT("secret")
	req := httptest.NewRequest(http.MethodGet, "/api/doctor/4/appointments", nil)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestDoctorJWTInvalidToken(t *testing.T) {
	mw := DoctorJWT("secret")
	token, err := IssueDoctorToken("wrong", 4, 5*time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/doctor/4/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestDoctorJWTValidToken(t *testing.T) {
	mw := DoctorJWT("secret")
	token, err := IssueDoctorToken("secret", 4, 5*time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/doctor/4/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	called := false
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		id, ok := DoctorIDFromContext(r.Context())
		if !ok || id != 4 {
			t.Fatalf("expected doctor id 4 in context, got %d (%v)", id, ok)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestDoctorIDFromContextWithoutClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := DoctorIDFromContext(req.Context()); ok {
		t.Fatal("expected no doctor id without claims")
	}
}
