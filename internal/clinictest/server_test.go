package clinictest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/me/clinicli/pkg/clinic"
)

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, decoded
}

func TestLoginIssuesToken(t *testing.T) {
	s := New()

	status, body := doJSON(t, s, http.MethodPost, "/api/admin/login",
		map[string]string{"email": AdminEmail, "password": AdminPassword}, nil)
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("admin login = %d %v", status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("login response carried no token")
	}
	if exp, err := clinic.TokenExpiry(token); err != nil || !exp.After(time.Now()) {
		t.Errorf("minted token expiry = %v, %v", exp, err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := New()

	tests := []struct {
		name string
		path string
		body map[string]string
	}{
		{name: "wrong admin password", path: "/api/admin/login", body: map[string]string{"email": AdminEmail, "password": "nope"}},
		{name: "unknown doctor", path: "/api/doctor/login", body: map[string]string{"email": "ghost@clinic.test", "password": DoctorPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, s, http.MethodPost, tt.path, tt.body, nil)
			// Credential rejections come back as 200 success:false, the
			// way the production backend words them.
			if status != http.StatusOK || body["success"] != false {
				t.Errorf("login = %d %v, want 200 success:false", status, body)
			}
		})
	}
}

func TestAuthMiddlewareMessages(t *testing.T) {
	s := New()

	tests := []struct {
		name        string
		headers     map[string]string
		wantMessage string
	}{
		{
			name:        "missing header",
			headers:     nil,
			wantMessage: "not authorized, login again",
		},
		{
			name:        "expired token",
			headers:     map[string]string{"Atoken": s.MintToken(clinic.RoleAdmin, "admin", -time.Minute)},
			wantMessage: "token expired",
		},
		{
			name:        "wrong role token",
			headers:     map[string]string{"Atoken": s.MintToken(clinic.RoleDoctor, "doc_emily", time.Hour)},
			wantMessage: "invalid token",
		},
		{
			name:        "garbage token",
			headers:     map[string]string{"Atoken": "not-a-jwt"},
			wantMessage: "invalid token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, s, http.MethodGet, "/api/admin/dashboard", nil, tt.headers)
			if status != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", status)
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("message = %v, want %q", body["message"], tt.wantMessage)
			}
		})
	}
}

func TestForceStatus(t *testing.T) {
	s := New()
	token := s.MintToken(clinic.RoleAdmin, "admin", time.Hour)
	headers := map[string]string{"Atoken": token}

	s.ForceStatus("/api/admin/dashboard", http.StatusTooManyRequests)
	status, body := doJSON(t, s, http.MethodGet, "/api/admin/dashboard", nil, headers)
	if status != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", status)
	}
	if body["message"] == "" {
		t.Error("forced failure carried no message")
	}

	s.ForceStatus("/api/admin/dashboard", 0)
	status, _ = doJSON(t, s, http.MethodGet, "/api/admin/dashboard", nil, headers)
	if status != http.StatusOK {
		t.Errorf("status after clearing forced failure = %d, want 200", status)
	}
}

func TestRequestCounter(t *testing.T) {
	s := New()
	before := s.Requests()
	doJSON(t, s, http.MethodPost, "/api/admin/login",
		map[string]string{"email": AdminEmail, "password": AdminPassword}, nil)
	if got := s.Requests() - before; got != 1 {
		t.Errorf("request counter advanced by %d, want 1", got)
	}
}

func TestSharedRoutesAcceptEitherRole(t *testing.T) {
	s := New()

	adminHeaders := map[string]string{"Atoken": s.MintToken(clinic.RoleAdmin, "admin", time.Hour)}
	doctorHeaders := map[string]string{"Dtoken": s.MintToken(clinic.RoleDoctor, "doc_emily", time.Hour)}

	for name, headers := range map[string]map[string]string{"admin": adminHeaders, "doctor": doctorHeaders} {
		t.Run(name, func(t *testing.T) {
			status, body := doJSON(t, s, http.MethodGet, "/api/notifications", nil, headers)
			if status != http.StatusOK || body["success"] != true {
				t.Errorf("notifications as %s = %d %v", name, status, body)
			}
		})
	}
}
