package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"shopapi/internal/user"

	"github.com/golang-jwt/jwt/v5"
)

// TestRegistration is a valid public registration body.
var TestRegistration = map[string]string{
	"nombreCompleto":  "Ana",
	"apellidoPaterno": "López",
	"apellidoMaterno": "Ruiz",
	"correo":          "a@x.com",
	"contrasena":      "secret123",
}

// TestAdminUser is a Superadmin account for seeding stores in tests.
var TestAdminUser = user.RegisterInput{
	FullName:        "Admin",
	PaternalSurname: "Root",
	MaternalSurname: "Root",
	Email:           "admin@x.com",
	Password:        "admin-pass",
	Role:            user.RoleSuperadmin,
}

func signToken(secret, userID string, issuedAt time.Time, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"id":  userID,
		"iat": jwt.NewNumericDate(issuedAt),
		"exp": jwt.NewNumericDate(issuedAt.Add(ttl)),
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return token
}

// GenerateTestToken signs a token for userID that is valid for an hour.
func GenerateTestToken(secret, userID string) string {
	return signToken(secret, userID, time.Now(), time.Hour)
}

// GenerateExpiredToken signs a token for userID that expired an hour ago.
func GenerateExpiredToken(secret, userID string) string {
	return signToken(secret, userID, time.Now().Add(-2*time.Hour), time.Hour)
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewRequestWithAuth creates a new HTTP request with a bearer token for testing
func NewRequestWithAuth(method, path string, body interface{}, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// Data returns the envelope's data field as an object, or nil.
func (r RecordResponse) Data() map[string]interface{} {
	data, _ := r.Body["data"].(map[string]interface{})
	return data
}

// List returns the envelope's data field as an array, or nil.
func (r RecordResponse) List() []interface{} {
	list, _ := r.Body["data"].([]interface{})
	return list
}

// ErrorCode returns error.code from an error envelope.
func (r RecordResponse) ErrorCode() string {
	e, _ := r.Body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// AssertResponseCode checks if the response code matches expected
func AssertResponseCode(t interface {
	Errorf(format string, args ...any)
}, got, want int) {
	if got != want {
		t.Errorf("got status code %d, want %d", got, want)
	}
}
