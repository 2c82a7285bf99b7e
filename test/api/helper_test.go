package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// These tests exercise a running instance. Point API_URL at it and set
// JWT_SECRET to the server's token secret; they skip otherwise.

func baseURL() string {
	if url := os.Getenv("API_URL"); url != "" {
		return url + "/api/v1"
	}
	return "http://localhost:8080/api/v1"
}

func requireServer(t *testing.T) {
	t.Helper()
	resp, err := http.Get(baseURL() + "/health/live")
	if err != nil {
		t.Skipf("server not reachable: %v", err)
	}
	resp.Body.Close()
}

// tokenFor mints a token for the given user, the way the identity
// provider would.
func tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		t.Skip("JWT_SECRET not set")
	}

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
	StatusCode int `json:"-"`
}

func makeRequest(t *testing.T, method, path string, body interface{}, token string) apiResponse {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, baseURL()+path, reqBody)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	out.StatusCode = resp.StatusCode
	return out
}

func decodeData(t *testing.T, resp apiResponse, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(resp.Data, dst); err != nil {
		t.Fatalf("failed to decode response data: %v", err)
	}
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s %d", prefix, time.Now().UnixNano())
}
