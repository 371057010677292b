package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/backend"
	"budgetbuddy/internal/storage/file"
)

// newTestAPI spins up the API over a selector with no primary
// configured, so every call exercises the file-backed path exactly
// like a deployment with the document database unreachable.
func newTestAPI(t *testing.T) (*httptest.Server, *auth.TokenManager) {
	t.Helper()

	store := file.Open(filepath.Join(t.TempDir(), "data.json"))
	selector := backend.NewSelector(nil, nil, store, 2*time.Second)
	tokens := auth.NewTokenManager("test-secret", 30*24*time.Hour)

	srv := NewServer(":0", selector, tokens, nil)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts, tokens
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &decoded))
	}
	return resp, decoded
}

func signup(t *testing.T, baseURL, name, email, password string) (token string, userID string) {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, baseURL+"/api/signup", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ = body["token"].(string)
	require.NotEmpty(t, token)
	user := body["user"].(map[string]any)
	return token, user["id"].(string)
}

func TestLedgerScenario(t *testing.T) {
	ts, _ := newTestAPI(t)

	token, userID := signup(t, ts.URL, "Ann", "a@x.com", "p1")

	// Login with the email identifier resolves the same account.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/login", "", map[string]string{
		"identifier": "a@x.com", "password": "p1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, userID, body["user"].(map[string]any)["id"])

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/expense", token, map[string]any{
		"amount": 20, "category": "food",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	expenseID := body["id"].(string)
	require.NotEmpty(t, expenseID)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/income", token, map[string]any{
		"amount": 100,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/summary", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 100.0, body["income"])
	assert.Equal(t, 20.0, body["expense"])
	assert.Equal(t, 80.0, body["balance"])

	resp, body = doJSON(t, http.MethodDelete, ts.URL+"/api/transactions/"+expenseID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/summary", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 100.0, body["income"])
	assert.Equal(t, 0.0, body["expense"])
	assert.Equal(t, 100.0, body["balance"])
}

func TestSignup_TokenResolvesToCreatedUser(t *testing.T) {
	ts, tokens := newTestAPI(t)

	token, userID := signup(t, ts.URL, "Ann", "a@x.com", "p1")

	resolved, ok := tokens.Validate(token)
	require.True(t, ok)
	assert.Equal(t, userID, resolved)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/user", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, userID, body["id"])
	assert.Equal(t, "a@x.com", body["email"])
	assert.NotContains(t, body, "password", "public view never carries the credential")
}

func TestSignup_Validation(t *testing.T) {
	ts, _ := newTestAPI(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "missing name", body: map[string]string{"email": "a@x.com", "password": "p1"}},
		{name: "missing email", body: map[string]string{"name": "Ann", "password": "p1"}},
		{name: "missing password", body: map[string]string{"name": "Ann", "email": "a@x.com"}},
		{name: "empty body", body: map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/signup", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSignup_DuplicateEmailCaseInsensitive(t *testing.T) {
	ts, _ := newTestAPI(t)

	signup(t, ts.URL, "Ann", "a@x.com", "p1")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/signup", "", map[string]string{
		"name": "Other", "email": "A@X.COM", "password": "p2",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email already registered", body["error"])
}

func TestLogin(t *testing.T) {
	ts, _ := newTestAPI(t)
	_, userID := signup(t, ts.URL, "Ann", "a@x.com", "p1")

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{name: "by email", body: map[string]string{"identifier": "a@x.com", "password": "p1"}, wantStatus: http.StatusOK},
		{name: "by email uppercased", body: map[string]string{"identifier": "A@x.com", "password": "p1"}, wantStatus: http.StatusOK},
		{name: "by exact name", body: map[string]string{"identifier": "Ann", "password": "p1"}, wantStatus: http.StatusOK},
		{name: "email field alias", body: map[string]string{"email": "a@x.com", "password": "p1"}, wantStatus: http.StatusOK},
		{name: "username field alias", body: map[string]string{"username": "Ann", "password": "p1"}, wantStatus: http.StatusOK},
		{name: "wrong password", body: map[string]string{"identifier": "a@x.com", "password": "nope"}, wantStatus: http.StatusUnauthorized},
		{name: "name is case sensitive", body: map[string]string{"identifier": "ann", "password": "p1"}, wantStatus: http.StatusUnauthorized},
		{name: "unknown email", body: map[string]string{"identifier": "b@x.com", "password": "p1"}, wantStatus: http.StatusUnauthorized},
		{name: "missing password", body: map[string]string{"identifier": "a@x.com"}, wantStatus: http.StatusBadRequest},
		{name: "missing identifier", body: map[string]string{"password": "p1"}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/login", "", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID, body["user"].(map[string]any)["id"])
			}
		})
	}
}

func TestProtectedEndpoints_RequireValidToken(t *testing.T) {
	ts, tokens := newTestAPI(t)

	endpoints := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/user"},
		{http.MethodPut, "/api/user"},
		{http.MethodGet, "/api/transactions"},
		{http.MethodPost, "/api/transactions"},
		{http.MethodPost, "/api/expense"},
		{http.MethodPost, "/api/income"},
		{http.MethodDelete, "/api/transactions/some-id"},
		{http.MethodGet, "/api/summary"},
	}

	// Structurally valid token whose user does not exist.
	orphan, err := tokens.Issue("00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)

	tokensUnderTest := map[string]string{
		"no token":      "",
		"garbage token": "not.a.token",
		"orphan token":  orphan,
	}

	for name, token := range tokensUnderTest {
		for _, ep := range endpoints {
			t.Run(fmt.Sprintf("%s %s %s", name, ep.method, ep.path), func(t *testing.T) {
				resp, body := doJSON(t, ep.method, ts.URL+ep.path, token, nil)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
				assert.Equal(t, "Unauthorized", body["error"])
			})
		}
	}
}

func TestUpdateUser_PartialFields(t *testing.T) {
	ts, _ := newTestAPI(t)
	token, _ := signup(t, ts.URL, "Ann", "a@x.com", "p1")

	resp, body := doJSON(t, http.MethodPut, ts.URL+"/api/user", token, map[string]string{
		"image": "https://example.com/ann.png",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ann", body["name"], "name untouched by image-only update")
	assert.Equal(t, "https://example.com/ann.png", body["image"])

	resp, body = doJSON(t, http.MethodPut, ts.URL+"/api/user", token, map[string]string{
		"name": "Annabel",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Annabel", body["name"])
	assert.Equal(t, "https://example.com/ann.png", body["image"], "image untouched by name-only update")
}

func TestCreateTransaction_Validation(t *testing.T) {
	ts, _ := newTestAPI(t)
	token, _ := signup(t, ts.URL, "Ann", "a@x.com", "p1")

	tests := []struct {
		name       string
		path       string
		body       map[string]any
		wantStatus int
	}{
		{name: "generic valid", path: "/api/transactions", body: map[string]any{"type": "income", "amount": 5}, wantStatus: http.StatusCreated},
		{name: "numeric string amount", path: "/api/transactions", body: map[string]any{"type": "expense", "amount": "12.5"}, wantStatus: http.StatusCreated},
		{name: "missing type", path: "/api/transactions", body: map[string]any{"amount": 5}, wantStatus: http.StatusBadRequest},
		{name: "bad type", path: "/api/transactions", body: map[string]any{"type": "transfer", "amount": 5}, wantStatus: http.StatusBadRequest},
		{name: "missing amount", path: "/api/transactions", body: map[string]any{"type": "income"}, wantStatus: http.StatusBadRequest},
		{name: "non-numeric amount", path: "/api/transactions", body: map[string]any{"type": "income", "amount": "lots"}, wantStatus: http.StatusBadRequest},
		{name: "negative amount", path: "/api/transactions", body: map[string]any{"type": "income", "amount": -3}, wantStatus: http.StatusBadRequest},
		{name: "expense shorthand ignores type field", path: "/api/expense", body: map[string]any{"type": "income", "amount": 5}, wantStatus: http.StatusCreated},
		{name: "income shorthand missing amount", path: "/api/income", body: map[string]any{}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, ts.URL+tt.path, token, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusCreated {
				assert.NotEmpty(t, body["id"])
			}
		})
	}
}

func TestListTransactions_NewestFirst(t *testing.T) {
	ts, _ := newTestAPI(t)
	token, _ := signup(t, ts.URL, "Ann", "a@x.com", "p1")

	resp, first := doJSON(t, http.MethodPost, ts.URL+"/api/expense", token, map[string]any{"amount": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	time.Sleep(5 * time.Millisecond)
	resp, second := doJSON(t, http.MethodPost, ts.URL+"/api/income", token, map[string]any{"amount": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/transactions", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	listResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var txns []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&txns))
	require.Len(t, txns, 2)
	assert.Equal(t, second["id"], txns[0]["id"], "newest first")
	assert.Equal(t, first["id"], txns[1]["id"])
}

func TestDeleteTransaction_OwnershipAndIDShape(t *testing.T) {
	ts, _ := newTestAPI(t)
	annToken, _ := signup(t, ts.URL, "Ann", "a@x.com", "p1")
	beaToken, _ := signup(t, ts.URL, "Bea", "b@x.com", "p2")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/expense", annToken, map[string]any{"amount": 20})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	txnID := body["id"].(string)

	// Another user's delete reports not found and leaves the record.
	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/transactions/"+txnID, beaToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/summary", annToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 20.0, body["expense"], "record intact after foreign delete attempt")

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/transactions/not-a-valid-id", annToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/transactions/"+txnID, annToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIndex_Discovery(t *testing.T) {
	ts, _ := newTestAPI(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Budget Buddy API", body["message"])
	assert.NotEmpty(t, body["endpoints"])
}

func TestHealthProbes(t *testing.T) {
	ts, _ := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
