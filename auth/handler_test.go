package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimiolaniyan/accounts/store"
)

func TestDecodeRequest(t *testing.T) {
	registerReq := `{"email": "a@b.com", "username": "u", "password": "password1", "category": "patient"}`
	body := ioutil.NopCloser(strings.NewReader(registerReq))
	r := registerAccountRequest{Email: "a@b.com", Username: "u", Password: "password1", Category: "patient"}

	req, err := decodeRegisterAccountRequest(body)

	assert.NoError(t, err)
	assert.Equal(t, r, req)
}

var errNil = errors.New("")

func newTestRouter(t *testing.T) (http.Handler, *store.Memory) {
	t.Helper()
	accounts := store.NewMemory()
	require.NoError(t, accounts.EnsureUnique(context.Background(), LoginField))
	return NewRouter(NewService(accounts, newTestHasher(t), nil)), accounts
}

func TestRegisterAccountHandler(t *testing.T) {
	invalidEmailReq := `{"email": "a.bcom", "password": "password"}`
	invalidPassReq := `{"email": "a@b.com", "password": ""}`
	invalidUsernameReq := `{"email": "a@b.com", "username": "u u", "password": "password"}`
	registerReq := `{"email":"a@b.com", "username":"u", "password":"password1", "category":"patient"}`
	existingEmailReq := `{"email": "a@b.com", "username": "u2", "password": "password"}`

	router, _ := newTestRouter(t)

	tests := []struct {
		req          string
		wantCode     int
		wantID       bool
		wantErr      error
		wantLocation string
	}{
		{req: `invalid request`, wantCode: http.StatusBadRequest, wantErr: errNil},
		{req: invalidEmailReq, wantCode: http.StatusUnprocessableEntity, wantErr: ErrInvalidEmail},
		{req: invalidPassReq, wantCode: http.StatusUnprocessableEntity, wantErr: ErrInvalidPassword},
		{req: invalidUsernameReq, wantCode: http.StatusUnprocessableEntity, wantErr: ErrInvalidUsername},
		{req: registerReq, wantCode: http.StatusCreated, wantID: true, wantErr: errNil, wantLocation: "/users/"},
		{req: existingEmailReq, wantCode: http.StatusBadRequest, wantErr: ErrAlreadyRegistered},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d %s", tt.wantCode, tt.wantErr), func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(tt.req))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			var res struct {
				ID      ID     `json:"id,omitempty"`
				Message string `json:"message,omitempty"`
				Err     string `json:"error,omitempty"`
			}

			_ = json.NewDecoder(w.Body).Decode(&res)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr.Error(), res.Err)
			assert.Equal(t, tt.wantID, res.ID != "")
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.True(t, strings.HasPrefix(w.Header().Get("Location"), tt.wantLocation))
			if tt.wantID {
				assert.Equal(t, "/users/"+string(res.ID), w.Header().Get("Location"))
				assert.Equal(t, "User registered successfully", res.Message)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	router, _ := newTestRouter(t)
	register := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"alice@x.com","password":"password1"}`))
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, register)
	require.Equal(t, http.StatusCreated, rw.Code)

	var created struct {
		ID ID `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rw.Body).Decode(&created))

	tests := []struct {
		req      string
		wantCode int
		wantErr  string
	}{
		{req: `{"email":"alice@x.com","password":"password1"}`, wantCode: http.StatusOK},
		{req: `{"email":"alice@x.com","password":"wrong"}`, wantCode: http.StatusUnauthorized, wantErr: ErrInvalidCredentials.Error()},
		{req: `{"email":"bob@x.com","password":"password1"}`, wantCode: http.StatusUnauthorized, wantErr: ErrInvalidCredentials.Error()},
		{req: `{`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.req))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		var res struct {
			Message string `json:"message"`
			ID      ID     `json:"id"`
			User    string `json:"user"`
			Err     string `json:"error"`
		}
		_ = json.NewDecoder(w.Body).Decode(&res)

		assert.Equal(t, tt.wantCode, w.Code, tt.req)
		assert.Equal(t, tt.wantErr, res.Err, tt.req)
		if tt.wantCode == http.StatusOK {
			assert.Equal(t, "Login successful", res.Message)
			assert.Equal(t, created.ID, res.ID)
			assert.Equal(t, "alice@x.com", res.User)
		}
	}
}

func TestListAccountsHandler(t *testing.T) {
	router, _ := newTestRouter(t)
	for _, e := range []string{"a@b.com", "c@d.com", "e@f.com"} {
		r := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(fmt.Sprintf(`{"email":%q,"password":"password1"}`, e)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	tests := []struct {
		url       string
		wantCode  int
		wantCount int
	}{
		{url: "/users", wantCode: http.StatusOK, wantCount: 3},
		{url: "/users?limit=2", wantCode: http.StatusOK, wantCount: 2},
		{url: "/users?limit=0", wantCode: http.StatusBadRequest},
		{url: "/users?limit=abc", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.url, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(t, tt.wantCode, w.Code, tt.url)
		if tt.wantCode != http.StatusOK {
			continue
		}

		body := w.Body.String()
		assert.NotContains(t, body, "password")
		assert.NotContains(t, body, "$2a$")

		var infos []map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(body), &infos))
		assert.Len(t, infos, tt.wantCount)
		for _, info := range infos {
			id, ok := info["id"].(string)
			assert.True(t, ok)
			assert.NotEmpty(t, id)
		}
	}
}

func TestGetAccountHandler(t *testing.T) {
	router, accounts := newTestRouter(t)
	ctx := context.Background()
	id, err := accounts.Create(ctx, store.Document{"email": "a@b.com", "password": "$2a$04$hash"})
	require.NoError(t, err)
	gone, _ := accounts.Create(ctx, store.Document{"email": "c@d.com"})
	_, _ = accounts.Delete(ctx, gone)

	tests := []struct {
		id       string
		wantCode int
		wantErr  string
	}{
		{id: id, wantCode: http.StatusOK},
		{id: "not-an-id", wantCode: http.StatusBadRequest, wantErr: ErrInvalidID.Error()},
		{id: gone, wantCode: http.StatusNotFound, wantErr: ErrNotFound.Error()},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/users/"+tt.id, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		var res struct {
			ID    ID     `json:"id"`
			Email string `json:"email"`
			Err   string `json:"error"`
		}
		_ = json.NewDecoder(w.Body).Decode(&res)

		assert.Equal(t, tt.wantCode, w.Code, tt.id)
		assert.Equal(t, tt.wantErr, res.Err)
		if tt.wantCode == http.StatusOK {
			assert.Equal(t, ID(id), res.ID)
			assert.Equal(t, "a@b.com", res.Email)
		}
	}
}

func TestEncodeError(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantMsg  string
	}{
		{err: ErrAlreadyRegistered, wantCode: http.StatusBadRequest, wantMsg: ErrAlreadyRegistered.Error()},
		{err: ErrInvalidCredentials, wantCode: http.StatusUnauthorized, wantMsg: ErrInvalidCredentials.Error()},
		{err: fmt.Errorf("listing: %w", store.ErrUnavailable), wantCode: http.StatusServiceUnavailable, wantMsg: store.ErrUnavailable.Error()},
		{err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantMsg: "internal server error"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		encodeError(tt.err, w)

		var res map[string]string
		_ = json.NewDecoder(w.Body).Decode(&res)
		assert.Equal(t, tt.wantCode, w.Code)
		assert.Equal(t, tt.wantMsg, res["error"])
	}
}
