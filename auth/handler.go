package auth

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	"github.com/jimiolaniyan/accounts/store"
)

var errInvalidLimit = errors.New("invalid limit")

// NewRouter registers the account routes on a fresh router.
func NewRouter(svc Service) *httprouter.Router {
	router := httprouter.New()
	router.Handler(http.MethodPost, "/register", RegisterAccountHandler(svc))
	router.Handler(http.MethodPost, "/login", LoginHandler(svc))
	router.Handler(http.MethodGet, "/users", ListAccountsHandler(svc))
	router.Handler(http.MethodGet, "/users/:id", GetAccountHandler(svc))
	return router
}

func RegisterAccountHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRegisterAccountRequest(r.Body)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		id, err := svc.RegisterAccount(r.Context(), req)
		if err != nil {
			encodeError(err, w)
			return
		}

		w.Header().Set("Location", fmt.Sprintf("/users/%s", id))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(registerAccountResponse{ID: id, Message: "User registered successfully"})
	})
}

func LoginHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeLoginRequest(r.Body)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		info, err := svc.ValidateCredentials(r.Context(), req)
		if err != nil {
			encodeError(err, w)
			return
		}

		_ = json.NewEncoder(w).Encode(loginResponse{Message: "Login successful", ID: info.ID, User: info.Email})
	})
}

func ListAccountsHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				encodeError(errInvalidLimit, w)
				return
			}
			limit = n
		}

		infos, err := svc.ListAccounts(r.Context(), limit)
		if err != nil {
			encodeError(err, w)
			return
		}

		_ = json.NewEncoder(w).Encode(infos)
	})
}

func GetAccountHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")

		info, err := svc.GetAccount(r.Context(), ID(id))
		if err != nil {
			encodeError(err, w)
			return
		}

		_ = json.NewEncoder(w).Encode(info)
	})
}

type registerAccountResponse struct {
	ID      ID     `json:"id"`
	Message string `json:"message"`
}

type loginResponse struct {
	Message string `json:"message"`
	ID      ID     `json:"id"`
	User    string `json:"user"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyRegistered), errors.Is(err, ErrInvalidID), errors.Is(err, errInvalidLimit):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidCategory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// encodeError writes the client-facing message. Server-side failures are
// reported generically; the logging service records the cause.
func encodeError(err error, w http.ResponseWriter) {
	code := statusFor(err)
	msg := err.Error()
	switch code {
	case http.StatusServiceUnavailable:
		msg = store.ErrUnavailable.Error()
	case http.StatusInternalServerError:
		msg = "internal server error"
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": msg,
	})
}

func decodeRegisterAccountRequest(body io.Reader) (req registerAccountRequest, err error) {
	err = json.NewDecoder(body).Decode(&req)
	return req, err
}

func decodeLoginRequest(body io.Reader) (req validateCredentialsRequest, err error) {
	err = json.NewDecoder(body).Decode(&req)
	return req, err
}
