package auth

import (
	"context"

	"github.com/jimiolaniyan/accounts/store"
)

type Service interface {
	RegisterAccount(ctx context.Context, r registerAccountRequest) (ID, error)
	ValidateCredentials(ctx context.Context, r validateCredentialsRequest) (AccountInfo, error)
	ListAccounts(ctx context.Context, limit int) ([]AccountInfo, error)
	GetAccount(ctx context.Context, id ID) (AccountInfo, error)
}

type Events interface {
	AccountCreated(id string, username string, email string)
}

// Documents is the collection the service keeps accounts in. Both
// store.Mongo and store.Memory satisfy it.
type Documents interface {
	Create(ctx context.Context, doc store.Document) (string, error)
	Get(ctx context.Context, id string) (store.Document, error)
	List(ctx context.Context, limit int) ([]store.Document, error)
	FindOneBy(ctx context.Context, field string, value interface{}) (store.Document, error)
}

type registerAccountRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"omitempty,username"`
	Password string `json:"password" validate:"required,max=72"`
	Category string `json:"category" validate:"omitempty,max=64"`
}

type validateCredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
