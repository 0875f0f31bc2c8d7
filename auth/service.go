package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/jimiolaniyan/accounts/store"
)

// MaxPageSize bounds ListAccounts.
const MaxPageSize = 100

type service struct {
	accounts Documents
	hasher   Hasher
	events   Events
}

func NewService(accounts Documents, hasher Hasher, events Events) Service {
	return &service{accounts: accounts, hasher: hasher, events: events}
}

// RegisterAccount stores a new account keyed by email. The lookup before
// insert only gives a friendly error; the unique index on the email field
// decides concurrent registrations.
func (svc *service) RegisterAccount(ctx context.Context, r registerAccountRequest) (ID, error) {
	if err := validateRegisterRequest(r); err != nil {
		return "", err
	}
	if len(r.Password) > maxPasswordBytes {
		return "", ErrInvalidPassword
	}

	if err := svc.verifyNotInUse(ctx, r.Email); err != nil {
		return "", err
	}

	hash, err := svc.hasher.Hash(r.Password)
	if err != nil {
		return "", err
	}

	acc := &Account{
		Credentials: Credentials{Email: r.Email, Username: r.Username, Password: hash},
		Category:    r.Category,
		CreatedAt:   time.Now().UTC(),
	}

	id, err := svc.accounts.Create(ctx, documentFromAccount(acc))
	if errors.Is(err, store.ErrDuplicate) {
		return "", ErrAlreadyRegistered
	}
	if err != nil {
		return "", errors.Wrap(err, "error saving account")
	}
	acc.ID = ID(id)

	if svc.events != nil {
		svc.events.AccountCreated(string(acc.ID), acc.Credentials.Username, acc.Credentials.Email)
	}

	return acc.ID, nil
}

// ValidateCredentials returns the same error for an unknown email and a
// wrong password.
func (svc *service) ValidateCredentials(ctx context.Context, r validateCredentialsRequest) (AccountInfo, error) {
	if r.Email == "" || r.Password == "" {
		return AccountInfo{}, ErrInvalidCredentials
	}

	doc, err := svc.accounts.FindOneBy(ctx, LoginField, r.Email)
	if errors.Is(err, store.ErrNotFound) {
		return AccountInfo{}, ErrInvalidCredentials
	}
	if err != nil {
		return AccountInfo{}, errors.Wrap(err, "error finding account")
	}

	acc, err := accountFromDocument(doc)
	if err != nil {
		return AccountInfo{}, err
	}

	ok, err := svc.hasher.Verify(r.Password, acc.Credentials.Password)
	if err != nil {
		return AccountInfo{}, errors.Wrapf(err, "account %s", acc.ID)
	}
	if !ok {
		return AccountInfo{}, ErrInvalidCredentials
	}

	return acc.info(), nil
}

func (svc *service) ListAccounts(ctx context.Context, limit int) ([]AccountInfo, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	docs, err := svc.accounts.List(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "error listing accounts")
	}

	infos := make([]AccountInfo, 0, len(docs))
	for _, d := range docs {
		acc, err := accountFromDocument(d)
		if err != nil {
			return nil, err
		}
		infos = append(infos, acc.info())
	}
	return infos, nil
}

func (svc *service) GetAccount(ctx context.Context, id ID) (AccountInfo, error) {
	doc, err := svc.accounts.Get(ctx, string(id))
	switch {
	case errors.Is(err, store.ErrInvalidID):
		return AccountInfo{}, ErrInvalidID
	case errors.Is(err, store.ErrNotFound):
		return AccountInfo{}, ErrNotFound
	case err != nil:
		return AccountInfo{}, errors.Wrap(err, "error getting account")
	}

	acc, err := accountFromDocument(doc)
	if err != nil {
		return AccountInfo{}, err
	}
	return acc.info(), nil
}

func (svc *service) verifyNotInUse(ctx context.Context, email string) error {
	_, err := svc.accounts.FindOneBy(ctx, LoginField, email)
	switch {
	case err == nil:
		return ErrAlreadyRegistered
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return errors.Wrap(err, "error checking email")
	}
}
