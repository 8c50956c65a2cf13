package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/domain"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/errs"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
)

// Register creates a user with a hashed password.
func Register(ctx context.Context, store domain.Store, username, password string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > 32 {
		return nil, errs.Constraintf("username must have 1 to 32 characters")
	}
	if len(password) < 8 {
		return nil, errs.Constraintf("password must have at least 8 characters")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	u := &models.User{Record: models.Record{ID: id}, Username: username, Password: hash, Role: role}
	now := timeNow()
	u.CreatedAt, u.UpdatedAt = now, now
	if err := store.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks a username and password pair.
func Authenticate(ctx context.Context, dir domain.UserDirectory, username, password string) (*models.User, error) {
	u, err := dir.FindUserByName(ctx, username)
	if errs.KindOf(err) == errs.KindNotFound {
		return nil, errs.Unauthorizedf("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	ok, err := VerifyPassword(password, u.Password)
	if err != nil || !ok {
		return nil, errs.Unauthorizedf("invalid credentials")
	}
	return u, nil
}
