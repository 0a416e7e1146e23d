package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ejg/cestas/internal/auth"
)

// Expected failure kinds. Operations wrap them with detail; callers match
// with errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrStorage         = errors.New("storage error")

	// ErrFileTooLarge rejects uploads over the configured size limit.
	ErrFileTooLarge = fmt.Errorf("%w: file is too large", ErrInvalidInput)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notFound turns a missing row into ErrNotFound and passes other errors through.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func requireUser(id *auth.Identity) error {
	if id == nil || id.UserID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// requireAdmin is the first check of every admin operation.
func requireAdmin(id *auth.Identity) error {
	if err := requireUser(id); err != nil {
		return err
	}
	if !id.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
