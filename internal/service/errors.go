package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/marketplace/internal/models"
	"gorm.io/gorm"
)

var (
	ErrValidation     = errors.New("validation")      // 400
	ErrUnauthorized   = errors.New("unauthorized")    // 401
	ErrForbidden      = errors.New("forbidden")       // 403
	ErrNotFound       = errors.New("not found")       // 404
	ErrConflict       = errors.New("conflict")        // 400, duplicates
	ErrPaymentGateway = errors.New("payment gateway") // 400 at checkout, 502 elsewhere
)

// Actor is the authenticated caller as far as ownership checks go.
type Actor struct {
	ID   uint
	Role string
}

func (a Actor) IsAdmin() bool  { return a.Role == models.RoleAdmin }
func (a Actor) IsSeller() bool { return a.Role == models.RoleSeller }

// notFound turns a missing row into ErrNotFound and leaves other errors alone.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s not found", ErrNotFound, what)
	}
	return err
}

func validation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
