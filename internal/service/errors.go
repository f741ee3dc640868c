package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Domain errors. Handlers map them to HTTP status codes with errors.Is; the
// message is shown to the user as is.
var (
	ErrNotFound           = errors.New("ressource introuvable")
	ErrAlreadyPaid        = errors.New("ce document est déjà entièrement payé")
	ErrExceedsRemaining   = errors.New("le montant dépasse le reste à payer")
	ErrBillboardConflict  = errors.New("un panneau est déjà réservé sur cette période")
	ErrAlreadyConverted   = errors.New("ce document a déjà été converti")
	ErrDuplicate          = errors.New("cette valeur est déjà utilisée")
	ErrForbidden          = errors.New("action non autorisée")
	ErrInvalidInput       = errors.New("données invalides")
	ErrInvalidCredentials = errors.New("identifiants invalides")
	ErrPaymentInProgress  = errors.New("un paiement est déjà en cours sur ce document")
)

// invalid wraps ErrInvalidInput with a precise message.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notFound turns gorm's not-found into ErrNotFound naming what was missing
// and passes other errors through.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

// isUniqueViolation matches unique index failures from postgres and sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
