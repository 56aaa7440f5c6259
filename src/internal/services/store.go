package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/casapps/cascontacts/src/internal/errors"
)

// Fragments drivers use when a write breaks a column or constraint rule.
// sqlite: "UNIQUE constraint failed", postgres: "value too long for type",
// mysql: "Data too long for column", "Incorrect string value".
var rejectedWriteFragments = []string{
	"constraint",
	"too long",
	"out of range",
	"incorrect",
	"invalid input syntax",
	"duplicate",
}

// writeError maps a failed insert or update. Rows the store refused become
// BadParameters; anything else (lost connection, timeout) is a server error.
func writeError(message string, err error) error {
	var customErr *apperrors.CustomError
	if errors.As(err, &customErr) {
		return customErr
	}
	if rejectedWrite(err) {
		return apperrors.BadParameters(err)
	}
	return apperrors.DatabaseError(message, err)
}

func rejectedWrite(err error) bool {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated):
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range rejectedWriteFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
