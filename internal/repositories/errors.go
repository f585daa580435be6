package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// IsNotFoundError reports whether err (anywhere in its chain) is the
// database-level record-not-found error. Services translate this into their
// own sentinel errors.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a unique-constraint violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
