package repository

import (
	"errors"
	"fmt"

	"edu_admin_backend/internal/util"

	"gorm.io/gorm"
)

// notFound turns gorm's missing-record error into util.ErrNotFound.
func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, util.ErrNotFound)
	}
	return err
}
