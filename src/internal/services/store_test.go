package services

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "github.com/casapps/cascontacts/src/internal/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"sqlite unique", errors.New("UNIQUE constraint failed: tags.id"), http.StatusBadRequest},
		{"sqlite not null", errors.New("NOT NULL constraint failed: tags.name"), http.StatusBadRequest},
		{"postgres length", errors.New("ERROR: value too long for type character varying(250) (SQLSTATE 22001)"), http.StatusBadRequest},
		{"mysql length", errors.New("Error 1406 (22001): Data too long for column 'name' at row 1"), http.StatusBadRequest},
		{"gorm duplicate", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), http.StatusBadRequest},
		{"gorm foreign key", gorm.ErrForeignKeyViolated, http.StatusBadRequest},
		{"closed pool", sql.ErrConnDone, http.StatusInternalServerError},
		{"closed database", errors.New("sql: database is closed"), http.StatusInternalServerError},
		{"network", errors.New("dial tcp 10.0.0.5:5432: connect: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var custom *apperrors.CustomError
			require.ErrorAs(t, writeError("failed to write", tt.err), &custom)
			assert.Equal(t, tt.status, custom.StatusCode)
			if tt.status == http.StatusBadRequest {
				assert.Equal(t, apperrors.ErrorCodeBadParameters, custom.ErrorCode)
			}
		})
	}
}

func TestWriteErrorKeepsCustomErrors(t *testing.T) {
	notFound := apperrors.NotFoundError("tag")
	assert.Same(t, notFound, writeError("failed to write", notFound))
}
