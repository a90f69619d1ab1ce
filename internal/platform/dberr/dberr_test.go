// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

package dberr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseapp/pulse/internal/platform/apperr"
	"github.com/pulseapp/pulse/internal/platform/dberr"
)

/*
TestWrap_Classification verifies each database failure class maps to the
client-facing status the API contract promises. A duplicate-key insert in
particular must come out as a 409 conflict, never an internal error.
*/
func TestWrap_Classification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "no_rows",
			err:        pgx.ErrNoRows,
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unique_violation",
			err:        &pgconn.PgError{Code: pgerrcode.UniqueViolation},
			wantCode:   "CONFLICT",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "wrapped_unique_violation",
			err:        fmt.Errorf("user_create_failed: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation}),
			wantCode:   "CONFLICT",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "foreign_key_violation",
			err:        &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation},
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown_error",
			err:        errors.New("connection reset"),
			wantCode:   "INTERNAL_ERROR",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := dberr.Wrap(tt.err, "test_action")
			require.Error(t, wrapped)

			ae := apperr.As(wrapped)
			require.NotNil(t, ae)
			assert.Equal(t, tt.wantCode, ae.Code)
			assert.Equal(t, tt.wantStatus, ae.HTTPStatus)
		})
	}
}

/*
TestWrap_NilPassthrough verifies a nil error stays nil.
*/
func TestWrap_NilPassthrough(t *testing.T) {
	assert.NoError(t, dberr.Wrap(nil, "test_action"))
}
