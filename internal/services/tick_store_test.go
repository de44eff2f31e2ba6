package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

// The gorm postgres driver surfaces duplicate keys as pgx/v5 PgErrors. The
// session-creation race recovery depends on recognizing that exact type, so
// pin it here.
func TestUniqueViolationMatchesDriverError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "trading_sessions_session_date_key"}

	if !isUniqueViolation(dup) {
		t.Fatal("duplicate-key PgError not recognized")
	}
	if !isUniqueViolation(fmt.Errorf("create session: %w", dup)) {
		t.Fatal("wrapped duplicate-key PgError not recognized")
	}
}

func TestUniqueViolationIgnoresOtherErrors(t *testing.T) {
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign-key violation treated as duplicate key")
	}
	if isUniqueViolation(errors.New("connection refused")) {
		t.Fatal("plain error treated as duplicate key")
	}
	if isUniqueViolation(nil) {
		t.Fatal("nil error treated as duplicate key")
	}
}
