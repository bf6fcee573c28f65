package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code string) error { return &pgconn.PgError{Code: code, Message: "pg " + code} }

func TestDBErrorCodeMappings(t *testing.T) {
	cases := []struct {
		err    error
		want   ErrorCode
		wantOK bool
	}{
		{pgErr(pgErrUniqueViolation), ErrorCodeDuplicateKey, true},
		{pgErr(pgErrForeignKeyViolation), ErrorCodeInvalidArgument, true},
		{pgErr(pgErrInvalidTextRepresentation), ErrorCodeInvalidArgument, true},
		{pgErr(pgErrCheckViolation), ErrorCodeValidation, true},
		{pgErr(pgErrNotNullViolation), ErrorCodeValidation, true},
		{pgErr(pgErrQueryCanceled), ErrorCodeUnavailable, true},
		{pgErr(pgErrCannotConnectNow), ErrorCodeUnavailable, true},
		{pgErr("08006"), ErrorCodeUnavailable, true},
		{pgErr(pgErrSerializationFailure), ErrorCodeDB, true},
		{pgErr("42P01"), ErrorCodeDB, true},
		{fmt.Errorf("wrapped: %w", pgErr(pgErrUniqueViolation)), ErrorCodeDuplicateKey, true},
		{stderrs.New("plain"), ErrorCodeUnknown, false},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(c.err)
		if got != c.want || ok != c.wantOK {
			t.Fatalf("DBErrorCode(%v) = %v,%v want %v,%v", c.err, got, ok, c.want, c.wantOK)
		}
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil || FromPostgresf(nil, "x %d", 1) != nil {
		t.Fatal("nil must stay nil")
	}

	err := FromPostgresf(pgErr(pgErrQueryCanceled), "conflicts: insert %s", "c1")
	if !IsCode(err, ErrorCodeUnavailable) {
		t.Fatalf("code = %v", CodeOf(err))
	}
	var pe *pgconn.PgError
	if !stderrs.As(err, &pe) {
		t.Fatal("pg error lost")
	}

	if !IsCode(FromPostgres(stderrs.New("plain"), "x"), ErrorCodeDB) {
		t.Fatal("foreign errors map to DB")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{fmt.Errorf("x: %w", context.DeadlineExceeded), false},
		{pgErr(pgErrSerializationFailure), true},
		{pgErr(pgErrDeadlockDetected), true},
		{pgErr(pgErrQueryCanceled), true},
		{pgErr("08003"), true},
		{pgErr(pgErrUniqueViolation), false},
		{Wrap(stderrs.New("commit unexpectedly resulted in rollback"), ErrorCodeDB, "tx"), true},
		{stderrs.New("syntax error"), false},
	}
	for _, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Fatalf("IsRetryable(%v) = %v, want %v", c.err, got, c.want)
		}
	}

	// a statement timeout surfaces as retryable through Retryable too
	if !Retryable(FromPostgres(pgErr(pgErrQueryCanceled), "sink")) {
		t.Fatal("statement timeout should be retryable")
	}
}
