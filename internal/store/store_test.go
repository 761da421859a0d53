package store

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestNotFoundMapsNoRows(t *testing.T) {
	if !errors.Is(notFound(pgx.ErrNoRows), ErrNotFound) {
		t.Error("pgx.ErrNoRows should map to ErrNotFound")
	}

	other := errors.New("connection refused")
	if got := notFound(other); got != other {
		t.Errorf("unrelated error should pass through, got %v", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("code 23505 should be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(nil) {
		t.Error("nil error is not a unique violation")
	}
	if isUniqueViolation(errors.New("plain")) {
		t.Error("plain error is not a unique violation")
	}
}

func TestEscapeLikePattern(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"آزمایش", "%آزمایش%"},
		{"100%", `%100\%%`},
		{"mri_scan", `%mri\_scan%`},
		{`back\slash`, `%back\\slash%`},
		{"", "%%"},
	}
	for _, tc := range cases {
		if got := escapeLikePattern(tc.in); got != tc.want {
			t.Errorf("escapeLikePattern(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
