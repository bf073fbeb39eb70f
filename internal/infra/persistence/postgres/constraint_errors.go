package postgres

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type constraintKind int

const (
	constraintNone constraintKind = iota
	constraintUnique
	constraintForeignKey
	constraintNotNull
	constraintCheck
)

// Postgres SQLSTATE class 23, integrity constraint violation.
//
//nolint:gochecknoglobals
var sqlStateKinds = map[string]constraintKind{
	"23505": constraintUnique,
	"23503": constraintForeignKey,
	"23502": constraintNotNull,
	"23514": constraintCheck,
}

// Drivers without typed errors, SQLite among them, only describe the violation in the message.
//
//nolint:gochecknoglobals
var messageKinds = []struct {
	needle string
	kind   constraintKind
}{
	{"unique constraint", constraintUnique},
	{"duplicate key", constraintUnique},
	{"foreign key constraint", constraintForeignKey},
	{"not null constraint", constraintNotNull},
	{"null value", constraintNotNull},
	{"check constraint", constraintCheck},
}

func classifyConstraint(err error) constraintKind {
	if err == nil {
		return constraintNone
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return sqlStateKinds[pgErr.Code]
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return constraintUnique
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return constraintForeignKey
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return constraintCheck
	}

	msg := strings.ToLower(err.Error())
	for _, m := range messageKinds {
		if strings.Contains(msg, m.needle) {
			return m.kind
		}
	}

	return constraintNone
}

func isUniqueConstraintViolation(err error) bool {
	return classifyConstraint(err) == constraintUnique
}

func isForeignKeyConstraintViolation(err error) bool {
	return classifyConstraint(err) == constraintForeignKey
}

func isNotNullConstraintViolation(err error) bool {
	return classifyConstraint(err) == constraintNotNull
}

func isCheckConstraintViolation(err error) bool {
	return classifyConstraint(err) == constraintCheck
}
