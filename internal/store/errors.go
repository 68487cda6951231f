package store

import (
	"errors"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a record violates a uniqueness constraint.
var ErrConflict = errors.New("already exists")

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return mongo.IsDuplicateKeyError(err)
}
