package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgreSQL error codes the repositories react to
const (
	codeUniqueViolation     = pq.ErrorCode("23505")
	codeCheckViolation      = pq.ErrorCode("23514")
	codeForeignKeyViolation = pq.ErrorCode("23503")
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == codeUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == codeForeignKeyViolation
}

func constraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

// validUUID reports whether s can be compared against a UUID column.
// Malformed ids are treated as "no such row" instead of reaching the server.
func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func validUUIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if validUUID(id) {
			out = append(out, id)
		}
	}
	return out
}
