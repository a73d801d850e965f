package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// CanonicalPair orders two user ids so an unordered relationship has exactly
// one stored orientation.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// PairScope restricts a query to rows linking a and b in either direction.
func PairScope(colA, colB, a, b string) func(*gorm.DB) *gorm.DB {
	cond := fmt.Sprintf("((%[1]s = ? AND %[2]s = ?) OR (%[1]s = ? AND %[2]s = ?))", colA, colB)
	return func(q *gorm.DB) *gorm.DB {
		return q.Where(cond, a, b, b, a)
	}
}

// findPairRow loads the first row of dest's table linking a and b.
// A missing row is reported as found=false, not as an error.
func findPairRow(q *gorm.DB, colA, colB, a, b string, dest any) (bool, error) {
	err := q.Scopes(PairScope(colA, colB, a, b)).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
