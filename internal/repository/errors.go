// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a write collides with a unique index that
// has no dedicated sentinel, such as a duplicate exhibit uuid or a second
// content row for one exhibit. Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameExists  = errors.New("username already exists")
	ErrEmailExists     = errors.New("email already exists")
	ErrVisitorNotFound = errors.New("visitor profile not found")
	ErrExhibitNotFound = errors.New("exhibit not found")
	ErrContentNotFound = errors.New("exhibit content not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrVisitNotFound   = errors.New("visit not found")

	// ErrDuplicateVisit is returned by VisitRepo.InsertTx when the
	// (user, exhibit) pair already has a record.
	ErrDuplicateVisit = errors.New("visit already recorded")
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a unique-index violation on either
// supported driver.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// duplicateColumn extracts which unique key a duplicate error refers to,
// matched against the given column names. It returns "" when unknown.
func duplicateColumn(err error, columns ...string) string {
	msg := err.Error()
	for _, c := range columns {
		if strings.Contains(msg, "."+c) || strings.Contains(msg, "_"+c+"'") {
			return c
		}
	}
	return ""
}
