package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestDuplicateDetection(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		dup    bool
		column string
	}{
		{"nil", nil, false, ""},
		{
			name:   "mysql pair index",
			err:    &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'visit_records.uq_visit_records_pair'"},
			dup:    true,
			column: "",
		},
		{
			name:   "mysql email key",
			err:    &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'users.uq_users_email'"},
			dup:    true,
			column: "email",
		},
		{
			name:   "mysql legacy key name",
			err:    &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ana' for key 'uq_users_username'"},
			dup:    true,
			column: "username",
		},
		{
			name:   "mysql wrapped",
			err:    fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ana' for key 'users.username'"}),
			dup:    true,
			column: "username",
		},
		{
			name: "mysql foreign key",
			err:  &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row: a foreign key constraint fails"},
			dup:  false,
		},
		{
			name:   "sqlite",
			err:    errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"),
			dup:    true,
			column: "email",
		},
		{"other", errors.New("connection refused"), false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.dup, isDuplicate(tc.err))
			if tc.dup {
				assert.Equal(t, tc.column, duplicateColumn(tc.err, "email", "username"))
			}
		})
	}
}
