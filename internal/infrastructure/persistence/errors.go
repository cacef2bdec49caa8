package persistence

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL/TiDB server error numbers this package branches on.
const (
	errDuplicateEntry  = 1062
	errNoSuchTable     = 1146
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

func mysqlErrorNumber(err error) uint16 {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number
	}
	return 0
}

// IsDuplicateEntry reports a unique key violation.
func IsDuplicateEntry(err error) bool {
	return mysqlErrorNumber(err) == errDuplicateEntry
}

// IsTableMissing reports a statement against a table that does not exist.
func IsTableMissing(err error) bool {
	return mysqlErrorNumber(err) == errNoSuchTable
}

// isDeadlock reports errors worth retrying the whole transaction for.
func isDeadlock(err error) bool {
	if err == nil {
		return false
	}
	switch mysqlErrorNumber(err) {
	case errDeadlock, errLockWaitTimeout:
		return true
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "deadlock") || strings.Contains(errMsg, "lock wait timeout")
}
