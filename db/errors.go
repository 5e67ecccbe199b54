package db

import (
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/julielab/jcore/errors"
)

// ErrDatabaseClosed is returned by the store when used after Close.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err is ErrDatabaseClosed or the driver's
// own closed-connection error, which only carries a message.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

// IsConstraintViolation reports whether err is a SQLite constraint failure,
// such as a CHECK or UNIQUE violation.
func IsConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

// IsBusy reports whether err is SQLITE_BUSY or SQLITE_LOCKED, which persist
// past the busy timeout only under heavy write contention.
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked)
}
