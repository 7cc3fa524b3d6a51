package dberr

import (
	"errors"
	"strconv"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// sqliteKinds maps primary SQLite result codes onto the taxonomy. The
// table is keyed on the numeric code so it stays valid across library
// upgrades that only reword messages.
var sqliteKinds = map[sqlite3.ErrNo]Kind{
	sqlite3.ErrError:      KindProgramming, // SQL syntax or semantic error
	sqlite3.ErrPerm:       KindOperational,
	sqlite3.ErrAbort:      KindOperational,
	sqlite3.ErrBusy:       KindOperational,
	sqlite3.ErrLocked:     KindOperational,
	sqlite3.ErrNomem:      KindOperational,
	sqlite3.ErrReadonly:   KindOperational,
	sqlite3.ErrInterrupt:  KindOperational,
	sqlite3.ErrIoErr:      KindOperational,
	sqlite3.ErrCorrupt:    KindOperational,
	sqlite3.ErrFull:       KindOperational,
	sqlite3.ErrCantOpen:   KindOperational,
	sqlite3.ErrProtocol:   KindOperational,
	sqlite3.ErrSchema:     KindProgramming,
	sqlite3.ErrTooBig:     KindData,
	sqlite3.ErrConstraint: KindIntegrity,
	sqlite3.ErrMismatch:   KindData,
	sqlite3.ErrMisuse:     KindProgramming,
	sqlite3.ErrNoLFS:      KindNotSupported,
	sqlite3.ErrAuth:       KindOperational,
	sqlite3.ErrRange:      KindData,
	sqlite3.ErrNotADB:     KindOperational,
}

// sqliteFatal lists codes after which the session cannot be trusted.
var sqliteFatal = map[sqlite3.ErrNo]bool{
	sqlite3.ErrIoErr:    true,
	sqlite3.ErrCorrupt:  true,
	sqlite3.ErrCantOpen: true,
	sqlite3.ErrNotADB:   true,
}

// ClassifySQLite maps a go-sqlite3 failure into the taxonomy. Already
// classified errors pass through unchanged.
func ClassifySQLite(err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	if common := classifyCommon("sqlite3", err); common != nil {
		return common
	}

	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return operational("sqlite3", "", err)
	}
	code := strconv.Itoa(int(serr.Code))
	kind, ok := sqliteKinds[serr.Code]
	if !ok {
		return operational("sqlite3", code, err)
	}
	return &Error{
		Kind:    kind,
		Backend: "sqlite3",
		Code:    code,
		Message: serr.Error(),
		Fatal:   sqliteFatal[serr.Code],
		cause:   err,
	}
}
