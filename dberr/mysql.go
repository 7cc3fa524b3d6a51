package dberr

import (
	"errors"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

// mysqlKinds maps MySQL server error numbers onto the taxonomy. Numbers,
// not message text: the server rewords messages between versions but
// keeps the numbers stable.
var mysqlKinds = map[uint16]Kind{
	// Integrity
	1062: KindIntegrity, // ER_DUP_ENTRY
	1048: KindIntegrity, // ER_BAD_NULL_ERROR
	1216: KindIntegrity, // ER_NO_REFERENCED_ROW
	1217: KindIntegrity, // ER_ROW_IS_REFERENCED
	1451: KindIntegrity, // ER_ROW_IS_REFERENCED_2
	1452: KindIntegrity, // ER_NO_REFERENCED_ROW_2
	1557: KindIntegrity, // ER_FOREIGN_DUPLICATE_KEY
	3819: KindIntegrity, // ER_CHECK_CONSTRAINT_VIOLATED

	// Programming
	1054: KindProgramming, // ER_BAD_FIELD_ERROR
	1064: KindProgramming, // ER_PARSE_ERROR
	1065: KindProgramming, // ER_EMPTY_QUERY
	1146: KindProgramming, // ER_NO_SUCH_TABLE
	1149: KindProgramming, // ER_SYNTAX_ERROR
	1243: KindProgramming, // ER_UNKNOWN_STMT_HANDLER
	1305: KindProgramming, // ER_SP_DOES_NOT_EXIST

	// Data
	1264: KindData, // ER_WARN_DATA_OUT_OF_RANGE
	1265: KindData, // WARN_DATA_TRUNCATED
	1292: KindData, // ER_TRUNCATED_WRONG_VALUE
	1366: KindData, // ER_TRUNCATED_WRONG_VALUE_FOR_FIELD
	1406: KindData, // ER_DATA_TOO_LONG
	1690: KindData, // ER_DATA_OUT_OF_RANGE

	// Operational
	1040: KindOperational, // ER_CON_COUNT_ERROR
	1041: KindOperational, // ER_OUT_OF_RESOURCES
	1044: KindOperational, // ER_DBACCESS_DENIED_ERROR
	1045: KindOperational, // ER_ACCESS_DENIED_ERROR
	1152: KindOperational, // ER_ABORTING_CONNECTION
	1203: KindOperational, // ER_TOO_MANY_USER_CONNECTIONS
	1205: KindOperational, // ER_LOCK_WAIT_TIMEOUT
	1213: KindOperational, // ER_LOCK_DEADLOCK

	// NotSupported
	1112: KindNotSupported, // ER_TABLE_CANT_HANDLE_BLOB
	1214: KindNotSupported, // ER_TABLE_CANT_HANDLE_FT
	1235: KindNotSupported, // ER_NOT_SUPPORTED_YET
}

// mysqlFatal lists server numbers after which the session is gone.
var mysqlFatal = map[uint16]bool{
	1040: true, // ER_CON_COUNT_ERROR
	1152: true, // ER_ABORTING_CONNECTION
	1153: true, // ER_NET_PACKET_TOO_LARGE
	1159: true, // ER_NET_READ_INTERRUPTED
	1160: true, // ER_NET_ERROR_ON_WRITE
	1161: true, // ER_NET_WRITE_INTERRUPTED
}

// ClassifyMySQL maps a go-sql-driver/mysql failure into the taxonomy.
func ClassifyMySQL(err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	if common := classifyCommon("mysql", err); common != nil {
		return common
	}

	// Driver-side connectivity failures carry no server number.
	switch {
	case errors.Is(err, mysql.ErrInvalidConn),
		errors.Is(err, mysql.ErrNoTLS),
		errors.Is(err, mysql.ErrPktSync),
		errors.Is(err, mysql.ErrPktSyncMul),
		errors.Is(err, mysql.ErrBusyBuffer):
		return &Error{
			Kind:    KindOperational,
			Backend: "mysql",
			Message: err.Error(),
			Fatal:   true,
			cause:   err,
		}
	}

	var merr *mysql.MySQLError
	if !errors.As(err, &merr) {
		return operational("mysql", "", err)
	}
	code := strconv.Itoa(int(merr.Number))
	kind, ok := mysqlKinds[merr.Number]
	if !ok {
		return operational("mysql", code, err)
	}
	return &Error{
		Kind:    kind,
		Backend: "mysql",
		Code:    code,
		Message: merr.Message,
		Fatal:   mysqlFatal[merr.Number],
		cause:   err,
	}
}
