package dberr

import (
	"errors"

	"github.com/lib/pq"
)

// postgresClassKinds maps SQLSTATE classes (the first two characters of
// the five-character code) onto the taxonomy. Classifying on the class
// keeps the table small and stable; individual codes below override it
// where a class mixes concerns.
var postgresClassKinds = map[string]Kind{
	"08": KindOperational,  // connection exception
	"22": KindData,         // data exception
	"23": KindIntegrity,    // integrity constraint violation
	"25": KindProgramming,  // invalid transaction state
	"26": KindProgramming,  // invalid SQL statement name
	"2D": KindProgramming,  // invalid transaction termination
	"34": KindProgramming,  // invalid cursor name
	"3D": KindProgramming,  // invalid catalog name
	"3F": KindProgramming,  // invalid schema name
	"40": KindOperational,  // transaction rollback (serialization, deadlock)
	"42": KindProgramming,  // syntax error or access rule violation
	"53": KindOperational,  // insufficient resources
	"54": KindOperational,  // program limit exceeded
	"55": KindOperational,  // object not in prerequisite state
	"57": KindOperational,  // operator intervention
	"58": KindOperational,  // system error
	"0A": KindNotSupported, // feature not supported
	"XX": KindOperational,  // internal error
}

// postgresFatalClasses lists SQLSTATE classes after which the session is
// unusable.
var postgresFatalClasses = map[string]bool{
	"08": true, // connection exception
	"57": true, // operator intervention (shutdown, crash)
	"58": true, // system error
	"XX": true, // internal error
}

// ClassifyPostgres maps a lib/pq failure into the taxonomy.
func ClassifyPostgres(err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	if common := classifyCommon("postgres", err); common != nil {
		return common
	}

	var perr *pq.Error
	if !errors.As(err, &perr) {
		return operational("postgres", "", err)
	}
	class := string(perr.Code.Class())
	kind, ok := postgresClassKinds[class]
	if !ok {
		return operational("postgres", string(perr.Code), err)
	}
	return &Error{
		Kind:    kind,
		Backend: "postgres",
		Code:    string(perr.Code),
		Message: perr.Message,
		Fatal:   postgresFatalClasses[class],
		cause:   err,
	}
}
