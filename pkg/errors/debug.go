package errors

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-only expansion of an error chain. DB fields are filled
// when a postgres or mysql driver error sits anywhere in the chain.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	DBDriver     string `json:"db_driver,omitempty"`
	DBCode       string `json:"db_code,omitempty"`
	DBConstraint string `json:"db_constraint,omitempty"`
	DBTable      string `json:"db_table,omitempty"`
	DBDetail     string `json:"db_detail,omitempty"`
	DBMessage    string `json:"db_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	var myErr *mysql.MySQLError
	switch {
	case errors.As(err, &pgxErr):
		d.DBDriver = "postgres"
		d.DBCode = pgxErr.Code
		d.DBConstraint = pgxErr.ConstraintName
		d.DBTable = pgxErr.TableName
		d.DBDetail = pgxErr.Detail
		d.DBMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.DBDriver = "postgres"
		d.DBCode = string(pqErr.Code)
		d.DBConstraint = pqErr.Constraint
		d.DBTable = pqErr.Table
		d.DBDetail = pqErr.Detail
		d.DBMessage = pqErr.Message
	case errors.As(err, &myErr):
		d.DBDriver = "mysql"
		d.DBCode = strconv.Itoa(int(myErr.Number))
		d.DBDetail = string(myErr.SQLState[:])
		d.DBMessage = myErr.Message
	}
	return d
}
