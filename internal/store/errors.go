// Package store owns the PostgreSQL schema: it rebuilds the database, bulk
// loads fetched employers and vacancies, and runs the analytical queries.
package store

import (
	"errors"
	"fmt"
)

// ErrEmptyKeyword is returned by VacanciesByKeyword for a blank keyword.
var ErrEmptyKeyword = errors.New("keyword must not be empty")

// SchemaError is a DDL failure while (re)creating the database or tables.
// It is fatal: nothing may be loaded after it.
type SchemaError struct {
	Op  string
	Err error
}

func (e *SchemaError) Error() string { return fmt.Sprintf("schema: %s: %v", e.Op, e.Err) }

func (e *SchemaError) Unwrap() error { return e.Err }

// LoadError is a failure of the bulk load. The whole batch has been rolled
// back when it is returned. EmployerID and VacancyID identify the row being
// written, when known.
type LoadError struct {
	EmployerID string
	VacancyID  string
	Err        error
}

func (e *LoadError) Error() string {
	switch {
	case e.VacancyID != "":
		return fmt.Sprintf("load: employer %s vacancy %s: %v", e.EmployerID, e.VacancyID, e.Err)
	case e.EmployerID != "":
		return fmt.Sprintf("load: employer %s: %v", e.EmployerID, e.Err)
	default:
		return fmt.Sprintf("load: %v", e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

// QueryError is a failed analytical read. The session stays usable.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string { return fmt.Sprintf("query %s: %v", e.Op, e.Err) }

func (e *QueryError) Unwrap() error { return e.Err }
