package store

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/vacancy-loader/internal/db"
)

const createEmployers = `
	CREATE TABLE employers (
		company_id   SERIAL PRIMARY KEY,
		company_name VARCHAR(255) NOT NULL,
		company_url  VARCHAR(255) NOT NULL
	)`

const createVacancies = `
	CREATE TABLE vacancies (
		vacancy_id    INTEGER PRIMARY KEY,
		company_id    INTEGER NOT NULL REFERENCES employers (company_id),
		title_vacancy VARCHAR(255) NOT NULL,
		salary        INTEGER,
		link          VARCHAR(255) NOT NULL,
		description   TEXT,
		experience    VARCHAR(150)
	)`

// terminateSessions ends every other session on the database about to be
// dropped, such as a menu left open while a scheduled reload runs.
const terminateSessions = `
	SELECT pg_terminate_backend(pid)
	FROM pg_stat_activity
	WHERE datname = $1 AND pid <> pg_backend_pid()`

const createVacanciesCompanyIdx = `CREATE INDEX vacancies_company_id_idx ON vacancies (company_id)`

// SchemaManager drops and recreates the loader's database and tables.
type SchemaManager struct {
	adminURL string
	dbName   string
}

// NewSchemaManager returns a SchemaManager that connects to the maintenance
// database at adminURL to manage the database named dbName.
func NewSchemaManager(adminURL, dbName string) *SchemaManager {
	return &SchemaManager{adminURL: adminURL, dbName: dbName}
}

// CreateDatabase drops dbName if it exists and creates it empty.
//
// It must run on an auto-committing connection: PostgreSQL refuses
// CREATE/DROP DATABASE inside a transaction block. Other sessions still
// connected to dbName are terminated first; the role needs permission to
// signal them (superuser, the same role, or pg_signal_backend).
func (m *SchemaManager) CreateDatabase(ctx context.Context) error {
	conn, err := db.NewAdminConn(ctx, m.adminURL)
	if err != nil {
		return &SchemaError{Op: "connect admin database", Err: err}
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if _, err := conn.Exec(ctx, terminateSessions, m.dbName); err != nil {
		return &SchemaError{Op: "terminate sessions on " + m.dbName, Err: err}
	}

	ident := pgx.Identifier{m.dbName}.Sanitize()
	if _, err := conn.Exec(ctx, "DROP DATABASE IF EXISTS "+ident); err != nil {
		return &SchemaError{Op: "drop database " + m.dbName, Err: err}
	}
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+ident); err != nil {
		return &SchemaError{Op: "create database " + m.dbName, Err: err}
	}

	slog.Info("database recreated", "database", m.dbName)
	return nil
}

// CreateTables creates the employers and vacancies tables. pool must be
// connected to the database just created by CreateDatabase.
func (m *SchemaManager) CreateTables(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range []struct{ op, sql string }{
		{"create table employers", createEmployers},
		{"create table vacancies", createVacancies},
		{"create index vacancies_company_id_idx", createVacanciesCompanyIdx},
	} {
		if _, err := pool.Exec(ctx, stmt.sql); err != nil {
			return &SchemaError{Op: stmt.op, Err: err}
		}
	}

	slog.Info("tables created", "database", m.dbName)
	return nil
}
