package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers.
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// MySQLDialect implements Dialect for MySQL/MariaDB via go-sql-driver/mysql.
type MySQLDialect struct{}

func (d *MySQLDialect) Name() string            { return "mysql" }
func (d *MySQLDialect) DriverName() string      { return "mysql" }
func (d *MySQLDialect) SupportsReturning() bool { return false }

func (d *MySQLDialect) LowerExpr(column string) string { return "LOWER(" + column + ")" }

func (d *MySQLDialect) NewParamBuilder() ParamBuilder {
	return &positionalParamBuilder{}
}

func (d *MySQLDialect) ColumnType(kind string, size int) string {
	switch kind {
	case "bigint":
		return "BIGINT"
	case "float":
		return "DOUBLE"
	case "boolean":
		return "BOOLEAN"
	default:
		if size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", size)
		}
		return "TEXT"
	}
}

func (d *MySQLDialect) GeneratedKeyDef(column string) string {
	return column + " BIGINT AUTO_INCREMENT PRIMARY KEY"
}

func (d *MySQLDialect) SystemTablesSQL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS _users (
    id            VARCHAR(36) PRIMARY KEY,
    email         VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    roles         VARCHAR(255) NOT NULL DEFAULT '[]',
    active        BOOLEAN NOT NULL DEFAULT true,
    created_at    BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS _refresh_tokens (
    id         VARCHAR(36) PRIMARY KEY,
    user_id    VARCHAR(36) NOT NULL,
    token      VARCHAR(36) NOT NULL UNIQUE,
    expires_at BIGINT NOT NULL,
    FOREIGN KEY (user_id) REFERENCES _users(id) ON DELETE CASCADE
)`,
	}
}

func (d *MySQLDialect) TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`,
		tableName,
	).Scan(&n)
	return n > 0, err
}

func (d *MySQLDialect) GetColumns(ctx context.Context, db *sql.DB, tableName string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ?`,
		tableName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, err
		}
		cols[name] = dataType
	}
	return cols, rows.Err()
}

func (d *MySQLDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
		case mysqlRowIsReferenced, mysqlNoReferencedRow:
			return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
		}
	}
	return err
}

// Compile-time check
var _ Dialect = (*MySQLDialect)(nil)
