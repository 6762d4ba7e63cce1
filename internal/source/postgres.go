package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	apperrors "sheetmatch/internal/errors"
	"sheetmatch/internal/state"
)

// DataSourceConfig holds connection details
type DataSourceConfig struct {
	Type     string `json:"type" mapstructure:"type" yaml:"type"` // "postgres"
	Host     string `json:"host" mapstructure:"host" yaml:"host"`
	Port     int    `json:"port" mapstructure:"port" yaml:"port"`
	User     string `json:"user" mapstructure:"user" yaml:"user"`
	Password string `json:"password" mapstructure:"password" yaml:"password"`
	DBName   string `json:"dbname" mapstructure:"dbname" yaml:"dbname"`
	SSLMode  string `json:"sslmode" mapstructure:"sslmode" yaml:"sslmode"` // "disable", "require"
}

// ConnString renders the config as a lib/pq connection string.
func (c DataSourceConfig) ConnString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode)
}

// DataSource defines the interface for database-backed tables
type DataSource interface {
	Connect(ctx context.Context, config DataSourceConfig) error
	Close() error
	ListTables(ctx context.Context) ([]string, error)
	LoadTable(ctx context.Context, tableName string, limit int) (*state.DataFrame, error)
}

// PostgresDataSource implements DataSource for PostgreSQL
type PostgresDataSource struct {
	db *sql.DB
}

// NewPostgresDataSource wraps an existing connection pool.
func NewPostgresDataSource(db *sql.DB) *PostgresDataSource {
	return &PostgresDataSource{db: db}
}

func (p *PostgresDataSource) Connect(ctx context.Context, config DataSourceConfig) error {
	if config.Type != "" && config.Type != "postgres" {
		return apperrors.NewConfigError("type", config.Type, "only postgres is supported")
	}

	db, err := sql.Open("postgres", config.ConnString())
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	p.db = db
	return nil
}

func (p *PostgresDataSource) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *PostgresDataSource) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name;
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

// LoadTable reads up to limit rows of a public table. The table name must
// be one returned by ListTables; limit <= 0 reads the whole table.
func (p *PostgresDataSource) LoadTable(ctx context.Context, tableName string, limit int) (*state.DataFrame, error) {
	tables, err := p.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if !contains(tables, tableName) {
		return nil, apperrors.NewNotFoundError("table", tableName)
	}

	query := "SELECT * FROM " + pq.QuoteIdentifier(tableName)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	df := &state.DataFrame{
		FileName: tableName,
		Headers:  columns,
	}

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make([]any, len(columns))
		for i, val := range values {
			row[i] = convertValue(val, types[i].DatabaseTypeName())
		}
		df.Rows = append(df.Rows, row)
	}

	return df, rows.Err()
}

// convertValue normalizes driver values: byte slices become strings, or
// exact decimals for NUMERIC columns, and blank strings become nil.
func convertValue(val any, dbType string) any {
	switch v := val.(type) {
	case nil:
		return nil
	case []byte:
		if strings.EqualFold(dbType, "NUMERIC") {
			if d, err := decimal.NewFromString(string(v)); err == nil {
				return d
			}
		}
		return cell(string(v))
	case string:
		return cell(v)
	case time.Time:
		return v.UTC()
	default:
		return v
	}
}
