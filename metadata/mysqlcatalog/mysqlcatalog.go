// Package mysqlcatalog implements metadata.Port against a live MySQL
// database's information_schema, using database/sql with the
// blank-imported go-sql-driver/mysql driver. Its existence alongside
// pgcatalog demonstrates that the Metadata port is dialect-agnostic: the
// optimizer core never imports either package.
package mysqlcatalog

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/relq/optimizer/metadata"
	"github.com/relq/optimizer/relqerr"
)

// Port is a metadata.Port backed by a live MySQL connection.
type Port struct {
	db      *sql.DB
	toTable map[string]string
}

// New opens a MySQL connection using dsn (in go-sql-driver/mysql DSN
// form, e.g. "user:pass@tcp(host:3306)/dbname") and returns a Port using
// entityTables to resolve entity names to MySQL table names.
func New(dsn string, entityTables map[string]string) (*Port, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysqlcatalog: open: %w", err)
	}
	return &Port{db: db, toTable: entityTables}, nil
}

// Close releases the underlying connection.
func (p *Port) Close() error { return p.db.Close() }

func (p *Port) EntityExists(entity string) bool {
	_, ok := p.toTable[entity]
	return ok
}

func (p *Port) table(op, entity string) (string, error) {
	table, ok := p.toTable[entity]
	if !ok {
		return "", relqerr.New(op, relqerr.UnknownEntity)
	}
	return table, nil
}

func (p *Port) TableOf(entity string) (string, error) {
	return p.table("mysqlcatalog.TableOf", entity)
}

func (p *Port) ColumnMap(entity string) (map[string]string, error) {
	table, err := p.table("mysqlcatalog.ColumnMap", entity)
	if err != nil {
		return nil, err
	}
	rows, err := p.db.Query(
		`SELECT column_name FROM information_schema.columns WHERE table_name = ?`, table)
	if err != nil {
		return nil, fmt.Errorf("mysqlcatalog.ColumnMap: query: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("mysqlcatalog.ColumnMap: scan: %w", err)
		}
		cols[name] = name
	}
	return cols, rows.Err()
}

func (p *Port) PrimaryKeyColumns(entity string) ([]string, error) {
	table, err := p.table("mysqlcatalog.PrimaryKeyColumns", entity)
	if err != nil {
		return nil, err
	}
	rows, err := p.db.Query(`
		SELECT column_name FROM information_schema.key_column_usage
		WHERE table_name = ? AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("mysqlcatalog.PrimaryKeyColumns: query: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("mysqlcatalog.PrimaryKeyColumns: scan: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (p *Port) IsColumnNullable(entity, property string) (bool, error) {
	table, err := p.table("mysqlcatalog.IsColumnNullable", entity)
	if err != nil {
		return true, err
	}
	var nullable string
	err = p.db.QueryRow(`
		SELECT is_nullable FROM information_schema.columns
		WHERE table_name = ? AND column_name = ?`, table, property).Scan(&nullable)
	if err != nil {
		if err == sql.ErrNoRows {
			return true, relqerr.New("mysqlcatalog.IsColumnNullable", relqerr.UnknownProperty)
		}
		return true, fmt.Errorf("mysqlcatalog.IsColumnNullable: query: %w", err)
	}
	return nullable == "YES", nil
}

// RelationKind mirrors pgcatalog: information_schema alone carries no
// cardinality information, so this always reports RelationNone.
func (p *Port) RelationKind(entity, property string) (metadata.RelationKind, error) {
	if !p.EntityExists(entity) {
		return metadata.RelationNone, relqerr.New("mysqlcatalog.RelationKind", relqerr.UnknownEntity)
	}
	return metadata.RelationNone, nil
}

func (p *Port) DependentEntities(entity string) ([]string, error) {
	table, err := p.table("mysqlcatalog.DependentEntities", entity)
	if err != nil {
		return nil, err
	}
	rows, err := p.db.Query(`
		SELECT table_name FROM information_schema.key_column_usage
		WHERE referenced_table_name = ?`, table)
	if err != nil {
		return nil, fmt.Errorf("mysqlcatalog.DependentEntities: query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("mysqlcatalog.DependentEntities: scan: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

var _ metadata.Port = (*Port)(nil)
