// Package pgcatalog implements metadata.Port against a live PostgreSQL
// database's information_schema: a connection pool plus row-scan queries
// over the catalog tables.
package pgcatalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relq/optimizer/metadata"
	"github.com/relq/optimizer/relqerr"
)

// Port is a metadata.Port backed by a live Postgres connection pool. The
// entity->table mapping is supplied by the caller (entity registration
// is a concern of the query language's own metadata registry, not this
// package); column-level facts are read live from information_schema so
// they always reflect the current schema.
type Port struct {
	pool    *pgxpool.Pool
	toTable map[string]string // entity name -> qualified table name
}

// New connects to dsn and returns a Port using entityTables to resolve
// entity names to Postgres table names.
func New(ctx context.Context, dsn string, entityTables map[string]string) (*Port, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgcatalog: connect: %w", err)
	}
	return &Port{pool: pool, toTable: entityTables}, nil
}

// Close releases the underlying connection pool.
func (p *Port) Close() { p.pool.Close() }

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
	return p.table("pgcatalog.TableOf", entity)
}

func (p *Port) ColumnMap(entity string) (map[string]string, error) {
	table, err := p.table("pgcatalog.ColumnMap", entity)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	rows, err := p.pool.Query(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_name = $1`, table)
	if err != nil {
		return nil, fmt.Errorf("pgcatalog.ColumnMap: query: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("pgcatalog.ColumnMap: scan: %w", err)
		}
		cols[name] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgcatalog.ColumnMap: iterate: %w", err)
	}
	return cols, nil
}

func (p *Port) PrimaryKeyColumns(entity string) ([]string, error) {
	table, err := p.table("pgcatalog.PrimaryKeyColumns", entity)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	rows, err := p.pool.Query(ctx, `
		SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		WHERE i.indrelid = $1::regclass AND i.indisprimary
		ORDER BY array_position(i.indkey, a.attnum)`, table)
	if err != nil {
		return nil, fmt.Errorf("pgcatalog.PrimaryKeyColumns: query: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("pgcatalog.PrimaryKeyColumns: scan: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (p *Port) IsColumnNullable(entity, property string) (bool, error) {
	table, err := p.table("pgcatalog.IsColumnNullable", entity)
	if err != nil {
		return true, err
	}
	ctx := context.Background()
	var nullable string
	err = p.pool.QueryRow(ctx,
		`SELECT is_nullable FROM information_schema.columns
		 WHERE table_name = $1 AND column_name = $2`, table, property).Scan(&nullable)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Unknown fields are conservatively treated as nullable.
			return true, relqerr.New("pgcatalog.IsColumnNullable", relqerr.UnknownProperty)
		}
		return true, fmt.Errorf("pgcatalog.IsColumnNullable: query: %w", err)
	}
	return nullable == "YES", nil
}

// RelationKind is not derivable from information_schema alone without an
// ORM-level mapping; this implementation always reports RelationNone and
// leaves relationship classification to metadata.Static-backed callers
// that layer entity-mapping metadata on top of a live Postgres schema.
func (p *Port) RelationKind(entity, property string) (metadata.RelationKind, error) {
	if !p.EntityExists(entity) {
		return metadata.RelationNone, relqerr.New("pgcatalog.RelationKind", relqerr.UnknownEntity)
	}
	return metadata.RelationNone, nil
}

func (p *Port) DependentEntities(entity string) ([]string, error) {
	table, err := p.table("pgcatalog.DependentEntities", entity)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	rows, err := p.pool.Query(ctx, `
		SELECT tc.table_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY' AND ccu.table_name = $1`, table)
	if err != nil {
		return nil, fmt.Errorf("pgcatalog.DependentEntities: query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("pgcatalog.DependentEntities: scan: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

var _ metadata.Port = (*Port)(nil)
