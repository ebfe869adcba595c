// Package option holds composable query modifiers for gorm statements.
package option

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type QueryOptionFunc func(db *gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

// WithOrderBy appends an ORDER BY column, optionally qualified as
// "table.column". Unknown columns are rejected by the caller.
func WithOrderBy(column string, desc bool) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		column = strings.TrimSpace(column)
		if column == "" {
			return db
		}
		col := clause.Column{Name: column}
		if table, name, ok := strings.Cut(column, "."); ok {
			col = clause.Column{Table: table, Name: name}
		}
		return db.Order(clause.OrderByColumn{Column: col, Desc: desc})
	})
}

func WithJoin(query string, args ...any) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Joins(query, args...)
	})
}

func WithWhere(query string, args ...any) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}

func WithPreload(association string) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Preload(association)
	})
}
