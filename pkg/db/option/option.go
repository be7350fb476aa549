// Package option holds composable query predicates for the generic repository.
package option

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption narrows or shapes a gorm statement.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

// Func adapts a plain function to QueryOption.
type Func func(db *gorm.DB) *gorm.DB

func (f Func) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// Where adds a raw condition.
func Where(query any, args ...any) QueryOption {
	return Func(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}

// Equal matches column = value. The column is quoted by gorm.
func Equal(column string, value any) QueryOption {
	return Func(func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	})
}

// NotEqual matches column <> value.
func NotEqual(column string, value any) QueryOption {
	return Func(func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Neq{Column: clause.Column{Name: column}, Value: value})
	})
}

// OrderBy sorts by column.
func OrderBy(column string, desc bool) QueryOption {
	return Func(func(db *gorm.DB) *gorm.DB {
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	})
}

// Preload eagerly loads an association. Associations are never loaded unless asked for.
func Preload(association string, args ...any) QueryOption {
	return Func(func(db *gorm.DB) *gorm.DB {
		return db.Preload(association, args...)
	})
}

func Limit(n int) QueryOption {
	return Func(func(db *gorm.DB) *gorm.DB {
		return db.Limit(n)
	})
}

func Offset(n int) QueryOption {
	return Func(func(db *gorm.DB) *gorm.DB {
		return db.Offset(n)
	})
}
