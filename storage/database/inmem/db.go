package inmemdb

import (
	"sync"

	"github.com/trezcool/kenova/core/course"
	"github.com/trezcool/kenova/core/user"
)

type (
	// DB keeps every table in memory. It backs the tests and the "memory" database engine.
	DB struct {
		user          *table[user.User]
		parentStudent *table[user.ParentStudent]
		course        *table[course.Course]
		enrollment    *table[course.Enrollment]
		assignment    *table[course.Assignment]
	}

	table[T any] struct {
		mutex   sync.RWMutex
		rows    map[int]*T
		pkCount int
	}
)

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int]*T)}
}

// Open returns an empty in-memory database.
func Open() *DB {
	return &DB{
		user:          newTable[user.User](),
		parentStudent: newTable[user.ParentStudent](),
		course:        newTable[course.Course](),
		enrollment:    newTable[course.Enrollment](),
		assignment:    newTable[course.Assignment](),
	}
}

// nextID must be called with the write lock held.
func (t *table[T]) nextID() int {
	t.pkCount++
	return t.pkCount
}

// sorted returns copies of the rows ordered by primary key. Must be called with a lock held.
func (t *table[T]) sorted() []T {
	rows := make([]T, 0, len(t.rows))
	for id := 1; id <= t.pkCount; id++ {
		if row, ok := t.rows[id]; ok {
			rows = append(rows, *row)
		}
	}
	return rows
}

// Len returns the number of rows of each table, keyed by table name.
func (db *DB) Len() map[string]int {
	return map[string]int{
		"user":           db.user.len(),
		"parent_student": db.parentStudent.len(),
		"course":         db.course.len(),
		"enrollment":     db.enrollment.len(),
		"assignment":     db.assignment.len(),
	}
}

func (t *table[T]) len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.rows)
}
