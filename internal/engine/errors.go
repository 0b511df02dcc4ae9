package engine

import "errors"

var (
	ErrDatabaseClosed = errors.New("engine: database is closed")
	ErrTableExists    = errors.New("engine: table already exists")
	ErrTableNotFound  = errors.New("engine: table not found")
	ErrIndexExists    = errors.New("engine: index already exists")
	ErrIndexNotFound  = errors.New("engine: index not found")
)
