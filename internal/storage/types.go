package storage

import "errors"

var (
	// ErrDuplicate indicates that an icon with the same id already exists.
	ErrDuplicate = errors.New("icon already exists")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownEngine indicates an unsupported storage engine name.
	ErrUnknownEngine = errors.New("unknown storage engine")
)

// Storage engine names accepted by configuration.
const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
	EngineNone     = "none"
)
