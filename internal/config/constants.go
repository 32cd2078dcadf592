package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the SQLite database file
	DefaultDatabasePath = "./bookshelf.db"
)
