package db

import "database/sql"

// DBProvider is an interface for database clients that provide access to a
// sql.DB handle. It lets PostgresClient and SupabaseClient be used
// interchangeably as the archive replica target.
type DBProvider interface {
	DB() *sql.DB
}
