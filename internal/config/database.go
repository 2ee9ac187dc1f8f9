package config

import (
	"fmt"
)

// PostgresDSN returns the connection string for the postgres driver.
// An explicit URL wins over the individual fields.
func (d DatabaseConfig) PostgresDSN() string {
	if d.URL != "" {
		return d.URL
	}

	host := d.Host
	if host == "" {
		host = "localhost"
	}
	port := d.Port
	if port == 0 {
		port = 5432
	}
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		host, d.Username, d.Password, d.Database, port, sslMode)
}

// SQLiteDSN returns the sqlite file path with foreign keys switched on
func (d DatabaseConfig) SQLiteDSN() string {
	if d.URL != "" {
		return d.URL
	}
	return d.DatabasePath + "?_foreign_keys=on"
}
