package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
	driver string
}

// OpenSQLite3 opens and returns a SQLite3 database
// busy_timeout keeps concurrent writers from failing immediately
// with SQLITE_BUSY while another statement runs
func OpenSQLite3(path string) (*DB, error) {
	os.MkdirAll(filepath.Dir(path), 0775)

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	return &DB{DB: db, driver: "sqlite3"}, nil
}

// OpenPSQL opens and returns a PostgreSQL database
func OpenPSQL(host, name, user, password string, port uint16) (*DB, error) {
	psqlconn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, name)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db, driver: "postgres"}, nil
}

// OpenGameDB opens the backend selected in the configuration,
// defaulting to a SQLite3 file under storage/
func OpenGameDB() (*DB, error) {
	backend, ok := ConfKey("database:backend").(string)
	if !ok {
		backend = "sqlite3"
	}

	switch backend {
	case "sqlite3":
		path, ok := ConfKey("database:path").(string)
		if !ok {
			path = "storage/aldergate.sqlite"
		}

		return OpenSQLite3(path)
	case "postgres":
		host, ok := ConfKey("database:host").(string)
		if !ok {
			host = "localhost"
		}
		name, ok := ConfKey("database:name").(string)
		if !ok {
			name = "aldergate"
		}
		user, ok := ConfKey("database:user").(string)
		if !ok {
			user = "aldergate"
		}
		password, _ := ConfKey("database:password").(string)
		port, ok := ConfKey("database:port").(int)
		if !ok {
			port = 5432
		}

		return OpenPSQL(host, name, user, password, uint16(port))
	}

	return nil, fmt.Errorf("unknown database backend %s", backend)
}
