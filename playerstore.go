package main

import (
	"database/sql"
	"fmt"
)

// Player is a character sheet summary as persisted
// The full stat grid of the wire packet is gameplay content and is
// not persisted here
type Player struct {
	ID         int64
	Account    string
	FirstName  string
	LastName   string
	Race       string
	Gender     string
	Profession string
	Level      int
	Hp         int
	Bp         int
	Mp         int
	Ep         int
	X          int
	Y          int
	Z          int
	Direction  float64
}

// NPC is a non-player character summary, read-only for the console
type NPC struct {
	ID         int64
	FirstName  string
	LastName   string
	Race       string
	Profession string
	Level      int
}

// PlayerStore is the persistence contract for character records
type PlayerStore interface {
	InsertPlayer(p Player) error
	ListPlayers() ([]Player, error)
	ListByAccount(account string) ([]Player, error)
	ListNPCs() ([]NPC, error)
}

// PlayerDB implements PlayerStore on a SQL database
type PlayerDB struct {
	db *DB
}

// NewPlayerDB creates the players and npcs tables if needed
func NewPlayerDB(db *DB) (*PlayerDB, error) {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.driver == "postgres" {
		idColumn = "id SERIAL PRIMARY KEY"
	}

	sql_table := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS players (
		%s,
		accountname VARCHAR(30) NOT NULL,
		firstname VARCHAR(25) NOT NULL,
		lastname VARCHAR(25) NOT NULL,
		race VARCHAR(25) NOT NULL,
		gender VARCHAR(25) NOT NULL,
		profession VARCHAR(25) NOT NULL,
		level INTEGER NOT NULL,
		hp INTEGER NOT NULL,
		bp INTEGER NOT NULL,
		mp INTEGER NOT NULL,
		ep INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		z INTEGER NOT NULL,
		direction REAL NOT NULL
	);`, idColumn)

	if _, err := db.Exec(sql_table); err != nil {
		return nil, err
	}

	sql_table = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS npcs (
		%s,
		firstname VARCHAR(25) NOT NULL,
		lastname VARCHAR(25) NOT NULL,
		race VARCHAR(25) NOT NULL,
		profession VARCHAR(25) NOT NULL,
		level INTEGER NOT NULL
	);`, idColumn)

	if _, err := db.Exec(sql_table); err != nil {
		return nil, err
	}

	return &PlayerDB{db: db}, nil
}

// InsertPlayer persists a new character record
func (s *PlayerDB) InsertPlayer(p Player) error {
	if !validAccountName(p.Account) {
		return ErrInvalidInput
	}

	_, err := s.db.Exec(`INSERT INTO players (
		accountname, firstname, lastname, race, gender, profession,
		level, hp, bp, mp, ep, x, y, z, direction
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);`,
		p.Account, p.FirstName, p.LastName, p.Race, p.Gender, p.Profession,
		p.Level, p.Hp, p.Bp, p.Mp, p.Ep, p.X, p.Y, p.Z, p.Direction)
	if err != nil {
		return fmt.Errorf("insert player %s: %w", p.FirstName, err)
	}

	return nil
}

func scanPlayers(rows *sql.Rows) ([]Player, error) {
	defer rows.Close()

	var r []Player
	for rows.Next() {
		var p Player
		err := rows.Scan(&p.ID, &p.Account, &p.FirstName, &p.LastName,
			&p.Race, &p.Gender, &p.Profession, &p.Level,
			&p.Hp, &p.Bp, &p.Mp, &p.Ep, &p.X, &p.Y, &p.Z, &p.Direction)
		if err != nil {
			return nil, err
		}
		r = append(r, p)
	}

	return r, rows.Err()
}

// ListPlayers returns all character records
func (s *PlayerDB) ListPlayers() ([]Player, error) {
	rows, err := s.db.Query(`SELECT id, accountname, firstname, lastname,
		race, gender, profession, level, hp, bp, mp, ep, x, y, z, direction
		FROM players ORDER BY firstname;`)
	if err != nil {
		return nil, err
	}

	return scanPlayers(rows)
}

// ListByAccount returns the characters owned by one account, which
// is what character selection validates against
func (s *PlayerDB) ListByAccount(account string) ([]Player, error) {
	if !validAccountName(account) {
		return nil, ErrInvalidInput
	}

	rows, err := s.db.Query(`SELECT id, accountname, firstname, lastname,
		race, gender, profession, level, hp, bp, mp, ep, x, y, z, direction
		FROM players WHERE accountname = $1 ORDER BY id;`, account)
	if err != nil {
		return nil, err
	}

	return scanPlayers(rows)
}

// ListNPCs returns all NPC records for the console
func (s *PlayerDB) ListNPCs() ([]NPC, error) {
	rows, err := s.db.Query(`SELECT id, firstname, lastname, race, profession, level FROM npcs ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var r []NPC
	for rows.Next() {
		var n NPC
		if err := rows.Scan(&n.ID, &n.FirstName, &n.LastName, &n.Race, &n.Profession, &n.Level); err != nil {
			return nil, err
		}
		r = append(r, n)
	}

	return r, rows.Err()
}
