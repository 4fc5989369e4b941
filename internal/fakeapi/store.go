package fakeapi

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"birthdaybot/pkg/birthday"
)

var (
	errDuplicateName = errors.New("name already in use")
	errNoRows        = errors.New("no rows")
)

const schema = `
CREATE TABLE birthdays (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner TEXT NOT NULL,
	name TEXT NOT NULL,
	day INTEGER NOT NULL,
	month INTEGER NOT NULL,
	year INTEGER,
	note TEXT,
	UNIQUE (owner, name)
);`

// Store backs the fake record-store API with an in-memory sqlite
// database, one row per birthday scoped to its owner identity.
type Store struct {
	DB *sql.DB
}

func NewStore() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// A second connection would see its own empty :memory: database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) Create(owner string, b birthday.Birthday) (int64, error) {
	result, err := s.DB.Exec(
		"INSERT INTO birthdays (owner, name, day, month, year, note) VALUES (?, ?, ?, ?, ?, ?)",
		owner, b.Name, b.Day, b.Month, b.Year, b.Note,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errDuplicateName
		}
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Store) List(owner string) ([]birthday.Birthday, error) {
	rows, err := s.DB.Query(
		"SELECT id, name, day, month, year, note FROM birthdays WHERE owner = ? ORDER BY id",
		owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []birthday.Birthday
	for rows.Next() {
		b, err := scanBirthday(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func (s *Store) Get(owner string, id int64) (*birthday.Birthday, error) {
	row := s.DB.QueryRow(
		"SELECT id, name, day, month, year, note FROM birthdays WHERE owner = ? AND id = ?",
		owner, id,
	)
	b, err := scanBirthday(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNoRows
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) Update(owner string, id int64, b birthday.Birthday) error {
	var existing int64
	err := s.DB.QueryRow(
		"SELECT id FROM birthdays WHERE owner = ? AND name = ? AND id != ?",
		owner, b.Name, id,
	).Scan(&existing)
	if err == nil {
		return errDuplicateName
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	result, err := s.DB.Exec(
		"UPDATE birthdays SET name = ?, day = ?, month = ?, year = ?, note = ? WHERE owner = ? AND id = ?",
		b.Name, b.Day, b.Month, b.Year, b.Note, owner, id,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errNoRows
	}
	return nil
}

func (s *Store) Delete(owner string, id int64) error {
	result, err := s.DB.Exec("DELETE FROM birthdays WHERE owner = ? AND id = ?", owner, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errNoRows
	}
	return nil
}

// Incoming returns every record due in exactly 0, 1 or 7 days,
// annotated with its owner, across all users.
func (s *Store) Incoming(today time.Time) ([]birthday.Incoming, error) {
	rows, err := s.DB.Query("SELECT id, name, day, month, year, note, owner FROM birthdays ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	var list []birthday.Incoming
	for rows.Next() {
		var (
			b     birthday.Birthday
			year  sql.NullInt64
			note  sql.NullString
			owner string
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Day, &b.Month, &year, &note, &owner); err != nil {
			return nil, err
		}
		if year.Valid {
			y := int(year.Int64)
			b.Year = &y
		}
		if note.Valid {
			n := note.String
			b.Note = &n
		}

		days, ok := daysUntil(b.Day, b.Month, todayDate)
		if !ok {
			continue
		}

		var incoming birthday.Incoming
		incoming.Birthday = b
		incoming.IncomingInDays = days
		incoming.Creator.TelegramID = parseTelegramID(owner)
		list = append(list, incoming)
	}
	return list, rows.Err()
}

func daysUntil(day, month int, today time.Time) (int, bool) {
	next := time.Date(today.Year(), time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if next.Before(today) {
		next = time.Date(today.Year()+1, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	}
	days := int(next.Sub(today).Hours() / 24)
	if days == 0 || days == 1 || days == 7 {
		return days, true
	}
	return 0, false
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func parseTelegramID(owner string) int64 {
	id, err := strconv.ParseInt(owner, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBirthday(row scanner) (birthday.Birthday, error) {
	var (
		b    birthday.Birthday
		year sql.NullInt64
		note sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Name, &b.Day, &b.Month, &year, &note); err != nil {
		return birthday.Birthday{}, err
	}
	if year.Valid {
		y := int(year.Int64)
		b.Year = &y
	}
	if note.Valid {
		n := note.String
		b.Note = &n
	}
	return b, nil
}
