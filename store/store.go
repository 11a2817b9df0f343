// Package store records draw sessions and their batches in MySQL. Only seeds
// and requests are needed to reproduce a session, the values are kept for
// auditing.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/xor-shift/xsrng/common"
	"github.com/xor-shift/xsrng/util"
)

var schema = []string{
	"CREATE TABLE IF NOT EXISTS sessions (" +
		"session_id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY" +
		", seed CHAR(16) NOT NULL" +
		", created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)",
	"CREATE TABLE IF NOT EXISTS draw_batches (" +
		"session_id INT UNSIGNED NOT NULL" +
		", batch_order INT UNSIGNED NOT NULL" +
		", min_value BIGINT NOT NULL, max_value BIGINT NOT NULL, draw_count INT NOT NULL" +
		", draw_values LONGTEXT NOT NULL" +
		", insert_time TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP" +
		", PRIMARY KEY (session_id, batch_order))",
}

const (
	insertSessionQuery = "INSERT INTO sessions (seed) VALUES (?) RETURNING session_id"
	selectSessionQuery = "SELECT seed, created_at FROM sessions WHERE session_id=?"
	insertBatchQuery   = "INSERT INTO draw_batches (session_id, batch_order, min_value, max_value, draw_count, draw_values) VALUES (?, ?, ?, ?, ?, ?)"
	selectBatchesQuery = "SELECT batch_order, min_value, max_value, draw_count, draw_values FROM draw_batches WHERE session_id=? ORDER BY batch_order"
)

var ErrNoSession = errors.New("no such session")

type Session struct {
	ID        uint
	Seed      uint64
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

func Open(cfg *mysql.Config) (*Store, error) {
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	return &Store{db: db}, nil
}

// Migrate creates the tables if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "creating schema")
		}
	}

	return nil
}

// NewSession implements dispense.SessionRecorder.
func (s *Store) NewSession(ctx context.Context, seed uint64) (uint, error) {
	var sessionID uint

	if err := s.db.QueryRowContext(ctx, insertSessionQuery, util.ArrayToString([]uint64{seed})).Scan(&sessionID); err != nil {
		return 0, errors.Wrap(err, "inserting session")
	}

	return sessionID, nil
}

func (s *Store) Session(ctx context.Context, sessionID uint) (Session, error) {
	session := Session{ID: sessionID}

	var seed string
	err := s.db.QueryRowContext(ctx, selectSessionQuery, sessionID).Scan(&seed, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, errors.Wrapf(ErrNoSession, "session %d", sessionID)
	}
	if err != nil {
		return Session{}, errors.Wrapf(err, "fetching session %d", sessionID)
	}

	if session.Seed, err = util.ParseHexUint64(seed); err != nil {
		return Session{}, errors.Wrapf(err, "bad seed stored for session %d", sessionID)
	}

	return session, nil
}

// InsertBatches stores batches in a single transaction.
func (s *Store) InsertBatches(ctx context.Context, batches ...common.DrawBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertBatchQuery)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, batch := range batches {
		values, err := json.Marshal(batch.Values)
		if err != nil {
			return err
		}

		if _, err = stmt.ExecContext(ctx,
			batch.SessionID, batch.Order,
			batch.Request.Min, batch.Request.Max, batch.Request.Count,
			string(values),
		); err != nil {
			return errors.Wrapf(err, "inserting batch %d of session %d", batch.Order, batch.SessionID)
		}
	}

	return tx.Commit()
}

// Batches returns the stored batches of a session in draw order.
func (s *Store) Batches(ctx context.Context, sessionID uint) ([]common.DrawBatch, error) {
	rows, err := s.db.QueryContext(ctx, selectBatchesQuery, sessionID)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching batches of session %d", sessionID)
	}
	defer rows.Close()

	var batches []common.DrawBatch
	for rows.Next() {
		batch := common.DrawBatch{SessionID: sessionID}

		var values string
		if err = rows.Scan(&batch.Order, &batch.Request.Min, &batch.Request.Max, &batch.Request.Count, &values); err != nil {
			return nil, errors.Wrapf(err, "reading batch %d of session %d", len(batches), sessionID)
		}

		if err = json.Unmarshal([]byte(values), &batch.Values); err != nil {
			return nil, errors.Wrapf(err, "parsing values of batch %d of session %d", batch.Order, sessionID)
		}

		batches = append(batches, batch)
	}

	return batches, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
