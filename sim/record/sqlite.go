package record

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists simulation output to a SQLite database. Every
// row carries the run's SimId so several runs can share one database.
type SQLiteRecorder struct {
	db    *sql.DB
	simID string
	mu    sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database at dbPath, runs the
// table migrations, and stamps the recorder with a fresh simulation id.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so report queries can read while a run is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, simID: uuid.New().String()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

// SimID returns the id stamped on every row this recorder writes.
func (r *SQLiteRecorder) SimID() string {
	return r.simID
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS Agents (
			SimId     TEXT NOT NULL,
			AgentId   INTEGER NOT NULL,
			Kind      TEXT,
			Prototype TEXT,
			EnterTime INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS Resources (
			SimId       TEXT NOT NULL,
			ResourceId  INTEGER NOT NULL,
			QualId      INTEGER,
			TimeCreated INTEGER,
			Quantity    REAL
		)`,
		`CREATE TABLE IF NOT EXISTS Compositions (
			SimId    TEXT NOT NULL,
			QualId   INTEGER NOT NULL,
			NucId    INTEGER NOT NULL,
			MassFrac REAL
		)`,
		`CREATE TABLE IF NOT EXISTS Transactions (
			SimId         TEXT NOT NULL,
			TransactionId INTEGER NOT NULL,
			SenderId      INTEGER,
			ReceiverId    INTEGER,
			ResourceId    INTEGER,
			Commodity     TEXT,
			Time          INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS Enrichments (
			SimId          TEXT NOT NULL,
			AgentId        INTEGER NOT NULL,
			Time           INTEGER,
			NaturalUranium REAL,
			SWU            REAL
		)`,
		`CREATE TABLE IF NOT EXISTS TimeList (
			SimId TEXT NOT NULL,
			Time  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_time ON Transactions(Time)`,
		`CREATE INDEX IF NOT EXISTS idx_resources_id ON Resources(ResourceId)`,
		`CREATE INDEX IF NOT EXISTS idx_compositions_qual ON Compositions(QualId)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAgent(row AgentRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(
		`INSERT INTO Agents (SimId, AgentId, Kind, Prototype, EnterTime) VALUES (?, ?, ?, ?, ?)`,
		r.simID, row.AgentID, row.Kind, row.Prototype, row.EnterTime)
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordResource(row ResourceRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(
		`INSERT INTO Resources (SimId, ResourceId, QualId, TimeCreated, Quantity) VALUES (?, ?, ?, ?, ?)`,
		r.simID, row.ResourceID, row.QualID, row.TimeCreated, row.Quantity)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordCompositions(rows []CompositionRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		_, err := r.db.Exec(
			`INSERT INTO Compositions (SimId, QualId, NucId, MassFrac) VALUES (?, ?, ?, ?)`,
			r.simID, row.QualID, row.NucID, row.MassFrac)
		if err != nil {
			return fmt.Errorf("insert composition: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTransaction(row TransactionRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(
		`INSERT INTO Transactions (SimId, TransactionId, SenderId, ReceiverId, ResourceId, Commodity, Time)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.simID, row.TransactionID, row.SenderID, row.ReceiverID, row.ResourceID, row.Commodity, row.Time)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordEnrichment(row EnrichmentRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(
		`INSERT INTO Enrichments (SimId, AgentId, Time, NaturalUranium, SWU) VALUES (?, ?, ?, ?, ?)`,
		r.simID, row.AgentID, row.Time, row.NaturalUranium, row.SWU)
	if err != nil {
		return fmt.Errorf("insert enrichment: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordTime(t int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(`INSERT INTO TimeList (SimId, Time) VALUES (?, ?)`, r.simID, t)
	if err != nil {
		return fmt.Errorf("insert time: %w", err)
	}
	return nil
}

// Close flushes and closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
