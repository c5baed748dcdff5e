// Package monitoring records an audit trail of answered guest queries.
package monitoring

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dreamstate/guest-assistant/internal/config"
	"github.com/dreamstate/guest-assistant/internal/observability"
)

// Outcome summarizes how a query was answered.
type Outcome string

const (
	OutcomeAnswered         Outcome = "answered"
	OutcomeNotListed        Outcome = "not_listed"
	OutcomePropertyNotFound Outcome = "property_not_found"
	OutcomeNeedsProperty    Outcome = "needs_property"
	OutcomeUnclassified     Outcome = "unclassified"
	OutcomeAggregate        Outcome = "aggregate"
	OutcomeGeneral          Outcome = "general"
	OutcomeError            Outcome = "error"
)

// QueryEvent is one audited guest question.
type QueryEvent struct {
	ID            uuid.UUID `json:"id"`
	RequestID     string    `json:"request_id,omitempty"`
	Intent        string    `json:"intent"`
	PropertyName  string    `json:"property_name,omitempty"`
	MatchedUnit   string    `json:"matched_unit,omitempty"`
	FieldType     string    `json:"field_type,omitempty"`
	DatasetIntent string    `json:"dataset_intent,omitempty"`
	Outcome       Outcome   `json:"outcome"`
	LatencyMs     int64     `json:"latency_ms"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// AuditLogger writes query events to the structured log and, when a database
// is attached, to the guest_queries table.
type AuditLogger struct {
	logger *observability.Logger
	db     *sql.DB
	driver string
}

// NewAuditLogger creates an audit logger. db may be nil for log-only auditing.
func NewAuditLogger(logger *observability.Logger, db *sql.DB, driver string) *AuditLogger {
	return &AuditLogger{
		logger: logger.WithComponent("audit"),
		db:     db,
		driver: driver,
	}
}

// OpenAuditDB opens the configured audit database and creates the schema.
// It returns a nil *sql.DB when auditing to a database is disabled.
func OpenAuditDB(ctx context.Context, cfg config.AuditConfig) (*sql.DB, error) {
	var driverName string
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		driverName = "sqlite3"
	case "postgres":
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("unsupported audit driver: %s", cfg.Driver)
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if driverName == "sqlite3" {
		// each sqlite connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `CREATE TABLE IF NOT EXISTS guest_queries (
	id             TEXT PRIMARY KEY,
	request_id     TEXT,
	intent         TEXT NOT NULL,
	property_name  TEXT,
	matched_unit   TEXT,
	field_type     TEXT,
	dataset_intent TEXT,
	outcome        TEXT NOT NULL,
	latency_ms     BIGINT NOT NULL,
	occurred_at    TIMESTAMP NOT NULL
)`

// EnsureSchema creates the guest_queries table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create guest_queries table: %w", err)
	}
	return nil
}

// LogQuery records an audit event. Defaults are filled for ID and OccurredAt.
func (a *AuditLogger) LogQuery(ctx context.Context, event QueryEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	a.logger.Info().
		Str("event_id", event.ID.String()).
		Str("request_id", event.RequestID).
		Str("intent", event.Intent).
		Str("property", event.PropertyName).
		Str("matched_unit", event.MatchedUnit).
		Str("field_type", event.FieldType).
		Str("dataset_intent", event.DatasetIntent).
		Str("outcome", string(event.Outcome)).
		Int64("latency_ms", event.LatencyMs).
		Msg("Guest query")

	if a.db == nil {
		return nil
	}

	q := `INSERT INTO guest_queries
		(id, request_id, intent, property_name, matched_unit, field_type, dataset_intent, outcome, latency_ms, occurred_at)
		VALUES (` + a.placeholders(10) + `)`
	_, err := a.db.ExecContext(ctx, q,
		event.ID.String(),
		event.RequestID,
		event.Intent,
		event.PropertyName,
		event.MatchedUnit,
		event.FieldType,
		event.DatasetIntent,
		string(event.Outcome),
		event.LatencyMs,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert guest query: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (a *AuditLogger) Recent(ctx context.Context, limit int) ([]QueryEvent, error) {
	if a.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.QueryContext(ctx, `SELECT
		id, request_id, intent, property_name, matched_unit, field_type, dataset_intent, outcome, latency_ms, occurred_at
		FROM guest_queries ORDER BY occurred_at DESC LIMIT `+a.placeholders(1), limit)
	if err != nil {
		return nil, fmt.Errorf("query guest queries: %w", err)
	}
	defer rows.Close()

	var events []QueryEvent
	for rows.Next() {
		var (
			e        QueryEvent
			id       string
			outcome  string
			optional [5]sql.NullString
		)
		if err := rows.Scan(&id, &optional[0], &e.Intent, &optional[1], &optional[2], &optional[3], &optional[4], &outcome, &e.LatencyMs, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan guest query: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse guest query id: %w", err)
		}
		e.RequestID = optional[0].String
		e.PropertyName = optional[1].String
		e.MatchedUnit = optional[2].String
		e.FieldType = optional[3].String
		e.DatasetIntent = optional[4].String
		e.Outcome = Outcome(outcome)
		events = append(events, e)
	}
	return events, rows.Err()
}

// placeholders renders n bind parameters in the driver's syntax.
func (a *AuditLogger) placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		if a.driver == "postgres" {
			marks[i] = fmt.Sprintf("$%d", i+1)
		} else {
			marks[i] = "?"
		}
	}
	return strings.Join(marks, ", ")
}
