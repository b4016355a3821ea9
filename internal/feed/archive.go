package feed

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS agents (
	id          TEXT NOT NULL,
	session_id  TEXT NOT NULL,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	start_time  INTEGER NOT NULL,
	end_time    INTEGER,
	status      TEXT NOT NULL,
	PRIMARY KEY (session_id, id)
);
CREATE INDEX IF NOT EXISTS idx_agents_window ON agents (session_id, start_time);

CREATE TABLE IF NOT EXISTS messages (
	id          TEXT NOT NULL,
	session_id  TEXT NOT NULL,
	sender      TEXT NOT NULL,
	ts          INTEGER NOT NULL,
	payload     BLOB,
	PRIMARY KEY (session_id, id)
);
CREATE INDEX IF NOT EXISTS idx_messages_window ON messages (session_id, ts);
`

// ArchiveSource serves sessions from a SQLite file. It doubles as the sink
// the recorder writes finished sessions into.
type ArchiveSource struct {
	db *sql.DB
}

// OpenArchive opens (and if needed initializes) the archive database.
func OpenArchive(path string) (*ArchiveSource, error) {
	if path == "" {
		return nil, fmt.Errorf("archive path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}
	return &ArchiveSource{db: db}, nil
}

func (a *ArchiveSource) Name() string { return "archive" }

func (a *ArchiveSource) PutSpan(ctx context.Context, span timeline.AgentSpan) error {
	var end sql.NullInt64
	if span.EndTime != nil {
		end = sql.NullInt64{Int64: *span.EndTime, Valid: true}
	}
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO agents (id, session_id, name, type, start_time, end_time, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			status = excluded.status`,
		span.ID, span.SessionID, span.Name, span.Type, span.StartTime, end, string(span.Status))
	if err != nil {
		return fmt.Errorf("archive put span %q: %w", span.ID, err)
	}
	return nil
}

func (a *ArchiveSource) PutMessage(ctx context.Context, msg timeline.MessageEvent) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, sender, ts, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id, id) DO NOTHING`,
		msg.ID, msg.SessionID, msg.Sender, msg.Timestamp, msg.Payload)
	if err != nil {
		return fmt.Errorf("archive put message %q: %w", msg.ID, err)
	}
	return nil
}

func (a *ArchiveSource) Sessions(ctx context.Context, from, to int64) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT session_id, MAX(COALESCE(end_time, start_time)) AS last
		FROM agents
		WHERE COALESCE(end_time, start_time) BETWEEN ? AND ?
		GROUP BY session_id
		ORDER BY last DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("archive sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var id string
		var last int64
		if err := rows.Scan(&id, &last); err != nil {
			return nil, fmt.Errorf("archive sessions scan: %w", err)
		}
		sessions = append(sessions, id)
	}
	return sessions, rows.Err()
}

func (a *ArchiveSource) FetchWindow(ctx context.Context, session string, from, to int64) ([]timeline.AgentSpan, []timeline.MessageEvent, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, name, type, start_time, end_time, status
		FROM agents
		WHERE session_id = ? AND start_time <= ? AND (end_time IS NULL OR end_time >= ?)
		ORDER BY start_time, id`, session, to, from)
	if err != nil {
		return nil, nil, fmt.Errorf("archive spans: %w", err)
	}
	defer rows.Close()

	var spans []timeline.AgentSpan
	for rows.Next() {
		var span timeline.AgentSpan
		var end sql.NullInt64
		var status string
		if err := rows.Scan(&span.ID, &span.Name, &span.Type, &span.StartTime, &end, &status); err != nil {
			return nil, nil, fmt.Errorf("archive spans scan: %w", err)
		}
		span.SessionID = session
		span.Status = timeline.Status(status)
		if end.Valid {
			v := end.Int64
			span.EndTime = &v
		}
		spans = append(spans, span)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	mrows, err := a.db.QueryContext(ctx, `
		SELECT id, sender, ts, payload
		FROM messages
		WHERE session_id = ? AND ts BETWEEN ? AND ?
		ORDER BY ts, id`, session, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("archive messages: %w", err)
	}
	defer mrows.Close()

	var msgs []timeline.MessageEvent
	for mrows.Next() {
		var msg timeline.MessageEvent
		if err := mrows.Scan(&msg.ID, &msg.Sender, &msg.Timestamp, &msg.Payload); err != nil {
			return nil, nil, fmt.Errorf("archive messages scan: %w", err)
		}
		msg.SessionID = session
		msgs = append(msgs, msg)
	}
	return spans, msgs, mrows.Err()
}

// Close closes the underlying database.
func (a *ArchiveSource) Close() error {
	return a.db.Close()
}
