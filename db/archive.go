package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/onnwee/livechat-bot/monitor"
)

// Archive persists lifecycle events and chat messages. It implements
// monitor.Recorder; write failures are the caller's to log, polling never
// stops on them.
type Archive struct{ DB *sql.DB }

// RecordEvent upserts the livestream row on every lifecycle transition so the
// stored status and timestamps track what the tracker last observed.
func (a *Archive) RecordEvent(ctx context.Context, ev monitor.Event) error {
	ls := ev.Livestream
	q := `INSERT INTO livestreams(id, title, description, status, scheduled_start_time, actual_start_time, actual_end_time, url, live_chat_id, updated_at)
		  VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
		  ON CONFLICT(id) DO UPDATE SET
		    title=EXCLUDED.title,
		    description=EXCLUDED.description,
		    status=EXCLUDED.status,
		    scheduled_start_time=EXCLUDED.scheduled_start_time,
		    actual_start_time=EXCLUDED.actual_start_time,
		    actual_end_time=EXCLUDED.actual_end_time,
		    url=EXCLUDED.url,
		    live_chat_id=EXCLUDED.live_chat_id,
		    updated_at=NOW()`
	_, err := a.DB.ExecContext(ctx, q, ls.ID, ls.Title, ls.Description, string(ls.Status),
		nullTime(ls.ScheduledStartTime), nullTime(ls.ActualStartTime), nullTime(ls.ActualEndTime),
		ls.URL, ls.LiveChatID)
	if err != nil {
		return fmt.Errorf("record event %s: %w", ev.Kind, err)
	}
	return nil
}

// RecordMessage inserts one chat message, keyed by the source message id so
// re-delivered pages never produce duplicate rows.
func (a *Archive) RecordMessage(ctx context.Context, livestreamID string, msg monitor.ChatMessage) error {
	q := `INSERT INTO chat_messages(message_id, livestream_id, author_name, author_channel_id, message, message_type, published_at)
		  VALUES($1,$2,$3,$4,$5,$6,$7)
		  ON CONFLICT(message_id) DO NOTHING`
	_, err := a.DB.ExecContext(ctx, q, msg.ID, livestreamID, msg.AuthorName, msg.AuthorChannelID, msg.Text, string(msg.Type), msg.PublishedAt)
	if err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}

// StoredMessage is one archived chat row as served by the API.
type StoredMessage struct {
	MessageID    string    `json:"messageId"`
	LivestreamID string    `json:"livestreamId"`
	AuthorName   string    `json:"authorName"`
	Message      string    `json:"message"`
	Type         string    `json:"type"`
	PublishedAt  time.Time `json:"publishedAt"`
}

// RecentMessages returns the newest archived messages, most recent first.
func (a *Archive) RecentMessages(ctx context.Context, limit int) ([]StoredMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := a.DB.QueryContext(ctx,
		`SELECT message_id, livestream_id, author_name, message, message_type, published_at
		 FROM chat_messages ORDER BY published_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StoredMessage
	for rows.Next() {
		var m StoredMessage
		if err := rows.Scan(&m.MessageID, &m.LivestreamID, &m.AuthorName, &m.Message, &m.Type, &m.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
