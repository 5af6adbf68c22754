package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/amicoach/amicoach/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	fields := []string{"uid", "user_id", "title", "is_formal_session"}
	args := []any{create.UID, create.UserID, create.Title, create.IsFormalSession}

	if create.SessionNumber != nil {
		fields = append(fields, "session_number")
		args = append(args, *create.SessionNumber)
	}
	if create.StartedTs != 0 {
		fields = append(fields, "started_ts")
		args = append(args, create.StartedTs)
	}

	stmt := `INSERT INTO conversation (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, started_ts`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.StartedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return create, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.IsFormalSession; v != nil {
		where, args = append(where, "is_formal_session = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, uid, user_id, title, is_formal_session, session_number, started_ts, ended_ts, summary
		FROM conversation
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY started_ts DESC, id DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Conversation, 0)
	for rows.Next() {
		c := &store.Conversation{}
		var sessionNumber, endedTs sql.NullInt64
		var summary sql.NullString
		if err := rows.Scan(
			&c.ID,
			&c.UID,
			&c.UserID,
			&c.Title,
			&c.IsFormalSession,
			&sessionNumber,
			&c.StartedTs,
			&endedTs,
			&summary,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		if sessionNumber.Valid {
			n := int32(sessionNumber.Int64)
			c.SessionNumber = &n
		}
		if endedTs.Valid {
			ts := endedTs.Int64
			c.EndedTs = &ts
		}
		if summary.Valid {
			s := summary.String
			c.Summary = &s
		}
		list = append(list, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	set, args := []string{}, []any{}

	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.EndedTs; v != nil {
		set, args = append(set, "ended_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Summary; v != nil {
		set, args = append(set, "summary = "+placeholder(len(args)+1)), append(args, *v)
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update for conversation %d", update.ID)
	}

	args = append(args, update.ID)
	stmt := `UPDATE conversation SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args))

	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}

	list, err := d.ListConversations(ctx, &store.FindConversation{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, sql.ErrNoRows
	}
	return list[0], nil
}

func (d *DB) DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error {
	// Messages go with the conversation through the foreign key cascade.
	// Memories are intentionally left in place.
	stmt := `DELETE FROM conversation WHERE id = $1`
	if _, err := d.db.ExecContext(ctx, stmt, delete.ID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	fields := []string{"conversation_id", "user_id", "content", "is_from_user"}
	args := []any{create.ConversationID, create.UserID, create.Content, create.IsFromUser}

	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		args = append(args, create.CreatedTs)
	}

	stmt := `INSERT INTO message (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return create, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ConversationID; v != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	order := "ASC"
	if find.OrderByTimeDesc {
		order = "DESC"
	}
	query := `
		SELECT id, conversation_id, user_id, content, is_from_user, created_ts
		FROM message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ` + order + `, id ` + order

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Message, 0)
	for rows.Next() {
		m := &store.Message{}
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.UserID,
			&m.Content,
			&m.IsFromUser,
			&m.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		list = append(list, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return list, nil
}
