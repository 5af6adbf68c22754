package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/amicoach/amicoach/store"
)

func (d *DB) CreateHomework(ctx context.Context, create *store.Homework) (*store.Homework, error) {
	fields := []string{"user_id", "conversation_id", "title", "description", "technique"}
	args := []any{create.UserID, create.ConversationID, create.Title, create.Description, create.Technique}

	stmt := `INSERT INTO homework (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create homework: %w", err)
	}

	return create, nil
}

func (d *DB) ListHomework(ctx context.Context, find *store.FindHomework) ([]*store.Homework, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "homework.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "homework.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ConversationID; v != nil {
		where, args = append(where, "homework.conversation_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.IsCompleted; v != nil {
		where, args = append(where, "homework.is_completed = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, user_id, conversation_id, title, description, technique,
			is_completed, completion_notes, completion_ts, created_ts
		FROM homework
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY homework.created_ts DESC, homework.id DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list homework: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Homework, 0)
	for rows.Next() {
		h := &store.Homework{}
		var completionNotes sql.NullString
		var completionTs sql.NullInt64
		if err := rows.Scan(
			&h.ID,
			&h.UserID,
			&h.ConversationID,
			&h.Title,
			&h.Description,
			&h.Technique,
			&h.IsCompleted,
			&completionNotes,
			&completionTs,
			&h.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan homework: %w", err)
		}
		if completionNotes.Valid {
			s := completionNotes.String
			h.CompletionNotes = &s
		}
		if completionTs.Valid {
			ts := completionTs.Int64
			h.CompletionTs = &ts
		}
		list = append(list, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate homework: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateHomework(ctx context.Context, update *store.UpdateHomework) (*store.Homework, error) {
	set, args := []string{}, []any{}

	if v := update.IsCompleted; v != nil {
		set, args = append(set, "is_completed = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.CompletionNotes; v != nil {
		set, args = append(set, "completion_notes = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.CompletionTs; v != nil {
		set, args = append(set, "completion_ts = "+placeholder(len(args)+1)), append(args, *v)
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update for homework %d", update.ID)
	}

	args = append(args, update.ID)
	stmt := `UPDATE homework SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args))

	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to update homework: %w", err)
	}

	list, err := d.ListHomework(ctx, &store.FindHomework{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, sql.ErrNoRows
	}
	return list[0], nil
}
