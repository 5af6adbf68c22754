package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/amicoach/amicoach/store"
)

func (d *DB) CreateMemory(ctx context.Context, create *store.Memory) (*store.Memory, error) {
	fields := []string{"user_id", "conversation_id", "content", "category", "importance"}
	args := []any{create.UserID, create.ConversationID, create.Content, create.Category, create.Importance}

	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		args = append(args, create.CreatedTs)
	}

	stmt := `INSERT INTO memory (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create memory: %w", err)
	}

	return create, nil
}

func (d *DB) ListMemories(ctx context.Context, find *store.FindMemory) ([]*store.Memory, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "memory.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "memory.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ConversationID; v != nil {
		where, args = append(where, "memory.conversation_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Category; v != nil {
		where, args = append(where, "memory.category = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.MinImportance; v != nil {
		where, args = append(where, "memory.importance >= "+placeholder(len(args)+1)), append(args, *v)
	}

	// Equal importance resolves to insertion order via the id tie-break.
	query := `
		SELECT id, user_id, conversation_id, content, category, importance, created_ts
		FROM memory
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY memory.importance DESC, memory.id ASC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Memory, 0)
	for rows.Next() {
		m := &store.Memory{}
		if err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.ConversationID,
			&m.Content,
			&m.Category,
			&m.Importance,
			&m.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		list = append(list, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memories: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateMemory(ctx context.Context, update *store.UpdateMemory) (*store.Memory, error) {
	set, args := []string{}, []any{}

	if v := update.Content; v != nil {
		set, args = append(set, "content = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Category; v != nil {
		set, args = append(set, "category = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Importance; v != nil {
		set, args = append(set, "importance = "+placeholder(len(args)+1)), append(args, *v)
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update for memory %d", update.ID)
	}

	args = append(args, update.ID)
	stmt := `UPDATE memory SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, user_id, conversation_id, content, category, importance, created_ts`

	m := &store.Memory{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&m.ID,
		&m.UserID,
		&m.ConversationID,
		&m.Content,
		&m.Category,
		&m.Importance,
		&m.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to update memory: %w", err)
	}

	return m, nil
}

func (d *DB) DeleteMemory(ctx context.Context, delete *store.DeleteMemory) error {
	stmt := `DELETE FROM memory WHERE id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, delete.ID); err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	return nil
}
