// Package teststore provides an in-memory store.Driver for tests.
// It mirrors the ordering and filtering semantics of the SQL drivers so
// service-level tests run without a database.
package teststore

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/amicoach/amicoach/store"
)

// Driver is an in-memory implementation of store.Driver.
type Driver struct {
	mu sync.RWMutex

	users         []*store.User
	conversations []*store.Conversation
	messages      []*store.Message
	memories      []*store.Memory
	homework      []*store.Homework

	nextUserID         int32
	nextConversationID int32
	nextMessageID      int32
	nextMemoryID       int32
	nextHomeworkID     int32
}

// NewDriver creates an empty in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		nextUserID:         1,
		nextConversationID: 1,
		nextMessageID:      1,
		nextMemoryID:       1,
		nextHomeworkID:     1,
	}
}

func (d *Driver) GetDB() *sql.DB { return nil }

func (d *Driver) Close() error { return nil }

func (d *Driver) Migrate(ctx context.Context) error { return nil }

func (d *Driver) CreateUser(ctx context.Context, create *store.User) (*store.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	create.ID = d.nextUserID
	d.nextUserID++
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	stored := *create
	d.users = append(d.users, &stored)
	return create, nil
}

func (d *Driver) ListUsers(ctx context.Context, find *store.FindUser) ([]*store.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := make([]*store.User, 0)
	for _, u := range d.users {
		if find.ID != nil && u.ID != *find.ID {
			continue
		}
		if find.Username != nil && u.Username != *find.Username {
			continue
		}
		if find.Email != nil && u.Email != *find.Email {
			continue
		}
		copied := *u
		list = append(list, &copied)
	}
	return list, nil
}

func (d *Driver) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	create.ID = d.nextConversationID
	d.nextConversationID++
	if create.StartedTs == 0 {
		create.StartedTs = time.Now().Unix()
	}

	stored := *create
	d.conversations = append(d.conversations, &stored)
	return create, nil
}

func (d *Driver) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := make([]*store.Conversation, 0)
	for _, c := range d.conversations {
		if find.ID != nil && c.ID != *find.ID {
			continue
		}
		if find.UID != nil && c.UID != *find.UID {
			continue
		}
		if find.UserID != nil && c.UserID != *find.UserID {
			continue
		}
		if find.IsFormalSession != nil && c.IsFormalSession != *find.IsFormalSession {
			continue
		}
		copied := *c
		list = append(list, &copied)
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].StartedTs != list[j].StartedTs {
			return list[i].StartedTs > list[j].StartedTs
		}
		return list[i].ID > list[j].ID
	})

	if find.Offset != nil && *find.Offset < len(list) {
		list = list[*find.Offset:]
	} else if find.Offset != nil {
		list = nil
	}
	if find.Limit != nil && *find.Limit < len(list) {
		list = list[:*find.Limit]
	}
	return list, nil
}

func (d *Driver) UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, c := range d.conversations {
		if c.ID != update.ID {
			continue
		}
		if update.Title != nil {
			c.Title = *update.Title
		}
		if update.EndedTs != nil {
			ts := *update.EndedTs
			c.EndedTs = &ts
		}
		if update.Summary != nil {
			s := *update.Summary
			c.Summary = &s
		}
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (d *Driver) DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.conversations[:0]
	for _, c := range d.conversations {
		if c.ID != delete.ID {
			kept = append(kept, c)
		}
	}
	d.conversations = kept

	// Messages cascade with the conversation. Memories stay.
	keptMsgs := d.messages[:0]
	for _, m := range d.messages {
		if m.ConversationID != delete.ID {
			keptMsgs = append(keptMsgs, m)
		}
	}
	d.messages = keptMsgs
	return nil
}

func (d *Driver) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	create.ID = d.nextMessageID
	d.nextMessageID++
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	stored := *create
	d.messages = append(d.messages, &stored)
	return create, nil
}

func (d *Driver) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := make([]*store.Message, 0)
	for _, m := range d.messages {
		if find.ID != nil && m.ID != *find.ID {
			continue
		}
		if find.ConversationID != nil && m.ConversationID != *find.ConversationID {
			continue
		}
		copied := *m
		list = append(list, &copied)
	}

	sort.SliceStable(list, func(i, j int) bool {
		if find.OrderByTimeDesc {
			i, j = j, i
		}
		if list[i].CreatedTs != list[j].CreatedTs {
			return list[i].CreatedTs < list[j].CreatedTs
		}
		return list[i].ID < list[j].ID
	})

	if find.Limit != nil && *find.Limit < len(list) {
		list = list[:*find.Limit]
	}
	return list, nil
}

func (d *Driver) CreateMemory(ctx context.Context, create *store.Memory) (*store.Memory, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	create.ID = d.nextMemoryID
	d.nextMemoryID++
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	stored := *create
	d.memories = append(d.memories, &stored)
	return create, nil
}

func (d *Driver) ListMemories(ctx context.Context, find *store.FindMemory) ([]*store.Memory, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := make([]*store.Memory, 0)
	for _, m := range d.memories {
		if find.ID != nil && m.ID != *find.ID {
			continue
		}
		if find.UserID != nil && m.UserID != *find.UserID {
			continue
		}
		if find.ConversationID != nil && m.ConversationID != *find.ConversationID {
			continue
		}
		if find.Category != nil && m.Category != *find.Category {
			continue
		}
		if find.MinImportance != nil && m.Importance < *find.MinImportance {
			continue
		}
		copied := *m
		list = append(list, &copied)
	}

	// Importance descending, id ascending: matches the SQL drivers.
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Importance != list[j].Importance {
			return list[i].Importance > list[j].Importance
		}
		return list[i].ID < list[j].ID
	})

	if find.Limit != nil && *find.Limit < len(list) {
		list = list[:*find.Limit]
	}
	return list, nil
}

func (d *Driver) UpdateMemory(ctx context.Context, update *store.UpdateMemory) (*store.Memory, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, m := range d.memories {
		if m.ID != update.ID {
			continue
		}
		if update.Content != nil {
			m.Content = *update.Content
		}
		if update.Category != nil {
			m.Category = *update.Category
		}
		if update.Importance != nil {
			m.Importance = *update.Importance
		}
		copied := *m
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (d *Driver) DeleteMemory(ctx context.Context, delete *store.DeleteMemory) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.memories[:0]
	for _, m := range d.memories {
		if m.ID != delete.ID {
			kept = append(kept, m)
		}
	}
	d.memories = kept
	return nil
}

func (d *Driver) CreateHomework(ctx context.Context, create *store.Homework) (*store.Homework, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	create.ID = d.nextHomeworkID
	d.nextHomeworkID++
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	stored := *create
	d.homework = append(d.homework, &stored)
	return create, nil
}

func (d *Driver) ListHomework(ctx context.Context, find *store.FindHomework) ([]*store.Homework, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := make([]*store.Homework, 0)
	for _, h := range d.homework {
		if find.ID != nil && h.ID != *find.ID {
			continue
		}
		if find.UserID != nil && h.UserID != *find.UserID {
			continue
		}
		if find.ConversationID != nil && h.ConversationID != *find.ConversationID {
			continue
		}
		if find.IsCompleted != nil && h.IsCompleted != *find.IsCompleted {
			continue
		}
		copied := *h
		list = append(list, &copied)
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedTs != list[j].CreatedTs {
			return list[i].CreatedTs > list[j].CreatedTs
		}
		return list[i].ID > list[j].ID
	})

	if find.Limit != nil && *find.Limit < len(list) {
		list = list[:*find.Limit]
	}
	return list, nil
}

func (d *Driver) UpdateHomework(ctx context.Context, update *store.UpdateHomework) (*store.Homework, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, h := range d.homework {
		if h.ID != update.ID {
			continue
		}
		if update.IsCompleted != nil {
			h.IsCompleted = *update.IsCompleted
		}
		if update.CompletionNotes != nil {
			s := *update.CompletionNotes
			h.CompletionNotes = &s
		}
		if update.CompletionTs != nil {
			ts := *update.CompletionTs
			h.CompletionTs = &ts
		}
		copied := *h
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

// Ensure Driver implements store.Driver.
var _ store.Driver = (*Driver)(nil)
