package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/user"
)

// isNoRows reports whether err is pgx's empty-result sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

const conversationColumns = `
	c.id, c.created_at, c.updated_at,
	c.last_message_sender, c.last_message_content, c.last_message_at,
	ua.id, ua.display_name, ua.email, ua.role,
	ub.id, ub.display_name, ub.email, ub.role`

// scanConversation reads one conversation row joined with both participant users.
func scanConversation(row pgx.Row) (*Conversation, error) {
	var (
		c         Conversation
		a, b      user.User
		lmSender  *string
		lmContent *string
		lmAt      *time.Time
	)

	err := row.Scan(
		&c.ID, &c.CreatedAt, &c.UpdatedAt,
		&lmSender, &lmContent, &lmAt,
		&a.ID, &a.DisplayName, &a.Email, &a.Role,
		&b.ID, &b.DisplayName, &b.Email, &b.Role,
	)
	if err != nil {
		return nil, err
	}

	c.Participants = []user.User{a, b}

	if lmSender != nil && lmContent != nil && lmAt != nil {
		c.LastMessage = &LastMessage{
			Sender:    *lmSender,
			Content:   *lmContent,
			Timestamp: *lmAt,
		}
	}

	return &c, nil
}

// FindOrCreateConversation returns the unique conversation for the unordered
// pair (userA, userB), creating it with an empty message list if none exists.
// Concurrent first-contacts for the same pair converge on a single row through
// the unique constraint on the normalized pair.
func (s *Store) FindOrCreateConversation(ctx context.Context, userA, userB string) (*Conversation, error) {
	idA, err := parseID(userA)
	if err != nil {
		return nil, err
	}
	idB, err := parseID(userB)
	if err != nil {
		return nil, err
	}

	first, second := NormalizePair(idA, idB)

	_, err = s.pool.Exec(ctx,
		`INSERT INTO conversations (id, participant_a, participant_b)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (participant_a, participant_b) DO NOTHING`,
		uuid.New().String(), first, second,
	)
	if err != nil {
		return nil, err
	}

	conv, err := scanConversation(s.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+`
		 FROM conversations c
		 JOIN users ua ON ua.id = c.participant_a
		 JOIN users ub ON ub.id = c.participant_b
		 WHERE c.participant_a = $1 AND c.participant_b = $2`,
		first, second,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return conv, nil
}

// GetConversation fetches a conversation by id with both participants resolved.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	convID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	conv, err := scanConversation(s.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+`
		 FROM conversations c
		 JOIN users ua ON ua.id = c.participant_a
		 JOIN users ub ON ub.id = c.participant_b
		 WHERE c.id = $1`,
		convID,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return conv, nil
}

// ListConversations returns every conversation the user participates in,
// most recently active first (conversations without messages sort last).
func (s *Store) ListConversations(ctx context.Context, userID string) ([]*Conversation, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+conversationColumns+`
		 FROM conversations c
		 JOIN users ua ON ua.id = c.participant_a
		 JOIN users ub ON ub.id = c.participant_b
		 WHERE c.participant_a = $1 OR c.participant_b = $1
		 ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]*Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	return conversations, rows.Err()
}

// AppendConversationMessage appends a message to the conversation and updates
// the denormalized last-message summary in the same transaction. The single
// INSERT is the atomic append; ordering comes from the sequence column.
// Returns the stored message with sender metadata resolved.
func (s *Store) AppendConversationMessage(ctx context.Context, conversationID, senderID, content string) (*Message, error) {
	convID, err := parseID(conversationID)
	if err != nil {
		return nil, err
	}
	sender, err := parseID(senderID)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	msg := &Message{
		ID:      uuid.New().String(),
		Content: content,
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		msg.ID, convID, sender, content,
	).Scan(&msg.Timestamp)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE conversations
		 SET last_message_sender = $2, last_message_content = $3,
		     last_message_at = $4, updated_at = now()
		 WHERE id = $1`,
		convID, sender, content, msg.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	err = tx.QueryRow(ctx,
		`SELECT id, display_name, email, role FROM users WHERE id = $1`,
		sender,
	).Scan(&msg.Sender.ID, &msg.Sender.DisplayName, &msg.Sender.Email, &msg.Sender.Role)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return msg, nil
}

// ListConversationMessages returns the conversation's messages in append order.
func (s *Store) ListConversationMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	convID, err := parseID(conversationID)
	if err != nil {
		return nil, err
	}

	return s.listMessages(ctx,
		`SELECT m.id, m.content, m.created_at, u.id, u.display_name, u.email, u.role
		 FROM messages m
		 JOIN users u ON u.id = m.sender_id
		 WHERE m.conversation_id = $1
		 ORDER BY m.seq ASC`,
		convID,
	)
}

// listMessages runs a message query and scans the rows with sender users joined.
func (s *Store) listMessages(ctx context.Context, query string, args ...any) ([]*Message, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]*Message, 0)
	for rows.Next() {
		m := &Message{}
		err := rows.Scan(
			&m.ID, &m.Content, &m.Timestamp,
			&m.Sender.ID, &m.Sender.DisplayName, &m.Sender.Email, &m.Sender.Role,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
