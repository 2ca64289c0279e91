package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/db"
	"github.com/zechsoft/global-backfinal-sub000/internal/app/user"
)

// CreateRoom creates a named room with the creator as its first participant.
// Returns ErrDuplicateName if the name is already taken.
func (s *Store) CreateRoom(ctx context.Context, name, description, creatorID string) (*Room, error) {
	creator, err := parseID(creatorID)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	room := &Room{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedBy:   creator,
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO chat_rooms (id, name, description, created_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		room.ID, name, description, creator,
	).Scan(&room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO room_participants (room_id, user_id) VALUES ($1, $2)`,
		room.ID, creator,
	)
	if err != nil {
		return nil, err
	}

	var creatorUser user.User
	err = tx.QueryRow(ctx,
		`SELECT id, display_name, email, role FROM users WHERE id = $1`,
		creator,
	).Scan(&creatorUser.ID, &creatorUser.DisplayName, &creatorUser.Email, &creatorUser.Role)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	room.Participants = []user.User{creatorUser}
	return room, nil
}

// GetRoom fetches a room by id with its full participant roster in join order.
func (s *Store) GetRoom(ctx context.Context, id string) (*Room, error) {
	roomID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	room := &Room{ID: roomID}
	err = s.pool.QueryRow(ctx,
		`SELECT name, description, created_by, created_at, updated_at
		 FROM chat_rooms WHERE id = $1`,
		roomID,
	).Scan(&room.Name, &room.Description, &room.CreatedBy, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.display_name, u.email, u.role
		 FROM room_participants rp
		 JOIN users u ON u.id = rp.user_id
		 WHERE rp.room_id = $1
		 ORDER BY rp.joined_at ASC`,
		roomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	room.Participants = make([]user.User, 0)
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email, &u.Role); err != nil {
			return nil, err
		}
		room.Participants = append(room.Participants, u)
	}

	return room, rows.Err()
}

// ListRooms returns all rooms with their participant counts, newest first.
func (s *Store) ListRooms(ctx context.Context) ([]*RoomSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.id, r.name, r.description, r.created_by, r.created_at,
		        (SELECT count(*) FROM room_participants rp WHERE rp.room_id = r.id)
		 FROM chat_rooms r
		 ORDER BY r.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]*RoomSummary, 0)
	for rows.Next() {
		r := &RoomSummary{}
		err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedBy, &r.CreatedAt, &r.ParticipantCount)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}

	return rooms, rows.Err()
}

// JoinRoom adds the user to the room's participant set.
// Returns ErrNotFound if the room does not exist and ErrAlreadyMember if the
// user already participates.
func (s *Store) JoinRoom(ctx context.Context, roomID, userID string) error {
	room, err := parseID(roomID)
	if err != nil {
		return err
	}
	uid, err := parseID(userID)
	if err != nil {
		return err
	}

	if err := s.roomExists(ctx, room); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO room_participants (room_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (room_id, user_id) DO NOTHING`,
		room, uid,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyMember
	}

	return nil
}

// LeaveRoom removes the user from the room's participant set.
// Returns ErrNotFound if the room does not exist and ErrNotMember if the user
// was not a participant.
func (s *Store) LeaveRoom(ctx context.Context, roomID, userID string) error {
	room, err := parseID(roomID)
	if err != nil {
		return err
	}
	uid, err := parseID(userID)
	if err != nil {
		return err
	}

	if err := s.roomExists(ctx, room); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM room_participants WHERE room_id = $1 AND user_id = $2`,
		room, uid,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotMember
	}

	return nil
}

// roomExists checks room existence, returning ErrNotFound when absent.
func (s *Store) roomExists(ctx context.Context, roomID string) error {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM chat_rooms WHERE id = $1`, roomID).Scan(&one)
	if err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// AppendRoomMessage appends a message to the room and bumps its updated_at.
// Returns the stored message with sender metadata resolved.
func (s *Store) AppendRoomMessage(ctx context.Context, roomID, senderID, content string) (*Message, error) {
	room, err := parseID(roomID)
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
		`INSERT INTO messages (id, room_id, sender_id, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		msg.ID, room, sender, content,
	).Scan(&msg.Timestamp)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE chat_rooms SET updated_at = now() WHERE id = $1`, room,
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

// ListRoomMessages returns the room's messages in append order.
func (s *Store) ListRoomMessages(ctx context.Context, roomID string) ([]*Message, error) {
	room, err := parseID(roomID)
	if err != nil {
		return nil, err
	}

	return s.listMessages(ctx,
		`SELECT m.id, m.content, m.created_at, u.id, u.display_name, u.email, u.role
		 FROM messages m
		 JOIN users u ON u.id = m.sender_id
		 WHERE m.room_id = $1
		 ORDER BY m.seq ASC`,
		room,
	)
}
