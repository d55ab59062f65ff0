package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mindhaven/internal/models"
)

// CreateSession starts a new, empty session for the owner.
func (s *Service) CreateSession(ctx context.Context, ownerID int64) (*models.Session, error) {
	if ownerID <= 0 {
		return nil, errors.New("owner_id is required")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (owner_id, created_at) VALUES (?, ?)`,
		ownerID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	return &models.Session{ID: id, OwnerID: ownerID, CreatedAt: now}, nil
}

// ListSessions returns the owner's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, ownerID int64) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, created_at FROM sessions WHERE owner_id = ? ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		var sess models.Session
		if err := rows.Scan(&sess.ID, &sess.OwnerID, &sess.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ListMessages returns the session's messages, oldest first. It returns
// sql.ErrNoRows when the session does not belong to the owner.
func (s *Service) ListMessages(ctx context.Context, ownerID, sessionID int64) ([]*models.Message, error) {
	if err := s.ensureSession(ctx, ownerID, sessionID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, sender, text, emotional_analysis, created_at
		 FROM messages WHERE session_id = ? ORDER BY created_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		m := new(models.Message)
		var analysis sql.NullString
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Sender, &m.Text, &analysis, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if analysis.Valid {
			m.EmotionalAnalysis = &analysis.String
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// AppendMessage stores one message in an existing session of the owner.
// analysis may be nil.
func (s *Service) AppendMessage(ctx context.Context, ownerID, sessionID int64, sender models.Sender, text string, analysis *string) (*models.Message, error) {
	if !sender.Valid() {
		return nil, fmt.Errorf("invalid sender %q", sender)
	}
	if err := s.ensureSession(ctx, ownerID, sessionID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var analysisVal sql.NullString
	if analysis != nil {
		analysisVal = sql.NullString{String: *analysis, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, sender, text, emotional_analysis, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, sender, text, analysisVal, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	msg := &models.Message{
		ID:        id,
		SessionID: sessionID,
		Sender:    sender,
		Text:      text,
		CreatedAt: now,
	}
	if analysis != nil {
		val := *analysis
		msg.EmotionalAnalysis = &val
	}
	return msg, nil
}

// DeleteSession removes a session and all of its messages.
func (s *Service) DeleteSession(ctx context.Context, ownerID, sessionID int64) (err error) {
	if sessionID <= 0 {
		return errors.New("invalid session id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM messages WHERE session_id IN (SELECT id FROM sessions WHERE id = ? AND owner_id = ?)`,
		sessionID, ownerID,
	); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ? AND owner_id = ?`, sessionID, ownerID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session rows affected: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete session: %w", err)
	}
	return nil
}

func (s *Service) ensureSession(ctx context.Context, ownerID, sessionID int64) error {
	if ownerID <= 0 || sessionID <= 0 {
		return sql.ErrNoRows
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sessions WHERE id = ? AND owner_id = ?)`,
		sessionID, ownerID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("verify session: %w", err)
	}
	if !exists {
		return sql.ErrNoRows
	}
	return nil
}
