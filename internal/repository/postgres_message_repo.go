package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/abroadly/internal/model"
)

// messageDetailColumns はメッセージと表示名の取得に使用するカラム列。
// usersをsu(送信者)/ru(受信者)、関連アイテムをp/pl/tでJOINすることを前提とする。
const messageDetailColumns = `m.id, m.sender_id, m.recipient_id, m.subject, m.content,
	m.read, m.created_at,
	m.related_program_id, m.related_place_id, m.related_trip_id, m.parent_message_id,
	NULLIF(concat_ws(' ', su.first_name, su.last_name), ''), su.email,
	NULLIF(concat_ws(' ', ru.first_name, ru.last_name), ''), ru.email,
	p.program_name, pl.name, t.destination`

// messageDetailJoins はmessageDetailColumnsに対応するJOIN句。
const messageDetailJoins = `
	 FROM messages m
	 JOIN users su ON su.id = m.sender_id
	 JOIN users ru ON ru.id = m.recipient_id
	 LEFT JOIN programs p ON p.id = m.related_program_id
	 LEFT JOIN places pl ON pl.id = m.related_place_id
	 LEFT JOIN trips t ON t.id = m.related_trip_id`

// PostgresMessageRepo はPostgreSQLを使用したメッセージリポジトリ。
type PostgresMessageRepo struct {
	db *sql.DB
}

// NewPostgresMessageRepo はPostgresMessageRepoを生成する。
func NewPostgresMessageRepo(db *sql.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

func scanMessageDetail(row rowScanner) (*model.MessageDetail, error) {
	m := &model.MessageDetail{}
	err := row.Scan(
		&m.ID, &m.SenderID, &m.RecipientID, &m.Subject, &m.Content,
		&m.Read, &m.CreatedAt,
		&m.RelatedProgramID, &m.RelatedPlaceID, &m.RelatedTripID, &m.ParentMessageID,
		&m.SenderName, &m.SenderEmail,
		&m.RecipientName, &m.RecipientEmail,
		&m.RelatedProgramName, &m.RelatedPlaceName, &m.RelatedTripName,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Create はメッセージを作成し、IDと作成日時を設定する。
func (r *PostgresMessageRepo) Create(ctx context.Context, message *model.Message) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO messages (sender_id, recipient_id, subject, content,
			related_program_id, related_place_id, related_trip_id, parent_message_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		message.SenderID, message.RecipientID, message.Subject, message.Content,
		message.RelatedProgramID, message.RelatedPlaceID, message.RelatedTripID,
		message.ParentMessageID,
	).Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		return fmt.Errorf("メッセージの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのメッセージを表示名付きで取得する。見つからない場合はnilを返す。
func (r *PostgresMessageRepo) FindByID(ctx context.Context, id int64) (*model.MessageDetail, error) {
	message, err := scanMessageDetail(r.db.QueryRowContext(ctx,
		`SELECT `+messageDetailColumns+messageDetailJoins+`
		 WHERE m.id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find message by ID: %w", err)
	}
	return message, nil
}

// ListInbox は受信メッセージ一覧を作成日時降順に返す。
func (r *PostgresMessageRepo) ListInbox(ctx context.Context, userID int64, unreadOnly bool) ([]model.MessageDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageDetailColumns+messageDetailJoins+`
		 WHERE m.recipient_id = $1 AND ($2 = FALSE OR m.read = FALSE)
		 ORDER BY m.created_at DESC`,
		userID, unreadOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("受信メッセージ一覧の取得に失敗しました: %w", err)
	}
	return collectMessages(rows)
}

// ListSent は送信メッセージ一覧を作成日時降順に返す。
func (r *PostgresMessageRepo) ListSent(ctx context.Context, userID int64) ([]model.MessageDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageDetailColumns+messageDetailJoins+`
		 WHERE m.sender_id = $1
		 ORDER BY m.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("送信メッセージ一覧の取得に失敗しました: %w", err)
	}
	return collectMessages(rows)
}

// ListConversation は2ユーザー間の全メッセージを作成日時昇順に返す。
func (r *PostgresMessageRepo) ListConversation(ctx context.Context, userID, otherID int64) ([]model.MessageDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageDetailColumns+messageDetailJoins+`
		 WHERE (m.sender_id = $1 AND m.recipient_id = $2)
		    OR (m.sender_id = $2 AND m.recipient_id = $1)
		 ORDER BY m.created_at ASC`,
		userID, otherID,
	)
	if err != nil {
		return nil, fmt.Errorf("会話の取得に失敗しました: %w", err)
	}
	return collectMessages(rows)
}

func collectMessages(rows *sql.Rows) ([]model.MessageDetail, error) {
	defer rows.Close()

	var messages []model.MessageDetail
	for rows.Next() {
		m, err := scanMessageDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// CountUnread は未読受信メッセージ数を返す。
func (r *PostgresMessageRepo) CountUnread(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND read = FALSE`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("未読メッセージ数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// MarkRead は指定メッセージを既読にする。
func (r *PostgresMessageRepo) MarkRead(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read = TRUE WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("メッセージの既読化に失敗しました: %w", err)
	}
	return nil
}

// MarkConversationRead は指定ユーザーが相手から受信した未読メッセージを全て既読にする。
func (r *PostgresMessageRepo) MarkConversationRead(ctx context.Context, userID, otherID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read = TRUE
		 WHERE recipient_id = $1 AND sender_id = $2 AND read = FALSE`,
		userID, otherID,
	)
	if err != nil {
		return fmt.Errorf("会話の既読化に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのメッセージを削除する。対象が存在しない場合はErrNotFound。
// 返信の親参照は切り離してから削除する。
func (r *PostgresMessageRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE messages SET parent_message_id = NULL WHERE parent_message_id = $1`,
		id,
	); err != nil {
		return fmt.Errorf("返信の親参照の切り離しに失敗しました: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("メッセージの削除に失敗しました: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ MessageRepository = (*PostgresMessageRepo)(nil)
