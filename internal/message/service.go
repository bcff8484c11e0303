// Package message はユーザー間ダイレクトメッセージのドメインロジックを提供する。
package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
	"github.com/hitoshi/abroadly/internal/security"
)

// Service はメッセージのサービス層。
type Service struct {
	repo      repository.MessageRepository
	userRepo  repository.UserRepository
	sanitizer security.ContentSanitizerService
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.MessageRepository,
	userRepo repository.UserRepository,
	sanitizer security.ContentSanitizerService,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		userRepo:  userRepo,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// Send はメッセージを送信する。
// 宛先ユーザーの存在確認、自己送信の禁止、返信時の親メッセージの
// 当事者チェックを行い、件名と本文はサニタイズして保存する。
func (s *Service) Send(ctx context.Context, senderID int64, message *model.Message) (*model.MessageDetail, error) {
	if message.RecipientID == senderID {
		return nil, model.NewSelfMessageError()
	}

	recipient, err := s.userRepo.FindByID(ctx, message.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("宛先ユーザーの取得に失敗しました: %w", err)
	}
	if recipient == nil {
		return nil, model.NewUserNotFoundError()
	}

	if message.ParentMessageID != nil {
		parent, err := s.repo.FindByID(ctx, *message.ParentMessageID)
		if err != nil {
			return nil, fmt.Errorf("親メッセージの取得に失敗しました: %w", err)
		}
		// 返信できるのは自分が当事者であるメッセージのみ
		if parent == nil || (parent.SenderID != senderID && parent.RecipientID != senderID) {
			return nil, model.NewMessageNotFoundError()
		}
	}

	message.SenderID = senderID
	message.Subject = s.sanitizer.SanitizeText(message.Subject)
	message.Content = s.sanitizer.SanitizeText(message.Content)
	message.Read = false

	if err := s.repo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.logger.Info("メッセージを送信しました",
		slog.Int64("message_id", message.ID),
		slog.Int64("sender_id", senderID),
		slog.Int64("recipient_id", message.RecipientID),
	)

	detail, err := s.repo.FindByID(ctx, message.ID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, model.NewMessageNotFoundError()
	}
	return detail, nil
}

// Inbox は受信メッセージ一覧を返す。
func (s *Service) Inbox(ctx context.Context, userID int64, unreadOnly bool) ([]model.MessageDetail, error) {
	return s.repo.ListInbox(ctx, userID, unreadOnly)
}

// Sent は送信メッセージ一覧を返す。
func (s *Service) Sent(ctx context.Context, userID int64) ([]model.MessageDetail, error) {
	return s.repo.ListSent(ctx, userID)
}

// Get は指定メッセージを返す。当事者以外には存在を開示しない。
// 受信者による閲覧時は既読にする。
func (s *Service) Get(ctx context.Context, userID, messageID int64) (*model.MessageDetail, error) {
	detail, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if detail == nil || (detail.SenderID != userID && detail.RecipientID != userID) {
		return nil, model.NewMessageNotFoundError()
	}

	if detail.RecipientID == userID && !detail.Read {
		if err := s.repo.MarkRead(ctx, messageID); err != nil {
			return nil, err
		}
		detail.Read = true
	}
	return detail, nil
}

// MarkRead は受信メッセージを既読にする。受信者のみが実行できる。
func (s *Service) MarkRead(ctx context.Context, userID, messageID int64) error {
	detail, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if detail == nil || (detail.SenderID != userID && detail.RecipientID != userID) {
		return model.NewMessageNotFoundError()
	}
	if detail.RecipientID != userID {
		return model.NewForbiddenError()
	}
	return s.repo.MarkRead(ctx, messageID)
}

// Delete は指定メッセージを削除する。当事者のみが実行できる。
func (s *Service) Delete(ctx context.Context, userID, messageID int64) error {
	detail, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if detail == nil || (detail.SenderID != userID && detail.RecipientID != userID) {
		return model.NewMessageNotFoundError()
	}

	if err := s.repo.Delete(ctx, messageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewMessageNotFoundError()
		}
		return err
	}

	s.logger.Info("メッセージを削除しました",
		slog.Int64("message_id", messageID),
		slog.Int64("user_id", userID),
	)
	return nil
}

// Conversation は相手ユーザーとの全メッセージを時系列で返す。
// 取得時に相手から受信した未読メッセージを既読にする。
func (s *Service) Conversation(ctx context.Context, userID, otherID int64) ([]model.MessageDetail, error) {
	other, err := s.userRepo.FindByID(ctx, otherID)
	if err != nil {
		return nil, fmt.Errorf("相手ユーザーの取得に失敗しました: %w", err)
	}
	if other == nil {
		return nil, model.NewUserNotFoundError()
	}

	messages, err := s.repo.ListConversation(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkConversationRead(ctx, userID, otherID); err != nil {
		return nil, err
	}
	for i := range messages {
		if messages[i].RecipientID == userID {
			messages[i].Read = true
		}
	}
	return messages, nil
}

// UnreadCount は未読受信メッセージ数を返す。
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
