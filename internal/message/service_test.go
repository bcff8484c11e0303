package message

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
	"github.com/hitoshi/abroadly/internal/security"
)

// --- モック定義 ---

type mockMessageRepo struct {
	repository.MessageRepository

	createFn       func(ctx context.Context, message *model.Message) error
	findByIDFn     func(ctx context.Context, id int64) (*model.MessageDetail, error)
	markReadFn     func(ctx context.Context, id int64) error
	deleteFn       func(ctx context.Context, id int64) error
	markConvReadFn func(ctx context.Context, userID, otherID int64) error
	listConvFn     func(ctx context.Context, userID, otherID int64) ([]model.MessageDetail, error)
}

func (m *mockMessageRepo) Create(ctx context.Context, message *model.Message) error {
	if m.createFn != nil {
		return m.createFn(ctx, message)
	}
	message.ID = 1
	return nil
}

func (m *mockMessageRepo) FindByID(ctx context.Context, id int64) (*model.MessageDetail, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockMessageRepo) MarkRead(ctx context.Context, id int64) error {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, id)
	}
	return nil
}

func (m *mockMessageRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockMessageRepo) MarkConversationRead(ctx context.Context, userID, otherID int64) error {
	if m.markConvReadFn != nil {
		return m.markConvReadFn(ctx, userID, otherID)
	}
	return nil
}

func (m *mockMessageRepo) ListConversation(ctx context.Context, userID, otherID int64) ([]model.MessageDetail, error) {
	if m.listConvFn != nil {
		return m.listConvFn(ctx, userID, otherID)
	}
	return nil, nil
}

type mockUserRepo struct {
	repository.UserRepository

	findByIDFn func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.User{ID: id}, nil
}

func newTestService(repo *mockMessageRepo, userRepo *mockUserRepo) *Service {
	return NewService(repo, userRepo, security.NewContentSanitizer(),
		slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func detailWith(id, senderID, recipientID int64, read bool) *model.MessageDetail {
	return &model.MessageDetail{
		Message: model.Message{ID: id, SenderID: senderID, RecipientID: recipientID, Read: read},
	}
}

// --- Send ---

// 送信時にサニタイズと送信者設定が行われることを検証
func TestService_Send(t *testing.T) {
	var saved *model.Message
	repo := &mockMessageRepo{
		createFn: func(ctx context.Context, message *model.Message) error {
			message.ID = 10
			saved = message
			return nil
		},
		findByIDFn: func(ctx context.Context, id int64) (*model.MessageDetail, error) {
			return detailWith(id, 1, 2, false), nil
		},
	}
	svc := newTestService(repo, &mockUserRepo{})

	detail, err := svc.Send(context.Background(), 1, &model.Message{
		RecipientID: 2,
		Subject:     `Hi<script>alert(1)</script>`,
		Content:     "Was the dorm ok?",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if saved.SenderID != 1 {
		t.Errorf("SenderID = %d, want 1", saved.SenderID)
	}
	if saved.Subject != "Hi" {
		t.Errorf("Subject = %q, want sanitized", saved.Subject)
	}
	if detail.ID != 10 {
		t.Errorf("detail.ID = %d, want 10", detail.ID)
	}
}

// 自分自身への送信がSelfMessageになることを検証
func TestService_Send_SelfMessage(t *testing.T) {
	svc := newTestService(&mockMessageRepo{}, &mockUserRepo{})

	_, err := svc.Send(context.Background(), 1, &model.Message{RecipientID: 1, Content: "hi"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSelfMessage {
		t.Fatalf("error = %v, want SELF_MESSAGE", err)
	}
}

// 存在しない宛先がUserNotFoundになることを検証
func TestService_Send_RecipientNotFound(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, nil
		},
	}
	svc := newTestService(&mockMessageRepo{}, userRepo)

	_, err := svc.Send(context.Background(), 1, &model.Message{RecipientID: 99, Content: "hi"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("error = %v, want USER_NOT_FOUND", err)
	}
}

// 当事者でないメッセージへの返信がMessageNotFoundになることを検証
func TestService_Send_ReplyToForeignThread(t *testing.T) {
	parentID := int64(50)
	repo := &mockMessageRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.MessageDetail, error) {
			// 親メッセージはユーザー3と4の間のもの
			return detailWith(id, 3, 4, true), nil
		},
	}
	svc := newTestService(repo, &mockUserRepo{})

	_, err := svc.Send(context.Background(), 1, &model.Message{
		RecipientID:     2,
		Content:         "hi",
		ParentMessageID: &parentID,
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMessageNotFound {
		t.Fatalf("error = %v, want MESSAGE_NOT_FOUND", err)
	}
}

// --- Get ---

// 受信者の閲覧で既読になることを検証
func TestService_Get_MarksReadForRecipient(t *testing.T) {
	marked := false
	repo := &mockMessageRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.MessageDetail, error) {
			return detailWith(id, 2, 1, false), nil
		},
		markReadFn: func(ctx context.Context, id int64) error {
			marked = true
			return nil
		},
	}
	svc := newTestService(repo, &mockUserRepo{})

	detail, err := svc.Get(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !marked {
		t.Error("message not marked read")
	}
	if !detail.Read {
		t.Error("returned detail should be read")
	}
}

// 送信者の閲覧では既読にならないことを検証
func TestService_Get_SenderViewDoesNotMarkRead(t *testing.T) {
	repo := &mockMessageRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.MessageDetail, error) {
			return detailWith(id, 1, 2, false), nil
		},
		markReadFn: func(ctx context.Context, id int64) error {
			t.Error("MarkRead should not be called for sender view")
			return nil
		},
	}
	svc := newTestService(repo, &mockUserRepo{})

	if _, err := svc.Get(context.Background(), 1, 10); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
}

// 当事者以外にはメッセージの存在を開示しないことを検証
func TestService_Get_HiddenFromOthers(t *testing.T) {
	repo := &mockMessageRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.MessageDetail, error) {
			return detailWith(id, 2, 3, false), nil
		},
	}
	svc := newTestService(repo, &mockUserRepo{})

	_, err := svc.Get(context.Background(), 1, 10)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMessageNotFound {
		t.Fatalf("error = %v, want MESSAGE_NOT_FOUND", err)
	}
}

// --- MarkRead / Delete ---

// 送信者による既読化がForbiddenになることを検証
func TestService_MarkRead_SenderForbidden(t *testing.T) {
	repo := &mockMessageRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.MessageDetail, error) {
			return detailWith(id, 1, 2, false), nil
		},
	}
	svc := newTestService(repo, &mockUserRepo{})

	err := svc.MarkRead(context.Background(), 1, 10)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Fatalf("error = %v, want FORBIDDEN", err)
	}
}

// 当事者はどちらでも削除できることを検証
func TestService_Delete_ByParticipant(t *testing.T) {
	deleted := false
	repo := &mockMessageRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.MessageDetail, error) {
			return detailWith(id, 2, 1, true), nil
		},
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(repo, &mockUserRepo{})

	if err := svc.Delete(context.Background(), 1, 10); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Error("message not deleted")
	}
}

// --- Conversation ---

// 会話取得が相手からの未読を既読化することを検証
func TestService_Conversation(t *testing.T) {
	var markedUser, markedOther int64
	repo := &mockMessageRepo{
		listConvFn: func(ctx context.Context, userID, otherID int64) ([]model.MessageDetail, error) {
			return []model.MessageDetail{
				*detailWith(1, 2, 1, false),
				*detailWith(2, 1, 2, false),
			}, nil
		},
		markConvReadFn: func(ctx context.Context, userID, otherID int64) error {
			markedUser, markedOther = userID, otherID
			return nil
		},
	}
	svc := newTestService(repo, &mockUserRepo{})

	messages, err := svc.Conversation(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("Conversation() error = %v", err)
	}
	if markedUser != 1 || markedOther != 2 {
		t.Errorf("MarkConversationRead(%d, %d)", markedUser, markedOther)
	}
	// 自分宛のメッセージのみ既読としてマークされる
	if !messages[0].Read {
		t.Error("received message should be marked read")
	}
	if messages[1].Read {
		t.Error("own sent message should keep its read state")
	}
}

// 存在しない相手との会話がUserNotFoundになることを検証
func TestService_Conversation_OtherNotFound(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, nil
		},
	}
	svc := newTestService(&mockMessageRepo{}, userRepo)

	_, err := svc.Conversation(context.Background(), 1, 99)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("error = %v, want USER_NOT_FOUND", err)
	}
}
