package bookmark

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
)

// --- モック定義 ---

type mockBookmarkRepo struct {
	repository.BookmarkRepository

	createProgramFn func(ctx context.Context, userID, programID int64) error
	deleteProgramFn func(ctx context.Context, userID, programID int64) error
	listProgramsFn  func(ctx context.Context, userID int64) ([]model.BookmarkedProgram, error)
}

func (m *mockBookmarkRepo) CreateProgramBookmark(ctx context.Context, userID, programID int64) error {
	if m.createProgramFn != nil {
		return m.createProgramFn(ctx, userID, programID)
	}
	return nil
}

func (m *mockBookmarkRepo) DeleteProgramBookmark(ctx context.Context, userID, programID int64) error {
	if m.deleteProgramFn != nil {
		return m.deleteProgramFn(ctx, userID, programID)
	}
	return nil
}

func (m *mockBookmarkRepo) ListProgramBookmarks(ctx context.Context, userID int64) ([]model.BookmarkedProgram, error) {
	if m.listProgramsFn != nil {
		return m.listProgramsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockBookmarkRepo) ListPlaceBookmarks(_ context.Context, _ int64) ([]model.BookmarkedPlace, error) {
	return nil, nil
}

func (m *mockBookmarkRepo) ListTripBookmarks(_ context.Context, _ int64) ([]model.BookmarkedTrip, error) {
	return nil, nil
}

type mockProgramRepo struct {
	repository.ProgramRepository

	findByIDFn func(ctx context.Context, id int64) (*model.ProgramWithRating, error)
}

func (m *mockProgramRepo) FindByID(ctx context.Context, id int64) (*model.ProgramWithRating, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.ProgramWithRating{Program: model.Program{ID: id}}, nil
}

type mockPlaceRepo struct {
	repository.PlaceRepository
}

type mockTripRepo struct {
	repository.TripRepository
}

func newTestService(repo *mockBookmarkRepo, programRepo *mockProgramRepo) *Service {
	return NewService(repo, programRepo, &mockPlaceRepo{}, &mockTripRepo{},
		slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

// ブックマーク追加の正常系を検証
func TestService_Add(t *testing.T) {
	var gotUserID, gotProgramID int64
	repo := &mockBookmarkRepo{
		createProgramFn: func(ctx context.Context, userID, programID int64) error {
			gotUserID, gotProgramID = userID, programID
			return nil
		},
	}
	svc := newTestService(repo, &mockProgramRepo{})

	if err := svc.Add(context.Background(), 7, model.BookmarkProgram, 3); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if gotUserID != 7 || gotProgramID != 3 {
		t.Errorf("bookmark created with user=%d program=%d", gotUserID, gotProgramID)
	}
}

// 重複ブックマークがAlreadyBookmarkedになることを検証
func TestService_Add_Duplicate(t *testing.T) {
	repo := &mockBookmarkRepo{
		createProgramFn: func(ctx context.Context, userID, programID int64) error {
			return repository.ErrDuplicate
		},
	}
	svc := newTestService(repo, &mockProgramRepo{})

	err := svc.Add(context.Background(), 7, model.BookmarkProgram, 3)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAlreadyBookmarked {
		t.Fatalf("error = %v, want ALREADY_BOOKMARKED", err)
	}
}

// 存在しないアイテムのブックマークがNotFoundになることを検証
func TestService_Add_ItemNotFound(t *testing.T) {
	programRepo := &mockProgramRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.ProgramWithRating, error) {
			return nil, nil
		},
	}
	svc := newTestService(&mockBookmarkRepo{}, programRepo)

	err := svc.Add(context.Background(), 7, model.BookmarkProgram, 99)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProgramNotFound {
		t.Fatalf("error = %v, want PROGRAM_NOT_FOUND", err)
	}
}

// 未登録ブックマークの解除がBookmarkNotFoundになることを検証
func TestService_Remove_NotFound(t *testing.T) {
	repo := &mockBookmarkRepo{
		deleteProgramFn: func(ctx context.Context, userID, programID int64) error {
			return repository.ErrNotFound
		},
	}
	svc := newTestService(repo, &mockProgramRepo{})

	err := svc.Remove(context.Background(), 7, model.BookmarkProgram, 3)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBookmarkNotFound {
		t.Fatalf("error = %v, want BOOKMARK_NOT_FOUND", err)
	}
}

// 全種別まとめ取得を検証
func TestService_ListAll(t *testing.T) {
	repo := &mockBookmarkRepo{
		listProgramsFn: func(ctx context.Context, userID int64) ([]model.BookmarkedProgram, error) {
			return []model.BookmarkedProgram{{Program: model.Program{ID: 1}}}, nil
		},
	}
	svc := newTestService(repo, &mockProgramRepo{})

	got, err := svc.ListAll(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(got.Programs) != 1 {
		t.Errorf("Programs = %d, want 1", len(got.Programs))
	}
	if got.Places != nil || got.Trips != nil {
		t.Error("empty kinds should be empty")
	}
}
