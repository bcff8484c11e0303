package user

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

type mockUserRepo struct {
	findByIDFn      func(ctx context.Context, id int64) (*model.User, error)
	updateProfileFn func(ctx context.Context, id int64, update *model.ProfileUpdate) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindByIDAndEmail(_ context.Context, _ int64, _ string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindOrCreateByEmail(_ context.Context, email string) (*model.User, error) {
	return &model.User{ID: 1, Email: email}, nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id int64, update *model.ProfileUpdate) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, update)
	}
	return &model.User{ID: id}, nil
}

type mockProgramRepo struct {
	repository.ProgramRepository

	listProgramReviewsByUserFn func(ctx context.Context, userID int64) ([]model.ProgramReview, error)
	deleteProgramReviewFn      func(ctx context.Context, id, userID int64) error
}

func (m *mockProgramRepo) ListProgramReviewsByUser(ctx context.Context, userID int64) ([]model.ProgramReview, error) {
	if m.listProgramReviewsByUserFn != nil {
		return m.listProgramReviewsByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockProgramRepo) ListCourseReviewsByUser(_ context.Context, _ int64) ([]model.CourseReview, error) {
	return nil, nil
}

func (m *mockProgramRepo) ListHousingReviewsByUser(_ context.Context, _ int64) ([]model.HousingReview, error) {
	return nil, nil
}

func (m *mockProgramRepo) DeleteProgramReview(ctx context.Context, id, userID int64) error {
	if m.deleteProgramReviewFn != nil {
		return m.deleteProgramReviewFn(ctx, id, userID)
	}
	return nil
}

type mockPlaceRepo struct {
	repository.PlaceRepository
}

func (m *mockPlaceRepo) ListReviewsByUser(_ context.Context, _ int64) ([]model.PlaceReview, error) {
	return nil, nil
}

type mockTripRepo struct {
	repository.TripRepository
}

func (m *mockTripRepo) ListReviewsByUser(_ context.Context, _ int64) ([]model.TripReview, error) {
	return nil, nil
}

func newTestService(userRepo *mockUserRepo, programRepo *mockProgramRepo) *Service {
	return NewService(
		userRepo,
		programRepo,
		&mockPlaceRepo{},
		&mockTripRepo{},
		security.NewContentSanitizer(),
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
	)
}

// --- UpdateProfile ---

// プロフィール更新時にテキスト項目がサニタイズされることを検証
func TestService_UpdateProfile_SanitizesText(t *testing.T) {
	var gotUpdate *model.ProfileUpdate
	userRepo := &mockUserRepo{
		updateProfileFn: func(ctx context.Context, id int64, update *model.ProfileUpdate) (*model.User, error) {
			gotUpdate = update
			return &model.User{ID: id}, nil
		},
	}
	svc := newTestService(userRepo, &mockProgramRepo{})

	first := `Alice<script>alert(1)</script>`
	inst := "Vanderbilt University"
	_, err := svc.UpdateProfile(context.Background(), 1, &model.ProfileUpdate{
		FirstName:   &first,
		Institution: &inst,
		Majors:      []string{"<b>CS</b>", "Economics"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	if *gotUpdate.FirstName != "Alice" {
		t.Errorf("FirstName = %q, want sanitized", *gotUpdate.FirstName)
	}
	if *gotUpdate.Institution != "Vanderbilt University" {
		t.Errorf("Institution = %q", *gotUpdate.Institution)
	}
	if gotUpdate.Majors[0] != "CS" {
		t.Errorf("Majors[0] = %q, want sanitized", gotUpdate.Majors[0])
	}
	// 未指定フィールドはnilのまま（部分更新）
	if gotUpdate.LastName != nil {
		t.Error("LastName should remain nil")
	}
}

// 存在しないユーザーの更新がUserNotFoundになることを検証
func TestService_UpdateProfile_UserNotFound(t *testing.T) {
	userRepo := &mockUserRepo{
		updateProfileFn: func(ctx context.Context, id int64, update *model.ProfileUpdate) (*model.User, error) {
			return nil, repository.ErrNotFound
		},
	}
	svc := newTestService(userRepo, &mockProgramRepo{})

	_, err := svc.UpdateProfile(context.Background(), 999, &model.ProfileUpdate{})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("error = %v, want USER_NOT_FOUND", err)
	}
}

// --- PublicProfile ---

// 公開プロフィールにメールアドレスと年齢が含まれないことを検証
func TestService_PublicProfile(t *testing.T) {
	first, last := "Alice", "Smith"
	inst := "Vanderbilt University"
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			age := 21
			return &model.User{
				ID: id, Email: "alice@vanderbilt.edu", Age: &age,
				FirstName: &first, LastName: &last, Institution: &inst,
			}, nil
		},
	}
	svc := newTestService(userRepo, &mockProgramRepo{})

	profile, err := svc.PublicProfile(context.Background(), 1)
	if err != nil {
		t.Fatalf("PublicProfile() error = %v", err)
	}
	if profile.ID != 1 || *profile.FirstName != "Alice" || *profile.Institution != inst {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

// 存在しないユーザーの公開プロフィールがUserNotFoundになることを検証
func TestService_PublicProfile_NotFound(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockProgramRepo{})

	_, err := svc.PublicProfile(context.Background(), 42)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("error = %v, want USER_NOT_FOUND", err)
	}
}

// --- Reviews / DeleteReview ---

// レビュー集約が全種別を取得することを検証
func TestService_Reviews(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}
	programRepo := &mockProgramRepo{
		listProgramReviewsByUserFn: func(ctx context.Context, userID int64) ([]model.ProgramReview, error) {
			return []model.ProgramReview{{ID: 1, UserID: userID, Rating: 5}}, nil
		},
	}
	svc := newTestService(userRepo, programRepo)

	got, err := svc.Reviews(context.Background(), 1)
	if err != nil {
		t.Fatalf("Reviews() error = %v", err)
	}
	if len(got.ProgramReviews) != 1 {
		t.Errorf("ProgramReviews = %d, want 1", len(got.ProgramReviews))
	}
}

// レビュー削除の種別ディスパッチと所有権チェックを検証
func TestService_DeleteReview(t *testing.T) {
	var gotID, gotUserID int64
	programRepo := &mockProgramRepo{
		deleteProgramReviewFn: func(ctx context.Context, id, userID int64) error {
			gotID, gotUserID = id, userID
			return nil
		},
	}
	svc := newTestService(&mockUserRepo{}, programRepo)

	if err := svc.DeleteReview(context.Background(), 7, "program", 33); err != nil {
		t.Fatalf("DeleteReview() error = %v", err)
	}
	if gotID != 33 || gotUserID != 7 {
		t.Errorf("delete called with id=%d user=%d", gotID, gotUserID)
	}
}

// 存在しないレビューの削除がReviewNotFoundになることを検証
func TestService_DeleteReview_Missing(t *testing.T) {
	programRepo := &mockProgramRepo{
		deleteProgramReviewFn: func(ctx context.Context, id, userID int64) error {
			return repository.ErrNotFound
		},
	}
	svc := newTestService(&mockUserRepo{}, programRepo)

	err := svc.DeleteReview(context.Background(), 7, "program", 33)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeReviewNotFound {
		t.Fatalf("error = %v, want REVIEW_NOT_FOUND", err)
	}
}

// 他人のレビュー削除がForbiddenになることを検証
func TestService_DeleteReview_NotOwned(t *testing.T) {
	programRepo := &mockProgramRepo{
		deleteProgramReviewFn: func(ctx context.Context, id, userID int64) error {
			return repository.ErrForbidden
		},
	}
	svc := newTestService(&mockUserRepo{}, programRepo)

	err := svc.DeleteReview(context.Background(), 7, "program", 33)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Fatalf("error = %v, want FORBIDDEN", err)
	}
}

// 無効なレビュー種別がInvalidReviewTypeになることを検証
func TestService_DeleteReview_InvalidType(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockProgramRepo{})

	err := svc.DeleteReview(context.Background(), 7, "restaurant", 33)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidReviewType {
		t.Fatalf("error = %v, want INVALID_REVIEW_TYPE", err)
	}
}
