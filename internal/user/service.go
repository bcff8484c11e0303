// Package user はプロフィール管理と自分の投稿の参照ロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
	"github.com/hitoshi/abroadly/internal/security"
)

// ReviewCollection はユーザーが投稿した全種別のレビューをまとめたもの。
type ReviewCollection struct {
	ProgramReviews []model.ProgramReview
	CourseReviews  []model.CourseReview
	HousingReviews []model.HousingReview
	PlaceReviews   []model.PlaceReview
	TripReviews    []model.TripReview
}

// Service はプロフィールとユーザー投稿のサービス層。
type Service struct {
	userRepo    repository.UserRepository
	programRepo repository.ProgramRepository
	placeRepo   repository.PlaceRepository
	tripRepo    repository.TripRepository
	sanitizer   security.ContentSanitizerService
	logger      *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	programRepo repository.ProgramRepository,
	placeRepo repository.PlaceRepository,
	tripRepo repository.TripRepository,
	sanitizer security.ContentSanitizerService,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepo:    userRepo,
		programRepo: programRepo,
		placeRepo:   placeRepo,
		tripRepo:    tripRepo,
		sanitizer:   sanitizer,
		logger:      logger,
	}
}

// UpdateProfile はプロフィールを部分更新する。
// 自由入力のテキスト項目はサニタイズしてから保存する。
func (s *Service) UpdateProfile(ctx context.Context, userID int64, update *model.ProfileUpdate) (*model.User, error) {
	s.sanitizeUpdate(update)

	user, err := s.userRepo.UpdateProfile(ctx, userID, update)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewUserNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}

	s.logger.Info("プロフィールを更新しました",
		slog.Int64("user_id", userID),
	)
	return user, nil
}

// PublicProfile は他ユーザーに公開可能なプロフィールを返す。
// メールアドレスと年齢は含まない。
func (s *Service) PublicProfile(ctx context.Context, userID int64) (*model.Reviewer, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return &model.Reviewer{
		ID:                user.ID,
		FirstName:         user.FirstName,
		LastName:          user.LastName,
		Institution:       user.Institution,
		StudyAbroadStatus: user.StudyAbroadStatus,
		ProgramName:       user.ProgramName,
		ProgramCity:       user.ProgramCity,
		ProgramCountry:    user.ProgramCountry,
		ProgramTerm:       user.ProgramTerm,
	}, nil
}

// Reviews は指定ユーザーが投稿した全種別のレビューを返す。
func (s *Service) Reviews(ctx context.Context, userID int64) (*ReviewCollection, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	collection := &ReviewCollection{}
	if collection.ProgramReviews, err = s.programRepo.ListProgramReviewsByUser(ctx, userID); err != nil {
		return nil, err
	}
	if collection.CourseReviews, err = s.programRepo.ListCourseReviewsByUser(ctx, userID); err != nil {
		return nil, err
	}
	if collection.HousingReviews, err = s.programRepo.ListHousingReviewsByUser(ctx, userID); err != nil {
		return nil, err
	}
	if collection.PlaceReviews, err = s.placeRepo.ListReviewsByUser(ctx, userID); err != nil {
		return nil, err
	}
	if collection.TripReviews, err = s.tripRepo.ListReviewsByUser(ctx, userID); err != nil {
		return nil, err
	}
	return collection, nil
}

// DeleteReview は本人が投稿したレビューを種別指定で削除する。
// 存在しないレビューはReviewNotFound、他人のレビューはForbiddenになる。
func (s *Service) DeleteReview(ctx context.Context, userID int64, reviewType string, reviewID int64) error {
	var err error
	switch reviewType {
	case "program":
		err = s.programRepo.DeleteProgramReview(ctx, reviewID, userID)
	case "course":
		err = s.programRepo.DeleteCourseReview(ctx, reviewID, userID)
	case "housing":
		err = s.programRepo.DeleteHousingReview(ctx, reviewID, userID)
	case "place":
		err = s.placeRepo.DeleteReview(ctx, reviewID, userID)
	case "trip":
		err = s.tripRepo.DeleteReview(ctx, reviewID, userID)
	default:
		return model.NewInvalidReviewTypeError(reviewType)
	}

	if errors.Is(err, repository.ErrNotFound) {
		return model.NewReviewNotFoundError()
	}
	if errors.Is(err, repository.ErrForbidden) {
		return model.NewForbiddenError()
	}
	if err != nil {
		return fmt.Errorf("レビューの削除に失敗しました: %w", err)
	}

	s.logger.Info("レビューを削除しました",
		slog.Int64("user_id", userID),
		slog.String("review_type", reviewType),
		slog.Int64("review_id", reviewID),
	)
	return nil
}

// ListPrograms は指定ユーザーが投稿したプログラム一覧を返す。
func (s *Service) ListPrograms(ctx context.Context, userID int64) ([]model.ProgramWithRating, error) {
	return s.programRepo.ListByUser(ctx, userID)
}

// ListPlaces は指定ユーザーが投稿したスポット一覧を返す。
func (s *Service) ListPlaces(ctx context.Context, userID int64) ([]model.PlaceWithRating, error) {
	return s.placeRepo.ListByUser(ctx, userID)
}

// ListTrips は指定ユーザーが投稿した旅行一覧を返す。
func (s *Service) ListTrips(ctx context.Context, userID int64) ([]model.TripWithRating, error) {
	return s.tripRepo.ListByUser(ctx, userID)
}

// sanitizeUpdate は自由入力テキスト項目をサニタイズする。
func (s *Service) sanitizeUpdate(update *model.ProfileUpdate) {
	clean := func(v *string) *string {
		if v == nil {
			return nil
		}
		cleaned := s.sanitizer.SanitizeText(*v)
		return &cleaned
	}
	update.FirstName = clean(update.FirstName)
	update.LastName = clean(update.LastName)
	update.Institution = clean(update.Institution)
	update.ProgramName = clean(update.ProgramName)
	update.ProgramCity = clean(update.ProgramCity)
	update.ProgramCountry = clean(update.ProgramCountry)
	update.ProgramTerm = clean(update.ProgramTerm)
	for i, m := range update.Majors {
		update.Majors[i] = s.sanitizer.SanitizeText(m)
	}
	for i, m := range update.Minors {
		update.Minors[i] = s.sanitizer.SanitizeText(m)
	}
}
