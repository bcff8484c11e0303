// Package program は留学プログラムとそのレビューのドメインロジックを提供する。
package program

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
	"github.com/hitoshi/abroadly/internal/security"
)

// Service はプログラムのサービス層。
type Service struct {
	repo      repository.ProgramRepository
	sanitizer security.ContentSanitizerService
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.ProgramRepository,
	sanitizer security.ContentSanitizerService,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// Create はプログラムを作成する。投稿者のユーザーIDを記録する。
func (s *Service) Create(ctx context.Context, userID int64, program *model.Program) (*model.ProgramWithRating, error) {
	program.UserID = &userID
	s.sanitizeProgram(program)

	if err := s.repo.Create(ctx, program); err != nil {
		return nil, err
	}

	s.logger.Info("プログラムを作成しました",
		slog.Int64("program_id", program.ID),
		slog.Int64("user_id", userID),
	)
	return &model.ProgramWithRating{Program: *program}, nil
}

// Get は指定IDのプログラムを評価サマリ付きで返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.ProgramWithRating, error) {
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if program == nil {
		return nil, model.NewProgramNotFoundError(id)
	}
	return program, nil
}

// List は検索条件に合致するプログラム一覧を返す。
func (s *Service) List(ctx context.Context, filter repository.ProgramFilter) ([]model.ProgramWithRating, error) {
	return s.repo.List(ctx, filter)
}

// Update はプログラム情報を更新する。
func (s *Service) Update(ctx context.Context, id int64, program *model.Program) (*model.ProgramWithRating, error) {
	program.ID = id
	s.sanitizeProgram(program)

	err := s.repo.Update(ctx, program)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewProgramNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete は指定IDのプログラムを関連レビュー・ブックマークごと削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewProgramNotFoundError(id)
	}
	if err != nil {
		return err
	}

	s.logger.Info("プログラムを削除しました",
		slog.Int64("program_id", id),
	)
	return nil
}

// AddReview はプログラムに星評価レビューを投稿する。
func (s *Service) AddReview(ctx context.Context, userID, programID int64, rating int, reviewText string) (*model.ProgramReview, error) {
	if err := s.ensureExists(ctx, programID); err != nil {
		return nil, err
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}

	review := &model.ProgramReview{
		UserID:     userID,
		ProgramID:  programID,
		Rating:     rating,
		ReviewText: s.sanitizer.SanitizeText(reviewText),
	}
	if err := s.repo.CreateProgramReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ListReviews はプログラムのレビュー一覧を投稿者情報付きで返す。
func (s *Service) ListReviews(ctx context.Context, programID int64) ([]model.ProgramReviewWithReviewer, error) {
	if err := s.ensureExists(ctx, programID); err != nil {
		return nil, err
	}
	return s.repo.ListProgramReviews(ctx, programID)
}

// AddCourseReview はプログラム内の授業レビューを投稿する。
func (s *Service) AddCourseReview(ctx context.Context, userID, programID int64, review *model.CourseReview) (*model.CourseReview, error) {
	if err := s.ensureExists(ctx, programID); err != nil {
		return nil, err
	}
	if err := validateRating(review.Rating); err != nil {
		return nil, err
	}

	review.UserID = userID
	review.ProgramID = programID
	review.CourseName = s.sanitizer.SanitizeText(review.CourseName)
	if review.InstructorName != nil {
		cleaned := s.sanitizer.SanitizeText(*review.InstructorName)
		review.InstructorName = &cleaned
	}
	review.ReviewText = s.sanitizer.SanitizeText(review.ReviewText)

	if err := s.repo.CreateCourseReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ListCourseReviews はプログラムの授業レビュー一覧を返す。
func (s *Service) ListCourseReviews(ctx context.Context, programID int64) ([]model.CourseReviewWithReviewer, error) {
	if err := s.ensureExists(ctx, programID); err != nil {
		return nil, err
	}
	return s.repo.ListCourseReviews(ctx, programID)
}

// AddHousingReview はプログラムの住居レビューを投稿する。
func (s *Service) AddHousingReview(ctx context.Context, userID, programID int64, review *model.HousingReview) (*model.HousingReview, error) {
	if err := s.ensureExists(ctx, programID); err != nil {
		return nil, err
	}
	if err := validateRating(review.Rating); err != nil {
		return nil, err
	}

	review.UserID = userID
	review.ProgramID = programID
	review.HousingDescription = s.sanitizer.SanitizeText(review.HousingDescription)
	review.ReviewText = s.sanitizer.SanitizeText(review.ReviewText)

	if err := s.repo.CreateHousingReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ListHousingReviews はプログラムの住居レビュー一覧を返す。
func (s *Service) ListHousingReviews(ctx context.Context, programID int64) ([]model.HousingReviewWithReviewer, error) {
	if err := s.ensureExists(ctx, programID); err != nil {
		return nil, err
	}
	return s.repo.ListHousingReviews(ctx, programID)
}

// ensureExists はプログラムの存在を確認する。
func (s *Service) ensureExists(ctx context.Context, programID int64) error {
	program, err := s.repo.FindByID(ctx, programID)
	if err != nil {
		return fmt.Errorf("プログラムの取得に失敗しました: %w", err)
	}
	if program == nil {
		return model.NewProgramNotFoundError(programID)
	}
	return nil
}

// sanitizeProgram は自由入力テキスト項目をサニタイズする。
func (s *Service) sanitizeProgram(program *model.Program) {
	program.ProgramName = s.sanitizer.SanitizeText(program.ProgramName)
	program.Institution = s.sanitizer.SanitizeText(program.Institution)
	program.City = s.sanitizer.SanitizeText(program.City)
	program.Country = s.sanitizer.SanitizeText(program.Country)
	if program.Description != nil {
		cleaned := s.sanitizer.SanitizeText(*program.Description)
		program.Description = &cleaned
	}
}

// validateRating は評価値が1から5の範囲内であることを確認する。
func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return model.NewInvalidRatingError(rating)
	}
	return nil
}
