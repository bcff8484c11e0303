// Package trip は小旅行プランとそのレビューのドメインロジックを提供する。
package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
	"github.com/hitoshi/abroadly/internal/security"
)

// Service は旅行のサービス層。
type Service struct {
	repo      repository.TripRepository
	sanitizer security.ContentSanitizerService
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.TripRepository,
	sanitizer security.ContentSanitizerService,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// Create は旅行を作成する。投稿者のユーザーIDを記録する。
func (s *Service) Create(ctx context.Context, userID int64, trip *model.Trip) (*model.TripWithRating, error) {
	trip.UserID = &userID
	s.sanitizeTrip(trip)

	if err := s.repo.Create(ctx, trip); err != nil {
		return nil, err
	}

	s.logger.Info("旅行を作成しました",
		slog.Int64("trip_id", trip.ID),
		slog.Int64("user_id", userID),
	)
	return &model.TripWithRating{Trip: *trip}, nil
}

// Get は指定IDの旅行を評価サマリ付きで返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.TripWithRating, error) {
	trip, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, model.NewTripNotFoundError(id)
	}
	return trip, nil
}

// List は検索条件に合致する旅行一覧を返す。
func (s *Service) List(ctx context.Context, filter repository.TripFilter) ([]model.TripWithRating, error) {
	return s.repo.List(ctx, filter)
}

// Update は旅行情報を更新する。
func (s *Service) Update(ctx context.Context, id int64, trip *model.Trip) (*model.TripWithRating, error) {
	trip.ID = id
	s.sanitizeTrip(trip)

	err := s.repo.Update(ctx, trip)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewTripNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete は指定IDの旅行を関連レビュー・ブックマークごと削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewTripNotFoundError(id)
	}
	if err != nil {
		return err
	}

	s.logger.Info("旅行を削除しました",
		slog.Int64("trip_id", id),
	)
	return nil
}

// AddReview は旅行に星評価レビューを投稿する。
func (s *Service) AddReview(ctx context.Context, userID, tripID int64, rating int, reviewText string) (*model.TripReview, error) {
	if err := s.ensureExists(ctx, tripID); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, model.NewInvalidRatingError(rating)
	}

	review := &model.TripReview{
		UserID:     userID,
		TripID:     tripID,
		Rating:     rating,
		ReviewText: s.sanitizer.SanitizeText(reviewText),
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ListReviews は旅行のレビュー一覧を投稿者情報付きで返す。
func (s *Service) ListReviews(ctx context.Context, tripID int64) ([]model.TripReviewWithReviewer, error) {
	if err := s.ensureExists(ctx, tripID); err != nil {
		return nil, err
	}
	return s.repo.ListReviews(ctx, tripID)
}

// ensureExists は旅行の存在を確認する。
func (s *Service) ensureExists(ctx context.Context, tripID int64) error {
	trip, err := s.repo.FindByID(ctx, tripID)
	if err != nil {
		return fmt.Errorf("旅行の取得に失敗しました: %w", err)
	}
	if trip == nil {
		return model.NewTripNotFoundError(tripID)
	}
	return nil
}

// sanitizeTrip は自由入力テキスト項目をサニタイズする。
func (s *Service) sanitizeTrip(trip *model.Trip) {
	trip.Destination = s.sanitizer.SanitizeText(trip.Destination)
	trip.Country = s.sanitizer.SanitizeText(trip.Country)
	if trip.Description != nil {
		cleaned := s.sanitizer.SanitizeText(*trip.Description)
		trip.Description = &cleaned
	}
	if trip.TripType != nil {
		cleaned := s.sanitizer.SanitizeText(*trip.TripType)
		trip.TripType = &cleaned
	}
}
