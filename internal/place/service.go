// Package place は留学先スポットとそのレビューのドメインロジックを提供する。
package place

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
	"github.com/hitoshi/abroadly/internal/security"
)

// Service はスポットのサービス層。
type Service struct {
	repo      repository.PlaceRepository
	sanitizer security.ContentSanitizerService
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.PlaceRepository,
	sanitizer security.ContentSanitizerService,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// Create はスポットを作成する。投稿者のユーザーIDを記録する。
func (s *Service) Create(ctx context.Context, userID int64, place *model.Place) (*model.PlaceWithRating, error) {
	place.UserID = &userID
	s.sanitizePlace(place)

	if err := s.repo.Create(ctx, place); err != nil {
		return nil, err
	}

	s.logger.Info("スポットを作成しました",
		slog.Int64("place_id", place.ID),
		slog.Int64("user_id", userID),
	)
	return &model.PlaceWithRating{Place: *place}, nil
}

// Get は指定IDのスポットを評価サマリ付きで返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.PlaceWithRating, error) {
	place, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, model.NewPlaceNotFoundError(id)
	}
	return place, nil
}

// List は検索条件に合致するスポット一覧を返す。
func (s *Service) List(ctx context.Context, filter repository.PlaceFilter) ([]model.PlaceWithRating, error) {
	return s.repo.List(ctx, filter)
}

// Update はスポット情報を更新する。
func (s *Service) Update(ctx context.Context, id int64, place *model.Place) (*model.PlaceWithRating, error) {
	place.ID = id
	s.sanitizePlace(place)

	err := s.repo.Update(ctx, place)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewPlaceNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete は指定IDのスポットを関連レビュー・ブックマークごと削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewPlaceNotFoundError(id)
	}
	if err != nil {
		return err
	}

	s.logger.Info("スポットを削除しました",
		slog.Int64("place_id", id),
	)
	return nil
}

// AddReview はスポットに星評価レビューを投稿する。
func (s *Service) AddReview(ctx context.Context, userID, placeID int64, rating int, reviewText string) (*model.PlaceReview, error) {
	if err := s.ensureExists(ctx, placeID); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, model.NewInvalidRatingError(rating)
	}

	review := &model.PlaceReview{
		UserID:     userID,
		PlaceID:    placeID,
		Rating:     rating,
		ReviewText: s.sanitizer.SanitizeText(reviewText),
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ListReviews はスポットのレビュー一覧を投稿者情報付きで返す。
func (s *Service) ListReviews(ctx context.Context, placeID int64) ([]model.PlaceReviewWithReviewer, error) {
	if err := s.ensureExists(ctx, placeID); err != nil {
		return nil, err
	}
	return s.repo.ListReviews(ctx, placeID)
}

// ensureExists はスポットの存在を確認する。
func (s *Service) ensureExists(ctx context.Context, placeID int64) error {
	place, err := s.repo.FindByID(ctx, placeID)
	if err != nil {
		return fmt.Errorf("スポットの取得に失敗しました: %w", err)
	}
	if place == nil {
		return model.NewPlaceNotFoundError(placeID)
	}
	return nil
}

// sanitizePlace は自由入力テキスト項目をサニタイズする。
func (s *Service) sanitizePlace(place *model.Place) {
	place.Name = s.sanitizer.SanitizeText(place.Name)
	place.Category = s.sanitizer.SanitizeText(place.Category)
	place.City = s.sanitizer.SanitizeText(place.City)
	place.Country = s.sanitizer.SanitizeText(place.Country)
	if place.Address != nil {
		cleaned := s.sanitizer.SanitizeText(*place.Address)
		place.Address = &cleaned
	}
	if place.Description != nil {
		cleaned := s.sanitizer.SanitizeText(*place.Description)
		place.Description = &cleaned
	}
}
