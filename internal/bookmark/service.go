// Package bookmark はプログラム・スポット・旅行の保存機能を提供する。
package bookmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
)

// Collection はユーザーの全ブックマークを種別ごとにまとめたもの。
type Collection struct {
	Programs []model.BookmarkedProgram
	Places   []model.BookmarkedPlace
	Trips    []model.BookmarkedTrip
}

// Service はブックマークのサービス層。
type Service struct {
	repo        repository.BookmarkRepository
	programRepo repository.ProgramRepository
	placeRepo   repository.PlaceRepository
	tripRepo    repository.TripRepository
	logger      *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.BookmarkRepository,
	programRepo repository.ProgramRepository,
	placeRepo repository.PlaceRepository,
	tripRepo repository.TripRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		programRepo: programRepo,
		placeRepo:   placeRepo,
		tripRepo:    tripRepo,
		logger:      logger,
	}
}

// Add は指定種別のアイテムをブックマークする。
// アイテムが存在しない場合は種別に応じたNotFound、
// 既にブックマーク済みの場合はAlreadyBookmarkedを返す。
func (s *Service) Add(ctx context.Context, userID int64, kind model.BookmarkKind, itemID int64) error {
	var err error
	switch kind {
	case model.BookmarkProgram:
		if err = s.ensureProgramExists(ctx, itemID); err != nil {
			return err
		}
		err = s.repo.CreateProgramBookmark(ctx, userID, itemID)
	case model.BookmarkPlace:
		if err = s.ensurePlaceExists(ctx, itemID); err != nil {
			return err
		}
		err = s.repo.CreatePlaceBookmark(ctx, userID, itemID)
	case model.BookmarkTrip:
		if err = s.ensureTripExists(ctx, itemID); err != nil {
			return err
		}
		err = s.repo.CreateTripBookmark(ctx, userID, itemID)
	default:
		return fmt.Errorf("unknown bookmark kind: %s", kind)
	}

	if errors.Is(err, repository.ErrDuplicate) {
		return model.NewAlreadyBookmarkedError()
	}
	if err != nil {
		return err
	}

	s.logger.Info("ブックマークを追加しました",
		slog.Int64("user_id", userID),
		slog.String("kind", string(kind)),
		slog.Int64("item_id", itemID),
	)
	return nil
}

// Remove は指定種別のアイテムのブックマークを解除する。
// ブックマークされていない場合はBookmarkNotFoundを返す。
func (s *Service) Remove(ctx context.Context, userID int64, kind model.BookmarkKind, itemID int64) error {
	var err error
	switch kind {
	case model.BookmarkProgram:
		err = s.repo.DeleteProgramBookmark(ctx, userID, itemID)
	case model.BookmarkPlace:
		err = s.repo.DeletePlaceBookmark(ctx, userID, itemID)
	case model.BookmarkTrip:
		err = s.repo.DeleteTripBookmark(ctx, userID, itemID)
	default:
		return fmt.Errorf("unknown bookmark kind: %s", kind)
	}

	if errors.Is(err, repository.ErrNotFound) {
		return model.NewBookmarkNotFoundError()
	}
	return err
}

// ListAll は全種別のブックマークを保存日時降順でまとめて返す。
func (s *Service) ListAll(ctx context.Context, userID int64) (*Collection, error) {
	var (
		collection Collection
		err        error
	)
	if collection.Programs, err = s.repo.ListProgramBookmarks(ctx, userID); err != nil {
		return nil, err
	}
	if collection.Places, err = s.repo.ListPlaceBookmarks(ctx, userID); err != nil {
		return nil, err
	}
	if collection.Trips, err = s.repo.ListTripBookmarks(ctx, userID); err != nil {
		return nil, err
	}
	return &collection, nil
}

// ListPrograms はプログラムのブックマーク一覧を返す。
func (s *Service) ListPrograms(ctx context.Context, userID int64) ([]model.BookmarkedProgram, error) {
	return s.repo.ListProgramBookmarks(ctx, userID)
}

// ListPlaces はスポットのブックマーク一覧を返す。
func (s *Service) ListPlaces(ctx context.Context, userID int64) ([]model.BookmarkedPlace, error) {
	return s.repo.ListPlaceBookmarks(ctx, userID)
}

// ListTrips は旅行のブックマーク一覧を返す。
func (s *Service) ListTrips(ctx context.Context, userID int64) ([]model.BookmarkedTrip, error) {
	return s.repo.ListTripBookmarks(ctx, userID)
}

func (s *Service) ensureProgramExists(ctx context.Context, id int64) error {
	program, err := s.programRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("プログラムの取得に失敗しました: %w", err)
	}
	if program == nil {
		return model.NewProgramNotFoundError(id)
	}
	return nil
}

func (s *Service) ensurePlaceExists(ctx context.Context, id int64) error {
	place, err := s.placeRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("スポットの取得に失敗しました: %w", err)
	}
	if place == nil {
		return model.NewPlaceNotFoundError(id)
	}
	return nil
}

func (s *Service) ensureTripExists(ctx context.Context, id int64) error {
	trip, err := s.tripRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("旅行の取得に失敗しました: %w", err)
	}
	if trip == nil {
		return model.NewTripNotFoundError(id)
	}
	return nil
}
