// Package ai はブックマークを元にしたAI旅行プラン生成機能を提供する。
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/abroadly/internal/bookmark"
	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
)

const (
	planMaxTokens    = 2000
	planTemperature  = 0.8
	quickMaxTokens   = 100
	quickTemperature = 0.9
)

// noBookmarksSuggestion はブックマークが1件もないユーザーへの定型メッセージ。
const noBookmarksSuggestion = "Start by bookmarking some programs, places, or trips that " +
	"interest you! Once you have some saved, I can help you plan " +
	"an amazing adventure. 🌍"

// ChatClient はAIチャット補完のインターフェース。
type ChatClient interface {
	// Complete は応答全文を一括で返す。
	Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)

	// StreamComplete は差分テキストが届くたびにonDeltaを呼び出す。
	StreamComplete(ctx context.Context, system, user string, maxTokens int, temperature float64, onDelta func(delta string) error) error
}

// Service はAI旅行プラン生成のサービス層。
// clientがnilの場合、AI機能は未設定として扱う。
type Service struct {
	client      ChatClient
	bookmarks   *bookmark.Service
	programRepo repository.ProgramRepository
	placeRepo   repository.PlaceRepository
	tripRepo    repository.TripRepository
	logger      *slog.Logger
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// AI機能を無効にする場合はclientにnilを渡す。
func NewService(
	client ChatClient,
	bookmarks *bookmark.Service,
	programRepo repository.ProgramRepository,
	placeRepo repository.PlaceRepository,
	tripRepo repository.TripRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		client:      client,
		bookmarks:   bookmarks,
		programRepo: programRepo,
		placeRepo:   placeRepo,
		tripRepo:    tripRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// PlanTrip はユーザーのブックマークを元に旅行プランをストリーミング生成する。
// 差分テキストが届くたびにonDeltaを呼び出す。
// AI未設定の場合はAINotConfigured、ブックマークが空の場合はNoBookmarksを返す。
// 生成途中のエラーはエラー文をonDelta経由で通知し、エラーとしては返さない。
func (s *Service) PlanTrip(ctx context.Context, user *model.User, req PlanRequest, onDelta func(delta string) error) error {
	if s.client == nil {
		return model.NewAINotConfiguredError()
	}

	collection, err := s.bookmarks.ListAll(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("ブックマークの取得に失敗しました: %w", err)
	}
	if len(collection.Programs) == 0 && len(collection.Places) == 0 && len(collection.Trips) == 0 {
		return model.NewNoBookmarksError()
	}

	programReviews, placeReviews, tripReviews := s.collectReviews(ctx, collection)

	season := seasonContext(req.TravelStartDate, s.now)
	bookmarksContext := formatBookmarks(collection, programReviews, placeReviews, tripReviews)
	userPrompt := buildUserPrompt(user, req, bookmarksContext, season)

	s.logger.Info("旅行プランの生成を開始します",
		slog.Int64("user_id", user.ID),
		slog.Int("program_count", len(collection.Programs)),
		slog.Int("place_count", len(collection.Places)),
		slog.Int("trip_count", len(collection.Trips)),
	)

	if err := s.client.StreamComplete(ctx, systemPrompt, userPrompt, planMaxTokens, planTemperature, onDelta); err != nil {
		s.logger.Error("旅行プランの生成に失敗しました",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		// ストリーム開始後はHTTPステータスを変更できないため、
		// エラー文を本文として流して終了する。
		_ = onDelta(fmt.Sprintf("\n\nError generating trip plan: %s", err.Error()))
	}
	return nil
}

// QuickSuggestion はブックマーク数と季節に基づく短い提案を返す。
// ブックマークが0件の場合は定型の案内文を返す（エラーにはしない）。
func (s *Service) QuickSuggestion(ctx context.Context, user *model.User) (string, error) {
	if s.client == nil {
		return "", model.NewAINotConfiguredError()
	}

	collection, err := s.bookmarks.ListAll(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("ブックマークの取得に失敗しました: %w", err)
	}

	programCount := len(collection.Programs)
	placeCount := len(collection.Places)
	tripCount := len(collection.Trips)
	if programCount+placeCount+tripCount == 0 {
		return noBookmarksSuggestion, nil
	}

	season := seasonContext("", s.now)
	userPrompt := fmt.Sprintf(
		"The user has %d programs, %d places, and %d trips bookmarked. "+
			"It's currently %s. "+
			"Give them a brief, exciting suggestion about planning their trip (max 2 sentences).",
		programCount, placeCount, tripCount, season,
	)

	suggestion, err := s.client.Complete(ctx, quickSuggestionSystemPrompt, userPrompt, quickMaxTokens, quickTemperature)
	if err != nil {
		return "", fmt.Errorf("提案の生成に失敗しました: %w", err)
	}
	return suggestion, nil
}

// collectReviews はブックマーク済みアイテムのレビューをプロンプト用に集める。
// レビュー取得の失敗はプラン生成を止めず、レビューなしとして続行する。
func (s *Service) collectReviews(ctx context.Context, c *bookmark.Collection) (programReviews, placeReviews, tripReviews itemReviews) {
	programReviews = make(itemReviews)
	placeReviews = make(itemReviews)
	tripReviews = make(itemReviews)

	for _, p := range c.Programs {
		reviews, err := s.programRepo.ListProgramReviews(ctx, p.ID)
		if err != nil {
			s.logger.Warn("プログラムレビューの取得に失敗しました",
				slog.Int64("program_id", p.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, r := range reviews {
			programReviews[p.ID] = append(programReviews[p.ID], reviewSnippet{
				Rating: r.Rating,
				Text:   r.ReviewText,
			})
		}
	}

	for _, pl := range c.Places {
		reviews, err := s.placeRepo.ListReviews(ctx, pl.ID)
		if err != nil {
			s.logger.Warn("スポットレビューの取得に失敗しました",
				slog.Int64("place_id", pl.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, r := range reviews {
			placeReviews[pl.ID] = append(placeReviews[pl.ID], reviewSnippet{
				Rating: r.Rating,
				Text:   r.ReviewText,
			})
		}
	}

	for _, t := range c.Trips {
		reviews, err := s.tripRepo.ListReviews(ctx, t.ID)
		if err != nil {
			s.logger.Warn("旅行レビューの取得に失敗しました",
				slog.Int64("trip_id", t.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, r := range reviews {
			tripReviews[t.ID] = append(tripReviews[t.ID], reviewSnippet{
				Rating: r.Rating,
				Text:   r.ReviewText,
			})
		}
	}
	return programReviews, placeReviews, tripReviews
}

// compile-time interface check
var _ ChatClient = (*OpenAIClient)(nil)
