package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hitoshi/abroadly/internal/bookmark"
	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
)

type mockChatClient struct {
	complete       func(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)
	streamComplete func(ctx context.Context, system, user string, maxTokens int, temperature float64, onDelta func(string) error) error
}

func (m *mockChatClient) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	return m.complete(ctx, system, user, maxTokens, temperature)
}

func (m *mockChatClient) StreamComplete(ctx context.Context, system, user string, maxTokens int, temperature float64, onDelta func(string) error) error {
	return m.streamComplete(ctx, system, user, maxTokens, temperature, onDelta)
}

type mockBookmarkRepo struct {
	repository.BookmarkRepository
	listPrograms func(ctx context.Context, userID int64) ([]model.BookmarkedProgram, error)
	listPlaces   func(ctx context.Context, userID int64) ([]model.BookmarkedPlace, error)
	listTrips    func(ctx context.Context, userID int64) ([]model.BookmarkedTrip, error)
}

func (m *mockBookmarkRepo) ListProgramBookmarks(ctx context.Context, userID int64) ([]model.BookmarkedProgram, error) {
	return m.listPrograms(ctx, userID)
}

func (m *mockBookmarkRepo) ListPlaceBookmarks(ctx context.Context, userID int64) ([]model.BookmarkedPlace, error) {
	return m.listPlaces(ctx, userID)
}

func (m *mockBookmarkRepo) ListTripBookmarks(ctx context.Context, userID int64) ([]model.BookmarkedTrip, error) {
	return m.listTrips(ctx, userID)
}

type mockProgramRepo struct {
	repository.ProgramRepository
	listProgramReviews func(ctx context.Context, programID int64) ([]model.ProgramReviewWithReviewer, error)
}

func (m *mockProgramRepo) ListProgramReviews(ctx context.Context, programID int64) ([]model.ProgramReviewWithReviewer, error) {
	return m.listProgramReviews(ctx, programID)
}

type mockPlaceRepo struct {
	repository.PlaceRepository
	listReviews func(ctx context.Context, placeID int64) ([]model.PlaceReviewWithReviewer, error)
}

func (m *mockPlaceRepo) ListReviews(ctx context.Context, placeID int64) ([]model.PlaceReviewWithReviewer, error) {
	return m.listReviews(ctx, placeID)
}

type mockTripRepo struct {
	repository.TripRepository
	listReviews func(ctx context.Context, tripID int64) ([]model.TripReviewWithReviewer, error)
}

func (m *mockTripRepo) ListReviews(ctx context.Context, tripID int64) ([]model.TripReviewWithReviewer, error) {
	return m.listReviews(ctx, tripID)
}

func emptyReviews() (*mockProgramRepo, *mockPlaceRepo, *mockTripRepo) {
	return &mockProgramRepo{
			listProgramReviews: func(ctx context.Context, programID int64) ([]model.ProgramReviewWithReviewer, error) {
				return nil, nil
			},
		},
		&mockPlaceRepo{
			listReviews: func(ctx context.Context, placeID int64) ([]model.PlaceReviewWithReviewer, error) {
				return nil, nil
			},
		},
		&mockTripRepo{
			listReviews: func(ctx context.Context, tripID int64) ([]model.TripReviewWithReviewer, error) {
				return nil, nil
			},
		}
}

func newTestService(client ChatClient, bookmarks *mockBookmarkRepo) *Service {
	programRepo, placeRepo, tripRepo := emptyReviews()
	bookmarkService := bookmark.NewService(bookmarks, programRepo, placeRepo, tripRepo, testLogger())
	return NewService(client, bookmarkService, programRepo, placeRepo, tripRepo, testLogger())
}

func emptyBookmarkRepo() *mockBookmarkRepo {
	return &mockBookmarkRepo{
		listPrograms: func(ctx context.Context, userID int64) ([]model.BookmarkedProgram, error) {
			return nil, nil
		},
		listPlaces: func(ctx context.Context, userID int64) ([]model.BookmarkedPlace, error) {
			return nil, nil
		},
		listTrips: func(ctx context.Context, userID int64) ([]model.BookmarkedTrip, error) {
			return nil, nil
		},
	}
}

func testUser() *model.User {
	first := "Alice"
	return &model.User{ID: 1, Email: "alice@vanderbilt.edu", FirstName: &first}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != code {
		t.Errorf("error code = %q, want %q", apiErr.Code, code)
	}
}

func TestPlanTripNotConfigured(t *testing.T) {
	service := newTestService(nil, emptyBookmarkRepo())

	err := service.PlanTrip(context.Background(), testUser(), PlanRequest{}, func(string) error { return nil })
	assertCode(t, err, model.ErrCodeAINotConfigured)
}

func TestPlanTripNoBookmarks(t *testing.T) {
	client := &mockChatClient{
		streamComplete: func(ctx context.Context, system, user string, maxTokens int, temperature float64, onDelta func(string) error) error {
			t.Error("ブックマークが空の場合はAIを呼び出さない")
			return nil
		},
	}
	service := newTestService(client, emptyBookmarkRepo())

	err := service.PlanTrip(context.Background(), testUser(), PlanRequest{}, func(string) error { return nil })
	assertCode(t, err, model.ErrCodeNoBookmarks)
}

func TestPlanTripStreamsPlan(t *testing.T) {
	bookmarks := emptyBookmarkRepo()
	bookmarks.listPrograms = func(ctx context.Context, userID int64) ([]model.BookmarkedProgram, error) {
		return []model.BookmarkedProgram{
			{Program: model.Program{ID: 1, ProgramName: "Vanderbilt in Madrid", Institution: "UAM", City: "Madrid", Country: "Spain"}},
		}, nil
	}

	var gotSystem, gotUser string
	client := &mockChatClient{
		streamComplete: func(ctx context.Context, system, user string, maxTokens int, temperature float64, onDelta func(string) error) error {
			gotSystem, gotUser = system, user
			if maxTokens != planMaxTokens {
				t.Errorf("maxTokens = %d, want %d", maxTokens, planMaxTokens)
			}
			if temperature != planTemperature {
				t.Errorf("temperature = %v, want %v", temperature, planTemperature)
			}
			if err := onDelta("Day 1: "); err != nil {
				return err
			}
			return onDelta("explore Madrid")
		},
	}
	service := newTestService(client, bookmarks)

	var b strings.Builder
	err := service.PlanTrip(context.Background(), testUser(), PlanRequest{TravelStartDate: "2024-07-01"}, func(delta string) error {
		b.WriteString(delta)
		return nil
	})
	if err != nil {
		t.Fatalf("PlanTrip() error = %v", err)
	}

	if got := b.String(); got != "Day 1: explore Madrid" {
		t.Errorf("streamed plan = %q", got)
	}
	if !strings.Contains(gotSystem, "expert travel planner") {
		t.Error("システムプロンプトが旅行プランナーとして設定されていない")
	}
	for _, want := range []string{
		"Vanderbilt in Madrid",
		"Season: summer (June-August)",
		"## User's Name: Alice",
	} {
		if !strings.Contains(gotUser, want) {
			t.Errorf("ユーザープロンプトに %q が含まれていない", want)
		}
	}
}

func TestPlanTripStreamErrorEmitsFallback(t *testing.T) {
	bookmarks := emptyBookmarkRepo()
	bookmarks.listTrips = func(ctx context.Context, userID int64) ([]model.BookmarkedTrip, error) {
		return []model.BookmarkedTrip{
			{Trip: model.Trip{ID: 3, Destination: "Lisbon", Country: "Portugal"}},
		}, nil
	}

	client := &mockChatClient{
		streamComplete: func(ctx context.Context, system, user string, maxTokens int, temperature float64, onDelta func(string) error) error {
			if err := onDelta("partial "); err != nil {
				return err
			}
			return fmt.Errorf("connection reset")
		},
	}
	service := newTestService(client, bookmarks)

	var b strings.Builder
	err := service.PlanTrip(context.Background(), testUser(), PlanRequest{}, func(delta string) error {
		b.WriteString(delta)
		return nil
	})
	if err != nil {
		t.Fatalf("ストリーム途中のエラーはエラーとして返さない: %v", err)
	}
	if got := b.String(); !strings.Contains(got, "Error generating trip plan: connection reset") {
		t.Errorf("フォールバック文が流れていない: %q", got)
	}
}

func TestQuickSuggestionNotConfigured(t *testing.T) {
	service := newTestService(nil, emptyBookmarkRepo())

	_, err := service.QuickSuggestion(context.Background(), testUser())
	assertCode(t, err, model.ErrCodeAINotConfigured)
}

func TestQuickSuggestionNoBookmarks(t *testing.T) {
	client := &mockChatClient{
		complete: func(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
			t.Error("ブックマークが空の場合はAIを呼び出さない")
			return "", nil
		},
	}
	service := newTestService(client, emptyBookmarkRepo())

	got, err := service.QuickSuggestion(context.Background(), testUser())
	if err != nil {
		t.Fatalf("QuickSuggestion() error = %v", err)
	}
	if !strings.Contains(got, "Start by bookmarking") {
		t.Errorf("定型メッセージが返っていない: %q", got)
	}
}

func TestQuickSuggestion(t *testing.T) {
	bookmarks := emptyBookmarkRepo()
	bookmarks.listPlaces = func(ctx context.Context, userID int64) ([]model.BookmarkedPlace, error) {
		return []model.BookmarkedPlace{
			{Place: model.Place{ID: 2, Name: "Park Güell", Category: "attraction", City: "Barcelona", Country: "Spain"}},
		}, nil
	}

	client := &mockChatClient{
		complete: func(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
			if maxTokens != quickMaxTokens {
				t.Errorf("maxTokens = %d, want %d", maxTokens, quickMaxTokens)
			}
			if temperature != quickTemperature {
				t.Errorf("temperature = %v, want %v", temperature, quickTemperature)
			}
			if !strings.Contains(user, "0 programs, 1 places, and 0 trips bookmarked") {
				t.Errorf("ブックマーク数がプロンプトに反映されていない: %q", user)
			}
			return "Barcelona in spring is calling!", nil
		},
	}
	service := newTestService(client, bookmarks)

	got, err := service.QuickSuggestion(context.Background(), testUser())
	if err != nil {
		t.Fatalf("QuickSuggestion() error = %v", err)
	}
	if got != "Barcelona in spring is calling!" {
		t.Errorf("QuickSuggestion() = %q", got)
	}
}
