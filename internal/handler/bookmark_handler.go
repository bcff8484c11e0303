package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/abroadly/internal/bookmark"
	"github.com/hitoshi/abroadly/internal/middleware"
	"github.com/hitoshi/abroadly/internal/model"
)

// BookmarkServiceInterface はブックマークハンドラーが必要とするサービスインターフェース。
type BookmarkServiceInterface interface {
	Add(ctx context.Context, userID int64, kind model.BookmarkKind, itemID int64) error
	Remove(ctx context.Context, userID int64, kind model.BookmarkKind, itemID int64) error
	ListAll(ctx context.Context, userID int64) (*bookmark.Collection, error)
	ListPrograms(ctx context.Context, userID int64) ([]model.BookmarkedProgram, error)
	ListPlaces(ctx context.Context, userID int64) ([]model.BookmarkedPlace, error)
	ListTrips(ctx context.Context, userID int64) ([]model.BookmarkedTrip, error)
}

// BookmarkHandler はブックマークのHTTPハンドラー。
type BookmarkHandler struct {
	service BookmarkServiceInterface
}

// NewBookmarkHandler はBookmarkHandlerを生成する。
func NewBookmarkHandler(service BookmarkServiceInterface) *BookmarkHandler {
	return &BookmarkHandler{service: service}
}

// bookmarkedProgramResponse はブックマークされたプログラムのAPIレスポンス。
type bookmarkedProgramResponse struct {
	ID           int64     `json:"id"`
	ProgramName  string    `json:"program_name"`
	Institution  string    `json:"institution"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	Cost         *float64  `json:"cost"`
	HousingType  *string   `json:"housing_type"`
	Location     *string   `json:"location"`
	Duration     *string   `json:"duration"`
	Description  *string   `json:"description"`
	BookmarkedAt time.Time `json:"bookmarked_at"`
}

// bookmarkedPlaceResponse はブックマークされたスポットのAPIレスポンス。
type bookmarkedPlaceResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	Address      *string   `json:"address"`
	Description  *string   `json:"description"`
	BookmarkedAt time.Time `json:"bookmarked_at"`
}

// bookmarkedTripResponse はブックマークされた旅行のAPIレスポンス。
type bookmarkedTripResponse struct {
	ID           int64     `json:"id"`
	Destination  string    `json:"destination"`
	Country      string    `json:"country"`
	Description  *string   `json:"description"`
	TripType     *string   `json:"trip_type"`
	BookmarkedAt time.Time `json:"bookmarked_at"`
}

func toBookmarkedProgramResponses(programs []model.BookmarkedProgram) []bookmarkedProgramResponse {
	out := make([]bookmarkedProgramResponse, 0, len(programs))
	for _, p := range programs {
		out = append(out, bookmarkedProgramResponse{
			ID:           p.ID,
			ProgramName:  p.ProgramName,
			Institution:  p.Institution,
			City:         p.City,
			Country:      p.Country,
			Cost:         p.Cost,
			HousingType:  p.HousingType,
			Location:     p.Location,
			Duration:     p.Duration,
			Description:  p.Description,
			BookmarkedAt: p.BookmarkedAt,
		})
	}
	return out
}

func toBookmarkedPlaceResponses(places []model.BookmarkedPlace) []bookmarkedPlaceResponse {
	out := make([]bookmarkedPlaceResponse, 0, len(places))
	for _, p := range places {
		out = append(out, bookmarkedPlaceResponse{
			ID:           p.ID,
			Name:         p.Name,
			Category:     p.Category,
			City:         p.City,
			Country:      p.Country,
			Latitude:     p.Latitude,
			Longitude:    p.Longitude,
			Address:      p.Address,
			Description:  p.Description,
			BookmarkedAt: p.BookmarkedAt,
		})
	}
	return out
}

func toBookmarkedTripResponses(trips []model.BookmarkedTrip) []bookmarkedTripResponse {
	out := make([]bookmarkedTripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, bookmarkedTripResponse{
			ID:           t.ID,
			Destination:  t.Destination,
			Country:      t.Country,
			Description:  t.Description,
			TripType:     t.TripType,
			BookmarkedAt: t.BookmarkedAt,
		})
	}
	return out
}

// ListAll は全種別のブックマークをまとめて返す。
// GET /bookmarks
func (h *BookmarkHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	collection, err := h.service.ListAll(r.Context(), current.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"programs": toBookmarkedProgramResponses(collection.Programs),
		"places":   toBookmarkedPlaceResponses(collection.Places),
		"trips":    toBookmarkedTripResponses(collection.Trips),
	})
}

// ListPrograms はプログラムのブックマーク一覧を返す。
// GET /bookmarks/programs
func (h *BookmarkHandler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	programs, err := h.service.ListPrograms(r.Context(), current.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookmarkedProgramResponses(programs))
}

// ListPlaces はスポットのブックマーク一覧を返す。
// GET /bookmarks/places
func (h *BookmarkHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	places, err := h.service.ListPlaces(r.Context(), current.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookmarkedPlaceResponses(places))
}

// ListTrips は旅行のブックマーク一覧を返す。
// GET /bookmarks/trips
func (h *BookmarkHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	trips, err := h.service.ListTrips(r.Context(), current.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookmarkedTripResponses(trips))
}

// Add はブックマーク追加を処理する。
// POST /bookmarks/{kind}/{id}
func (h *BookmarkHandler) Add(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	kind, ok := parseBookmarkKind(r)
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("ブックマーク種別はprogram、place、tripのいずれかを指定してください。"))
		return
	}
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("アイテムIDが不正です。"))
		return
	}

	if err := h.service.Add(r.Context(), current.ID, kind, id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
}

// Remove はブックマーク解除を処理する。
// DELETE /bookmarks/{kind}/{id}
func (h *BookmarkHandler) Remove(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	kind, ok := parseBookmarkKind(r)
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("ブックマーク種別はprogram、place、tripのいずれかを指定してください。"))
		return
	}
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("アイテムIDが不正です。"))
		return
	}

	if err := h.service.Remove(r.Context(), current.ID, kind, id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// parseBookmarkKind はパスパラメータのkindをBookmarkKindに変換する。
func parseBookmarkKind(r *http.Request) (model.BookmarkKind, bool) {
	switch chi.URLParam(r, "kind") {
	case "program", "programs":
		return model.BookmarkProgram, true
	case "place", "places":
		return model.BookmarkPlace, true
	case "trip", "trips":
		return model.BookmarkTrip, true
	default:
		return "", false
	}
}
