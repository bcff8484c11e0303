package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/abroadly/internal/middleware"
	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
)

// PlaceServiceInterface はスポットハンドラーが必要とするサービスインターフェース。
type PlaceServiceInterface interface {
	Create(ctx context.Context, userID int64, place *model.Place) (*model.PlaceWithRating, error)
	Get(ctx context.Context, id int64) (*model.PlaceWithRating, error)
	List(ctx context.Context, filter repository.PlaceFilter) ([]model.PlaceWithRating, error)
	Update(ctx context.Context, id int64, place *model.Place) (*model.PlaceWithRating, error)
	Delete(ctx context.Context, id int64) error
	AddReview(ctx context.Context, userID, placeID int64, rating int, reviewText string) (*model.PlaceReview, error)
	ListReviews(ctx context.Context, placeID int64) ([]model.PlaceReviewWithReviewer, error)
}

// PlaceHandler は現地スポットのHTTPハンドラー。
type PlaceHandler struct {
	service PlaceServiceInterface
}

// NewPlaceHandler はPlaceHandlerを生成する。
func NewPlaceHandler(service PlaceServiceInterface) *PlaceHandler {
	return &PlaceHandler{service: service}
}

// placeRequest はスポット作成・更新リクエストのボディ。
type placeRequest struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	City        string   `json:"city"`
	Country     string   `json:"country"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     *string  `json:"address"`
	Description *string  `json:"description"`
}

func (req *placeRequest) toModel() *model.Place {
	return &model.Place{
		Name:        req.Name,
		Category:    req.Category,
		City:        req.City,
		Country:     req.Country,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		Description: req.Description,
	}
}

// Create はスポット登録を処理する。
// POST /api/places
func (h *PlaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("リクエストボディの解析に失敗しました。"))
		return
	}
	if req.Name == "" || req.Category == "" || req.City == "" || req.Country == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("name、category、city、countryは必須です。"))
		return
	}

	created, err := h.service.Create(r.Context(), current.ID, req.toModel())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPlaceResponse(created))
}

// List はスポット一覧を返す。category/city/country/searchで絞り込める。
// GET /api/places
func (h *PlaceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.PlaceFilter{
		Category: q.Get("category"),
		City:     q.Get("city"),
		Country:  q.Get("country"),
		Search:   q.Get("search"),
	}
	filter.Limit, filter.Offset = parsePagination(q.Get("limit"), q.Get("offset"))

	places, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlaceResponses(places))
}

// Get はスポット詳細を返す。
// GET /api/places/{id}
func (h *PlaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewPlaceNotFoundError(0))
		return
	}

	place, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlaceResponse(place))
}

// Update はスポット情報を更新する。
// PUT /api/places/{id}
func (h *PlaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewPlaceNotFoundError(0))
		return
	}

	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("リクエストボディの解析に失敗しました。"))
		return
	}

	updated, err := h.service.Update(r.Context(), id, req.toModel())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlaceResponse(updated))
}

// Delete はスポットを削除する。
// DELETE /api/places/{id}
func (h *PlaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewPlaceNotFoundError(0))
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddReview はスポットレビューの投稿を処理する。
// POST /api/places/{id}/reviews
func (h *PlaceHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewPlaceNotFoundError(0))
		return
	}

	var req ratingReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("リクエストボディの解析に失敗しました。"))
		return
	}

	review, err := h.service.AddReview(r.Context(), current.ID, id, req.Rating, req.ReviewText)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reviewResponse{
		ID: review.ID, UserID: review.UserID, ItemID: review.PlaceID,
		Rating: review.Rating, ReviewText: review.ReviewText, Date: review.Date,
	})
}

// ListReviews はスポットのレビュー一覧を返す。
// GET /api/places/{id}/reviews
func (h *PlaceHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewPlaceNotFoundError(0))
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]reviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, reviewResponse{
			ID: rv.ID, UserID: rv.UserID, ItemID: rv.PlaceID,
			Rating: rv.Rating, ReviewText: rv.ReviewText, Date: rv.Date,
			Reviewer: toReviewerResponse(rv.Reviewer),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
