package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/abroadly/internal/middleware"
	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
)

// TripServiceInterface は旅行ハンドラーが必要とするサービスインターフェース。
type TripServiceInterface interface {
	Create(ctx context.Context, userID int64, trip *model.Trip) (*model.TripWithRating, error)
	Get(ctx context.Context, id int64) (*model.TripWithRating, error)
	List(ctx context.Context, filter repository.TripFilter) ([]model.TripWithRating, error)
	Update(ctx context.Context, id int64, trip *model.Trip) (*model.TripWithRating, error)
	Delete(ctx context.Context, id int64) error
	AddReview(ctx context.Context, userID, tripID int64, rating int, reviewText string) (*model.TripReview, error)
	ListReviews(ctx context.Context, tripID int64) ([]model.TripReviewWithReviewer, error)
}

// TripHandler は小旅行のHTTPハンドラー。
type TripHandler struct {
	service TripServiceInterface
}

// NewTripHandler はTripHandlerを生成する。
func NewTripHandler(service TripServiceInterface) *TripHandler {
	return &TripHandler{service: service}
}

// tripRequest は旅行作成・更新リクエストのボディ。
type tripRequest struct {
	Destination string  `json:"destination"`
	Country     string  `json:"country"`
	Description *string `json:"description"`
	TripType    *string `json:"trip_type"`
}

func (req *tripRequest) toModel() *model.Trip {
	return &model.Trip{
		Destination: req.Destination,
		Country:     req.Country,
		Description: req.Description,
		TripType:    req.TripType,
	}
}

// Create は旅行登録を処理する。
// POST /api/trips
func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req tripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("リクエストボディの解析に失敗しました。"))
		return
	}
	if req.Destination == "" || req.Country == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("destinationとcountryは必須です。"))
		return
	}

	created, err := h.service.Create(r.Context(), current.ID, req.toModel())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTripResponse(created))
}

// List は旅行一覧を返す。country/trip_type/searchで絞り込める。
// GET /api/trips
func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.TripFilter{
		Country:  q.Get("country"),
		TripType: q.Get("trip_type"),
		Search:   q.Get("search"),
	}
	filter.Limit, filter.Offset = parsePagination(q.Get("limit"), q.Get("offset"))

	trips, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTripResponses(trips))
}

// Get は旅行詳細を返す。
// GET /api/trips/{id}
func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewTripNotFoundError(0))
		return
	}

	trip, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTripResponse(trip))
}

// Update は旅行情報を更新する。
// PUT /api/trips/{id}
func (h *TripHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewTripNotFoundError(0))
		return
	}

	var req tripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("リクエストボディの解析に失敗しました。"))
		return
	}

	updated, err := h.service.Update(r.Context(), id, req.toModel())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTripResponse(updated))
}

// Delete は旅行を削除する。
// DELETE /api/trips/{id}
func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewTripNotFoundError(0))
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddReview は旅行レビューの投稿を処理する。
// POST /api/trips/{id}/reviews
func (h *TripHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewTripNotFoundError(0))
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
		ID: review.ID, UserID: review.UserID, ItemID: review.TripID,
		Rating: review.Rating, ReviewText: review.ReviewText, Date: review.Date,
	})
}

// ListReviews は旅行のレビュー一覧を返す。
// GET /api/trips/{id}/reviews
func (h *TripHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewTripNotFoundError(0))
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
			ID: rv.ID, UserID: rv.UserID, ItemID: rv.TripID,
			Rating: rv.Rating, ReviewText: rv.ReviewText, Date: rv.Date,
			Reviewer: toReviewerResponse(rv.Reviewer),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
