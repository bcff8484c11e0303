package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hitoshi/abroadly/internal/middleware"
	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/repository"
)

// ProgramServiceInterface はプログラムハンドラーが必要とするサービスインターフェース。
type ProgramServiceInterface interface {
	Create(ctx context.Context, userID int64, program *model.Program) (*model.ProgramWithRating, error)
	Get(ctx context.Context, id int64) (*model.ProgramWithRating, error)
	List(ctx context.Context, filter repository.ProgramFilter) ([]model.ProgramWithRating, error)
	Update(ctx context.Context, id int64, program *model.Program) (*model.ProgramWithRating, error)
	Delete(ctx context.Context, id int64) error
	AddReview(ctx context.Context, userID, programID int64, rating int, reviewText string) (*model.ProgramReview, error)
	ListReviews(ctx context.Context, programID int64) ([]model.ProgramReviewWithReviewer, error)
	AddCourseReview(ctx context.Context, userID, programID int64, review *model.CourseReview) (*model.CourseReview, error)
	ListCourseReviews(ctx context.Context, programID int64) ([]model.CourseReviewWithReviewer, error)
	AddHousingReview(ctx context.Context, userID, programID int64, review *model.HousingReview) (*model.HousingReview, error)
	ListHousingReviews(ctx context.Context, programID int64) ([]model.HousingReviewWithReviewer, error)
}

// ProgramHandler は留学プログラムのHTTPハンドラー。
type ProgramHandler struct {
	service ProgramServiceInterface
}

// NewProgramHandler はProgramHandlerを生成する。
func NewProgramHandler(service ProgramServiceInterface) *ProgramHandler {
	return &ProgramHandler{service: service}
}

// programRequest はプログラム作成・更新リクエストのボディ。
type programRequest struct {
	ProgramName string   `json:"program_name"`
	Institution string   `json:"institution"`
	City        string   `json:"city"`
	Country     string   `json:"country"`
	Cost        *float64 `json:"cost"`
	HousingType *string  `json:"housing_type"`
	Location    *string  `json:"location"`
	Duration    *string  `json:"duration"`
	Description *string  `json:"description"`
}

func (req *programRequest) toModel() *model.Program {
	return &model.Program{
		ProgramName: req.ProgramName,
		Institution: req.Institution,
		City:        req.City,
		Country:     req.Country,
		Cost:        req.Cost,
		HousingType: req.HousingType,
		Location:    req.Location,
		Duration:    req.Duration,
		Description: req.Description,
	}
}

// ratingReviewRequest は星評価レビューリクエストのボディ。
type ratingReviewRequest struct {
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

// courseReviewRequest は授業レビューリクエストのボディ。
type courseReviewRequest struct {
	CourseName     string  `json:"course_name"`
	InstructorName *string `json:"instructor_name"`
	Rating         int     `json:"rating"`
	ReviewText     string  `json:"review_text"`
}

// housingReviewRequest は住居レビューリクエストのボディ。
type housingReviewRequest struct {
	HousingDescription string `json:"housing_description"`
	Rating             int    `json:"rating"`
	ReviewText         string `json:"review_text"`
}

// Create はプログラム登録を処理する。
// POST /api/programs
func (h *ProgramHandler) Create(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req programRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("リクエストボディの解析に失敗しました。"))
		return
	}
	if req.ProgramName == "" || req.Institution == "" || req.City == "" || req.Country == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("program_name、institution、city、countryは必須です。"))
		return
	}

	created, err := h.service.Create(r.Context(), current.ID, req.toModel())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProgramResponse(created))
}

// List はプログラム一覧を返す。city/country/searchで絞り込める。
// GET /api/programs
func (h *ProgramHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ProgramFilter{
		City:    q.Get("city"),
		Country: q.Get("country"),
		Search:  q.Get("search"),
	}
	filter.Limit, filter.Offset = parsePagination(q.Get("limit"), q.Get("offset"))

	programs, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProgramResponses(programs))
}

// Get はプログラム詳細を返す。
// GET /api/programs/{id}
func (h *ProgramHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewProgramNotFoundError(0))
		return
	}

	program, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProgramResponse(program))
}

// Update はプログラム情報を更新する。
// PUT /api/programs/{id}
func (h *ProgramHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewProgramNotFoundError(0))
		return
	}

	var req programRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("リクエストボディの解析に失敗しました。"))
		return
	}

	updated, err := h.service.Update(r.Context(), id, req.toModel())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProgramResponse(updated))
}

// Delete はプログラムを削除する。関連レビューとブックマークも消える。
// DELETE /api/programs/{id}
func (h *ProgramHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewProgramNotFoundError(0))
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddReview はプログラムレビューの投稿を処理する。
// POST /api/programs/{id}/reviews
func (h *ProgramHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewProgramNotFoundError(0))
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
		ID: review.ID, UserID: review.UserID, ItemID: review.ProgramID,
		Rating: review.Rating, ReviewText: review.ReviewText, Date: review.Date,
	})
}

// ListReviews はプログラムのレビュー一覧を返す。
// GET /api/programs/{id}/reviews
func (h *ProgramHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewProgramNotFoundError(0))
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
			ID: rv.ID, UserID: rv.UserID, ItemID: rv.ProgramID,
			Rating: rv.Rating, ReviewText: rv.ReviewText, Date: rv.Date,
			Reviewer: toReviewerResponse(rv.Reviewer),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// AddCourseReview は授業レビューの投稿を処理する。
// POST /api/programs/{id}/courses/reviews
func (h *ProgramHandler) AddCourseReview(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewProgramNotFoundError(0))
		return
	}

	var req courseReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("リクエストボディの解析に失敗しました。"))
		return
	}
	if req.CourseName == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("course_nameは必須です。"))
		return
	}

	review, err := h.service.AddCourseReview(r.Context(), current.ID, id, &model.CourseReview{
		CourseName:     req.CourseName,
		InstructorName: req.InstructorName,
		Rating:         req.Rating,
		ReviewText:     req.ReviewText,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, courseReviewResponse{
		ID: review.ID, UserID: review.UserID, ProgramID: review.ProgramID,
		CourseName: review.CourseName, InstructorName: review.InstructorName,
		Rating: review.Rating, ReviewText: review.ReviewText, Date: review.Date,
	})
}

// ListCourseReviews はプログラムの授業レビュー一覧を返す。
// GET /api/programs/{id}/courses/reviews
func (h *ProgramHandler) ListCourseReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewProgramNotFoundError(0))
		return
	}

	reviews, err := h.service.ListCourseReviews(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]courseReviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, courseReviewResponse{
			ID: rv.ID, UserID: rv.UserID, ProgramID: rv.ProgramID,
			CourseName: rv.CourseName, InstructorName: rv.InstructorName,
			Rating: rv.Rating, ReviewText: rv.ReviewText, Date: rv.Date,
			Reviewer: toReviewerResponse(rv.Reviewer),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// AddHousingReview は住居レビューの投稿を処理する。
// POST /api/programs/{id}/housing/reviews
func (h *ProgramHandler) AddHousingReview(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewProgramNotFoundError(0))
		return
	}

	var req housingReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("リクエストボディの解析に失敗しました。"))
		return
	}
	if req.HousingDescription == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("housing_descriptionは必須です。"))
		return
	}

	review, err := h.service.AddHousingReview(r.Context(), current.ID, id, &model.HousingReview{
		HousingDescription: req.HousingDescription,
		Rating:             req.Rating,
		ReviewText:         req.ReviewText,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, housingReviewResponse{
		ID: review.ID, UserID: review.UserID, ProgramID: review.ProgramID,
		HousingDescription: review.HousingDescription,
		Rating:             review.Rating, ReviewText: review.ReviewText, Date: review.Date,
	})
}

// ListHousingReviews はプログラムの住居レビュー一覧を返す。
// GET /api/programs/{id}/housing/reviews
func (h *ProgramHandler) ListHousingReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewProgramNotFoundError(0))
		return
	}

	reviews, err := h.service.ListHousingReviews(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]housingReviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, housingReviewResponse{
			ID: rv.ID, UserID: rv.UserID, ProgramID: rv.ProgramID,
			HousingDescription: rv.HousingDescription,
			Rating:             rv.Rating, ReviewText: rv.ReviewText, Date: rv.Date,
			Reviewer:           toReviewerResponse(rv.Reviewer),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// parsePagination はクエリ文字列のlimit/offsetを解析する。
// 不正な値は0として扱う（リポジトリ側でデフォルトが適用される）。
func parsePagination(limitStr, offsetStr string) (limit, offset int) {
	if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(offsetStr); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
