package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/abroadly/internal/middleware"
	"github.com/hitoshi/abroadly/internal/model"
	"github.com/hitoshi/abroadly/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	UpdateProfile(ctx context.Context, userID int64, update *model.ProfileUpdate) (*model.User, error)
	PublicProfile(ctx context.Context, userID int64) (*model.Reviewer, error)
	Reviews(ctx context.Context, userID int64) (*user.ReviewCollection, error)
	DeleteReview(ctx context.Context, userID int64, reviewType string, reviewID int64) error
	ListPrograms(ctx context.Context, userID int64) ([]model.ProgramWithRating, error)
	ListPlaces(ctx context.Context, userID int64) ([]model.PlaceWithRating, error)
	ListTrips(ctx context.Context, userID int64) ([]model.TripWithRating, error)
}

// UserHandler はプロフィールとユーザー投稿のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateProfileRequest struct {
	FirstName           *string  `json:"first_name"`
	LastName            *string  `json:"last_name"`
	Age                 *int     `json:"age"`
	Institution         *string  `json:"institution"`
	Majors              []string `json:"majors"`
	Minors              []string `json:"minors"`
	ProfileCompleted    *bool    `json:"profile_completed"`
	StudyAbroadStatus   *string  `json:"study_abroad_status"`
	ProgramName         *string  `json:"program_name"`
	ProgramCity         *string  `json:"program_city"`
	ProgramCountry      *string  `json:"program_country"`
	ProgramTerm         *string  `json:"program_term"`
	OnboardingCompleted *bool    `json:"onboarding_completed"`
}

// GetProfile は自分のプロフィールを返す。
// GET /auth/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(current))
}

// UpdateProfile はプロフィールを部分更新する。
// PUT /auth/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("リクエストボディの解析に失敗しました。"))
		return
	}

	if req.StudyAbroadStatus != nil {
		switch *req.StudyAbroadStatus {
		case model.StatusProspective, model.StatusCurrent, model.StatusFormer:
		default:
			middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("study_abroad_statusの値が不正です。"))
			return
		}
	}

	updated, err := h.service.UpdateProfile(r.Context(), current.ID, &model.ProfileUpdate{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Age:                 req.Age,
		Institution:         req.Institution,
		Majors:              req.Majors,
		Minors:              req.Minors,
		ProfileCompleted:    req.ProfileCompleted,
		StudyAbroadStatus:   req.StudyAbroadStatus,
		ProgramName:         req.ProgramName,
		ProgramCity:         req.ProgramCity,
		ProgramCountry:      req.ProgramCountry,
		ProgramTerm:         req.ProgramTerm,
		OnboardingCompleted: req.OnboardingCompleted,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// PublicProfile は他のユーザーの公開プロフィールを返す。
// メールアドレスと年齢は含まない。
// GET /auth/users/{id}/profile
func (h *UserHandler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	profile, err := h.service.PublicProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewerResponse(profile))
}

// userReviewsResponse はユーザーの全レビューのAPIレスポンス。
type userReviewsResponse struct {
	ProgramReviews []reviewResponse        `json:"program_reviews"`
	CourseReviews  []courseReviewResponse  `json:"course_reviews"`
	HousingReviews []housingReviewResponse `json:"housing_reviews"`
	PlaceReviews   []reviewResponse        `json:"place_reviews"`
	TripReviews    []reviewResponse        `json:"trip_reviews"`
}

func toUserReviewsResponse(c *user.ReviewCollection) userReviewsResponse {
	resp := userReviewsResponse{
		ProgramReviews: make([]reviewResponse, 0, len(c.ProgramReviews)),
		CourseReviews:  make([]courseReviewResponse, 0, len(c.CourseReviews)),
		HousingReviews: make([]housingReviewResponse, 0, len(c.HousingReviews)),
		PlaceReviews:   make([]reviewResponse, 0, len(c.PlaceReviews)),
		TripReviews:    make([]reviewResponse, 0, len(c.TripReviews)),
	}
	for _, rv := range c.ProgramReviews {
		resp.ProgramReviews = append(resp.ProgramReviews, reviewResponse{
			ID: rv.ID, UserID: rv.UserID, ItemID: rv.ProgramID,
			Rating: rv.Rating, ReviewText: rv.ReviewText, Date: rv.Date,
		})
	}
	for _, rv := range c.CourseReviews {
		resp.CourseReviews = append(resp.CourseReviews, courseReviewResponse{
			ID: rv.ID, UserID: rv.UserID, ProgramID: rv.ProgramID,
			CourseName: rv.CourseName, InstructorName: rv.InstructorName,
			Rating: rv.Rating, ReviewText: rv.ReviewText, Date: rv.Date,
		})
	}
	for _, rv := range c.HousingReviews {
		resp.HousingReviews = append(resp.HousingReviews, housingReviewResponse{
			ID: rv.ID, UserID: rv.UserID, ProgramID: rv.ProgramID,
			HousingDescription: rv.HousingDescription,
			Rating:             rv.Rating, ReviewText: rv.ReviewText, Date: rv.Date,
		})
	}
	for _, rv := range c.PlaceReviews {
		resp.PlaceReviews = append(resp.PlaceReviews, reviewResponse{
			ID: rv.ID, UserID: rv.UserID, ItemID: rv.PlaceID,
			Rating: rv.Rating, ReviewText: rv.ReviewText, Date: rv.Date,
		})
	}
	for _, rv := range c.TripReviews {
		resp.TripReviews = append(resp.TripReviews, reviewResponse{
			ID: rv.ID, UserID: rv.UserID, ItemID: rv.TripID,
			Rating: rv.Rating, ReviewText: rv.ReviewText, Date: rv.Date,
		})
	}
	return resp
}

// UserReviews は指定ユーザーが投稿した全レビューを返す。
// GET /auth/users/{id}/reviews
func (h *UserHandler) UserReviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	reviews, err := h.service.Reviews(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserReviewsResponse(reviews))
}

// MyReviews は自分が投稿した全レビューを返す。
// GET /auth/my-reviews
func (h *UserHandler) MyReviews(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	reviews, err := h.service.Reviews(r.Context(), current.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserReviewsResponse(reviews))
}

// DeleteMyReview は自分が投稿したレビューを削除する。
// DELETE /auth/my-reviews/{type}/{id}
func (h *UserHandler) DeleteMyReview(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	reviewType := chi.URLParam(r, "type")
	reviewID, ok := parseIDParam(r, "id")
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewReviewNotFoundError())
		return
	}

	if err := h.service.DeleteReview(r.Context(), current.ID, reviewType, reviewID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// MyPrograms は自分が投稿したプログラム一覧を返す。
// GET /auth/my-programs
func (h *UserHandler) MyPrograms(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, toProgramResponses(programs))
}

// MyPlaces は自分が投稿したスポット一覧を返す。
// GET /auth/my-places
func (h *UserHandler) MyPlaces(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, toPlaceResponses(places))
}

// MyTrips は自分が投稿した旅行一覧を返す。
// GET /auth/my-trips
func (h *UserHandler) MyTrips(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, toTripResponses(trips))
}
