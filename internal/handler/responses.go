// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/abroadly/internal/middleware"
	"github.com/hitoshi/abroadly/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID                  int64     `json:"id"`
	Email               string    `json:"email"`
	CreatedAt           time.Time `json:"created_at"`
	FirstName           *string   `json:"first_name"`
	LastName            *string   `json:"last_name"`
	Age                 *int      `json:"age"`
	Institution         *string   `json:"institution"`
	Majors              []string  `json:"majors"`
	Minors              []string  `json:"minors"`
	ProfileCompleted    bool      `json:"profile_completed"`
	StudyAbroadStatus   *string   `json:"study_abroad_status"`
	ProgramName         *string   `json:"program_name"`
	ProgramCity         *string   `json:"program_city"`
	ProgramCountry      *string   `json:"program_country"`
	ProgramTerm         *string   `json:"program_term"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:                  u.ID,
		Email:               u.Email,
		CreatedAt:           u.CreatedAt,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Age:                 u.Age,
		Institution:         u.Institution,
		Majors:              u.Majors,
		Minors:              u.Minors,
		ProfileCompleted:    u.ProfileCompleted,
		StudyAbroadStatus:   u.StudyAbroadStatus,
		ProgramName:         u.ProgramName,
		ProgramCity:         u.ProgramCity,
		ProgramCountry:      u.ProgramCountry,
		ProgramTerm:         u.ProgramTerm,
		OnboardingCompleted: u.OnboardingCompleted,
	}
}

// reviewerResponse はレビュー投稿者の公開プロフィール。メールアドレスと年齢は含まない。
type reviewerResponse struct {
	ID                int64   `json:"id"`
	FirstName         *string `json:"first_name"`
	LastName          *string `json:"last_name"`
	Institution       *string `json:"institution"`
	StudyAbroadStatus *string `json:"study_abroad_status"`
	ProgramName       *string `json:"program_name"`
	ProgramCity       *string `json:"program_city"`
	ProgramCountry    *string `json:"program_country"`
	ProgramTerm       *string `json:"program_term"`
}

func toReviewerResponse(r *model.Reviewer) *reviewerResponse {
	if r == nil {
		return nil
	}
	return &reviewerResponse{
		ID:                r.ID,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Institution:       r.Institution,
		StudyAbroadStatus: r.StudyAbroadStatus,
		ProgramName:       r.ProgramName,
		ProgramCity:       r.ProgramCity,
		ProgramCountry:    r.ProgramCountry,
		ProgramTerm:       r.ProgramTerm,
	}
}

// programResponse はプログラム情報のAPIレスポンス。評価サマリを含む。
type programResponse struct {
	ID            int64     `json:"id"`
	UserID        *int64    `json:"user_id"`
	ProgramName   string    `json:"program_name"`
	Institution   string    `json:"institution"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Cost          *float64  `json:"cost"`
	HousingType   *string   `json:"housing_type"`
	Location      *string   `json:"location"`
	Duration      *string   `json:"duration"`
	Description   *string   `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	AverageRating *float64  `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
}

func toProgramResponse(p *model.ProgramWithRating) programResponse {
	return programResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		ProgramName:   p.ProgramName,
		Institution:   p.Institution,
		City:          p.City,
		Country:       p.Country,
		Cost:          p.Cost,
		HousingType:   p.HousingType,
		Location:      p.Location,
		Duration:      p.Duration,
		Description:   p.Description,
		CreatedAt:     p.CreatedAt,
		AverageRating: p.AverageRating,
		ReviewCount:   p.ReviewCount,
	}
}

func toProgramResponses(programs []model.ProgramWithRating) []programResponse {
	out := make([]programResponse, 0, len(programs))
	for i := range programs {
		out = append(out, toProgramResponse(&programs[i]))
	}
	return out
}

// placeResponse はスポット情報のAPIレスポンス。評価サマリを含む。
type placeResponse struct {
	ID            int64     `json:"id"`
	UserID        *int64    `json:"user_id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	Address       *string   `json:"address"`
	Description   *string   `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	AverageRating *float64  `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
}

func toPlaceResponse(p *model.PlaceWithRating) placeResponse {
	return placeResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		Name:          p.Name,
		Category:      p.Category,
		City:          p.City,
		Country:       p.Country,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		Address:       p.Address,
		Description:   p.Description,
		CreatedAt:     p.CreatedAt,
		AverageRating: p.AverageRating,
		ReviewCount:   p.ReviewCount,
	}
}

func toPlaceResponses(places []model.PlaceWithRating) []placeResponse {
	out := make([]placeResponse, 0, len(places))
	for i := range places {
		out = append(out, toPlaceResponse(&places[i]))
	}
	return out
}

// tripResponse は旅行情報のAPIレスポンス。評価サマリを含む。
type tripResponse struct {
	ID            int64     `json:"id"`
	UserID        *int64    `json:"user_id"`
	Destination   string    `json:"destination"`
	Country       string    `json:"country"`
	Description   *string   `json:"description"`
	TripType      *string   `json:"trip_type"`
	CreatedAt     time.Time `json:"created_at"`
	AverageRating *float64  `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
}

func toTripResponse(t *model.TripWithRating) tripResponse {
	return tripResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		Destination:   t.Destination,
		Country:       t.Country,
		Description:   t.Description,
		TripType:      t.TripType,
		CreatedAt:     t.CreatedAt,
		AverageRating: t.AverageRating,
		ReviewCount:   t.ReviewCount,
	}
}

func toTripResponses(trips []model.TripWithRating) []tripResponse {
	out := make([]tripResponse, 0, len(trips))
	for i := range trips {
		out = append(out, toTripResponse(&trips[i]))
	}
	return out
}

// reviewResponse はプログラム・スポット・旅行共通の星評価レビューレスポンス。
type reviewResponse struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"user_id"`
	ItemID     int64             `json:"item_id"`
	Rating     int               `json:"rating"`
	ReviewText string            `json:"review_text"`
	Date       time.Time         `json:"date"`
	Reviewer   *reviewerResponse `json:"reviewer,omitempty"`
}

// courseReviewResponse は授業レビューのAPIレスポンス。
type courseReviewResponse struct {
	ID             int64             `json:"id"`
	UserID         int64             `json:"user_id"`
	ProgramID      int64             `json:"program_id"`
	CourseName     string            `json:"course_name"`
	InstructorName *string           `json:"instructor_name"`
	Rating         int               `json:"rating"`
	ReviewText     string            `json:"review_text"`
	Date           time.Time         `json:"date"`
	Reviewer       *reviewerResponse `json:"reviewer,omitempty"`
}

// housingReviewResponse は住居レビューのAPIレスポンス。
type housingReviewResponse struct {
	ID                 int64             `json:"id"`
	UserID             int64             `json:"user_id"`
	ProgramID          int64             `json:"program_id"`
	HousingDescription string            `json:"housing_description"`
	Rating             int               `json:"rating"`
	ReviewText         string            `json:"review_text"`
	Date               time.Time         `json:"date"`
	Reviewer           *reviewerResponse `json:"reviewer,omitempty"`
}

// messageResponse はメッセージのAPIレスポンス。送受信者と関連アイテムの表示名を含む。
type messageResponse struct {
	ID                 int64     `json:"id"`
	SenderID           int64     `json:"sender_id"`
	RecipientID        int64     `json:"recipient_id"`
	Subject            string    `json:"subject"`
	Content            string    `json:"content"`
	Read               bool      `json:"read"`
	CreatedAt          time.Time `json:"created_at"`
	RelatedProgramID   *int64    `json:"related_program_id"`
	RelatedPlaceID     *int64    `json:"related_place_id"`
	RelatedTripID      *int64    `json:"related_trip_id"`
	ParentMessageID    *int64    `json:"parent_message_id"`
	SenderName         *string   `json:"sender_name"`
	SenderEmail        string    `json:"sender_email"`
	RecipientName      *string   `json:"recipient_name"`
	RecipientEmail     string    `json:"recipient_email"`
	RelatedProgramName *string   `json:"related_program_name"`
	RelatedPlaceName   *string   `json:"related_place_name"`
	RelatedTripName    *string   `json:"related_trip_name"`
}

func toMessageResponse(m *model.MessageDetail) messageResponse {
	return messageResponse{
		ID:                 m.ID,
		SenderID:           m.SenderID,
		RecipientID:        m.RecipientID,
		Subject:            m.Subject,
		Content:            m.Content,
		Read:               m.Read,
		CreatedAt:          m.CreatedAt,
		RelatedProgramID:   m.RelatedProgramID,
		RelatedPlaceID:     m.RelatedPlaceID,
		RelatedTripID:      m.RelatedTripID,
		ParentMessageID:    m.ParentMessageID,
		SenderName:         m.SenderName,
		SenderEmail:        m.SenderEmail,
		RecipientName:      m.RecipientName,
		RecipientEmail:     m.RecipientEmail,
		RelatedProgramName: m.RelatedProgramName,
		RelatedPlaceName:   m.RelatedPlaceName,
		RelatedTripName:    m.RelatedTripName,
	}
}

func toMessageResponses(messages []model.MessageDetail) []messageResponse {
	out := make([]messageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, toMessageResponse(&messages[i]))
	}
	return out
}

// --- 共通ヘルパー ---

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// parseIDParam はURLパラメータをint64のIDとして解析する。
func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// handleServiceError はサービス層から返されたエラーをHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	middleware.WriteServiceError(w, slog.Default(), err)
}

// invalidRequestError はリクエスト形式不正の統一エラーを生成する。
func invalidRequestError(message string) *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  message,
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}
