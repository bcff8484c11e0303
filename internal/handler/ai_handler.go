package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/abroadly/internal/ai"
	"github.com/hitoshi/abroadly/internal/metrics"
	"github.com/hitoshi/abroadly/internal/middleware"
	"github.com/hitoshi/abroadly/internal/model"
)

// AIServiceInterface はAIハンドラーが必要とするサービスインターフェース。
type AIServiceInterface interface {
	PlanTrip(ctx context.Context, user *model.User, req ai.PlanRequest, onDelta func(delta string) error) error
	QuickSuggestion(ctx context.Context, user *model.User) (string, error)
}

// AIHandler はAI旅行プランナーのHTTPハンドラー。
type AIHandler struct {
	service   AIServiceInterface
	collector metrics.MetricsCollector
}

// NewAIHandler はAIHandlerを生成する。collectorはnil可。
func NewAIHandler(service AIServiceInterface, collector metrics.MetricsCollector) *AIHandler {
	return &AIHandler{service: service, collector: collector}
}

// planTripRequest は旅行プラン生成リクエストのボディ。全フィールド任意。
type planTripRequest struct {
	TravelStartDate string   `json:"travel_start_date"`
	TravelEndDate   string   `json:"travel_end_date"`
	Budget          string   `json:"budget"`
	TravelStyle     string   `json:"travel_style"`
	Priorities      []string `json:"priorities"`
	AdditionalNotes string   `json:"additional_notes"`
}

// PlanTrip は旅行プランの生成を処理する。
// プランはtext/plainのチャンクドレスポンスとして逐次送信される。
// ストリーミング開始前のエラー（未設定・ブックマークなし）はJSONで返す。
// POST /ai/plan-trip
func (h *AIHandler) PlanTrip(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req planTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestError("リクエストボディの解析に失敗しました。"))
		return
	}

	h.recordRequest("plan")

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.WriteInternalServerError(w)
		return
	}

	started := false
	err = h.service.PlanTrip(r.Context(), current, ai.PlanRequest{
		TravelStartDate: req.TravelStartDate,
		TravelEndDate:   req.TravelEndDate,
		Budget:          req.Budget,
		TravelStyle:     req.TravelStyle,
		Priorities:      req.Priorities,
		AdditionalNotes: req.AdditionalNotes,
	}, func(delta string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := w.Write([]byte(delta)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		h.recordFailure("plan")
		// ストリーミング開始後はステータスを変更できない
		if !started {
			handleServiceError(w, err)
		}
		return
	}

	if !started {
		// モデルが1トークンも返さなかった場合でも200で終える
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}

// QuickSuggestion はブックマーク状況に基づく短い提案を返す。
// POST /ai/quick-suggestion
func (h *AIHandler) QuickSuggestion(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	h.recordRequest("quick")

	suggestion, err := h.service.QuickSuggestion(r.Context(), current)
	if err != nil {
		h.recordFailure("quick")
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"suggestion": suggestion})
}

func (h *AIHandler) recordRequest(kind string) {
	if h.collector != nil {
		h.collector.RecordAIRequest(kind)
	}
}

func (h *AIHandler) recordFailure(kind string) {
	if h.collector != nil {
		h.collector.RecordAIFailure(kind)
	}
}
