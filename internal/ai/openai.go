package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// defaultEndpoint はOpenAIのchat completions APIのエンドポイント。
const defaultEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAIClient はOpenAI chat completions APIのクライアント。
// ストリーミング（SSE）と通常のリクエストの両方に対応する。
type OpenAIClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	model      string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewOpenAIClient はOpenAIClientの新しいインスタンスを生成する。
func NewOpenAIClient(httpClient *http.Client, logger *slog.Logger, apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		model:      model,
		endpoint:   defaultEndpoint,
	}
}

// chatRequest はchat completions APIのリクエストボディ。
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse は非ストリーミングのレスポンスボディ。
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// streamChunk はSSEの1チャンク分のレスポンス。
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Complete はchat completionを実行し、応答テキストを返す。
func (c *OpenAIClient) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	resp, err := c.send(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("OpenAI APIの応答にchoicesが含まれていません")
	}
	return result.Choices[0].Message.Content, nil
}

// StreamComplete はchat completionをストリーミングで実行し、
// 差分テキストが届くたびにonDeltaを呼び出す。
// onDeltaがエラーを返した場合（クライアント切断等）はストリームを中断する。
func (c *OpenAIClient) StreamComplete(ctx context.Context, system, user string, maxTokens int, temperature float64, onDelta func(delta string) error) error {
	resp, err := c.send(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream:      true,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Warn("ストリームチャンクのパースに失敗しました",
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if err := onDelta(chunk.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("ストリームの読み取りに失敗しました: %w", err)
	}
	return nil
}

// send はリクエストを組み立てて実行し、ステータスを確認する。
func (c *OpenAIClient) send(ctx context.Context, reqBody chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("OpenAI APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("OpenAI APIの呼び出しに失敗しました: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		c.logger.Error("OpenAI APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, fmt.Errorf("OpenAI APIがステータス %d を返しました", resp.StatusCode)
	}
	return resp, nil
}
