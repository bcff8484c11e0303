// Package mail はResend APIを使用したメール送信機能を提供する。
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// defaultEndpoint はResendのメール送信APIのエンドポイント。
const defaultEndpoint = "https://api.resend.com/emails"

// Client はResend APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	from       string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// fromは送信元アドレス（例: "Abroadly <login@abroadly.app>"）。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey, from string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		from:       from,
		endpoint:   defaultEndpoint,
	}
}

// sendRequest はResendのメール送信APIのリクエストボディ。
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// SendMagicLink はログイン用マジックリンクをメールで送信する。
func (c *Client) SendMagicLink(ctx context.Context, to, magicURL string) error {
	reqBody := sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: "Sign in to Abroadly",
		HTML: fmt.Sprintf(
			`<p>Click the link below to sign in to Abroadly:</p>`+
				`<p><a href="%s">Sign in</a></p>`+
				`<p>This link expires in 15 minutes. If you didn't request it, you can ignore this email.</p>`,
			magicURL,
		),
		Text: fmt.Sprintf(
			"Click the link below to sign in to Abroadly:\n\n%s\n\n"+
				"This link expires in 15 minutes. If you didn't request it, you can ignore this email.",
			magicURL,
		),
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Resend APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("メールの送信に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// エラーボディは診断用途のみ。本文にトークンは含まれない
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("Resend APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return fmt.Errorf("Resend APIがステータス %d を返しました", resp.StatusCode)
	}

	return nil
}
