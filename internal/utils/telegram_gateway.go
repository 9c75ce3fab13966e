package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// GatewayClient - клиент шлюза аутентификации Telegram (sidecar на
// Telethon/Pyrogram). Все вызовы с таймаутом: зависший внешний вызов не
// должен вешать батч.
type GatewayClient struct {
	BaseURL string
	APIKey  string
	DryRun  bool // dry-run режим: без HTTP-запросов
	client  *http.Client
}

// GatewayError - структурированная ошибка внешнего сервиса.
type GatewayError struct {
	Op      string
	Reason  string
	Timeout bool
}

func (e *GatewayError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("telegram gateway %s: timeout", e.Op)
	}
	return fmt.Sprintf("telegram gateway %s: %s", e.Op, e.Reason)
}

type SendCodeResult struct {
	PhoneCodeHash string `json:"phone_code_hash"`
	SessionString string `json:"session_string"`
}

type VerifyCodeResult struct {
	Requires2FA   bool   `json:"requires_2fa"`
	SessionString string `json:"session_string"`
	UserID        string `json:"user_id"`
}

type SecondFactorResult struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id"`
	Reason string `json:"reason"` // "no second factor set", "second factor invalid"
}

type SessionsResult struct {
	TotalCount int `json:"total_count"`
}

type TerminateResult struct {
	TerminatedCount int `json:"terminated_count"`
}

func NewGatewayClient(baseURL, apiKey string, timeout time.Duration, dryRun bool) *GatewayClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GatewayClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		DryRun:  dryRun,
		client:  &http.Client{Timeout: timeout},
	}
}

type gatewayResp struct {
	Ok     bool            `json:"ok"`
	Error  string          `json:"error"`
	Result json.RawMessage `json:"result"`
}

func (c *GatewayClient) call(ctx context.Context, op, path string, body map[string]any, out any) error {
	body["api_key"] = c.APIKey
	b, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return &GatewayError{Op: op, Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		var ne interface{ Timeout() bool }
		timeout := errors.As(err, &ne) && ne.Timeout() || errors.Is(err, context.DeadlineExceeded)
		log.Printf("[tg-gw][%s][err] http: %v", op, err)
		return &GatewayError{Op: op, Reason: err.Error(), Timeout: timeout}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var api gatewayResp
	if err := json.Unmarshal(respBody, &api); err != nil {
		return &GatewayError{Op: op, Reason: "bad response: " + err.Error()}
	}
	if resp.StatusCode != http.StatusOK || !api.Ok {
		log.Printf("[tg-gw][%s] status=%d error=%s", op, resp.StatusCode, api.Error)
		return &GatewayError{Op: op, Reason: api.Error}
	}
	if out != nil && len(api.Result) > 0 {
		if err := json.Unmarshal(api.Result, out); err != nil {
			return &GatewayError{Op: op, Reason: "bad result: " + err.Error()}
		}
	}
	return nil
}

// SendCode - отправить OTP на номер.
func (c *GatewayClient) SendCode(ctx context.Context, phone string) (*SendCodeResult, error) {
	if c.DryRun {
		log.Printf("[tg-gw][dry-run] send-code phone=%s", phone)
		return &SendCodeResult{PhoneCodeHash: "dry-hash", SessionString: "dry-session"}, nil
	}
	var res SendCodeResult
	if err := c.call(ctx, "send-code", "/send-code", map[string]any{"phone": phone}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// VerifyCode - проверить OTP. requires_2fa=true означает, что код верный,
// но у аккаунта включён второй фактор.
func (c *GatewayClient) VerifyCode(ctx context.Context, phone, phoneCodeHash, code, session string) (*VerifyCodeResult, error) {
	if c.DryRun {
		log.Printf("[tg-gw][dry-run] verify-code phone=%s code=%s", phone, code)
		return &VerifyCodeResult{SessionString: "dry-session", UserID: "dry-user"}, nil
	}
	var res VerifyCodeResult
	err := c.call(ctx, "verify-code", "/verify-code", map[string]any{
		"phone":           phone,
		"phone_code_hash": phoneCodeHash,
		"code":            code,
		"session_string":  session,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// VerifySecondFactor - проверить пароль второго фактора.
func (c *GatewayClient) VerifySecondFactor(ctx context.Context, phone, session, password string) (*SecondFactorResult, error) {
	if c.DryRun {
		log.Printf("[tg-gw][dry-run] verify-2fa phone=%s", phone)
		return &SecondFactorResult{Valid: true, UserID: "dry-user"}, nil
	}
	var res SecondFactorResult
	err := c.call(ctx, "verify-2fa", "/verify-2fa", map[string]any{
		"phone":          phone,
		"session_string": session,
		"password":       password,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SetPassword - установить/сменить пароль на внешнем аккаунте.
func (c *GatewayClient) SetPassword(ctx context.Context, session, newPassword, oldPassword string) error {
	if c.DryRun {
		log.Printf("[tg-gw][dry-run] set-password")
		return nil
	}
	return c.call(ctx, "set-password", "/set-password", map[string]any{
		"session_string": session,
		"new_password":   newPassword,
		"old_password":   oldPassword,
	}, nil)
}

// ListSessions - количество активных сессий (устройств) на аккаунте.
func (c *GatewayClient) ListSessions(ctx context.Context, session string) (int, error) {
	if c.DryRun {
		log.Printf("[tg-gw][dry-run] list-sessions")
		return 1, nil
	}
	var res SessionsResult
	if err := c.call(ctx, "list-sessions", "/list-sessions", map[string]any{"session_string": session}, &res); err != nil {
		return 0, err
	}
	return res.TotalCount, nil
}

// TerminateOtherSessions - разлогинить все устройства кроме нашего.
func (c *GatewayClient) TerminateOtherSessions(ctx context.Context, session string) (int, error) {
	if c.DryRun {
		log.Printf("[tg-gw][dry-run] terminate-sessions")
		return 0, nil
	}
	var res TerminateResult
	if err := c.call(ctx, "terminate-sessions", "/terminate-sessions", map[string]any{"session_string": session}, &res); err != nil {
		return 0, err
	}
	return res.TerminatedCount, nil
}
