package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shaiso/Boostgram/internal/domain"
)

const defaultGatewayTimeout = 60 * time.Second

// GatewayConfig — конфигурация клиента account-gateway.
type GatewayConfig struct {
	// URL — адрес gateway-сервиса аккаунтов.
	URL string

	// Token — bearer-токен доступа.
	Token string

	// Timeout — таймаут одного вызова (default: 60s; действия
	// с резолвом целей бывают медленными).
	Timeout time.Duration
}

// Gateway — HTTP-клиент внешнего сервиса аккаунтов, реализует Pool.
//
// Gateway-сервис владеет протоколом аккаунтов и их эксклюзивностью;
// мы только арендуем аккаунт и шлём ему команды.
type Gateway struct {
	cfg    GatewayConfig
	httpc  *http.Client
	logger *slog.Logger
}

// NewGateway создаёт новый Gateway.
func NewGateway(cfg GatewayConfig, logger *slog.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGatewayTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Acquire арендует свободный аккаунт у gateway.
func (g *Gateway) Acquire(ctx context.Context) (Session, error) {
	var resp struct {
		AccountID int64 `json:"account_id"`
	}
	if err := g.call(ctx, "/v1/accounts/lease", map[string]any{}, &resp); err != nil {
		return nil, err
	}
	if resp.AccountID == 0 {
		return nil, ErrNoAccounts
	}
	return &gatewaySession{gw: g, accountID: resp.AccountID}, nil
}

// Release возвращает аккаунт в пул. Best-effort: просроченная аренда
// истечёт на стороне gateway сама.
func (g *Gateway) Release(ctx context.Context, s Session) {
	err := g.call(ctx, "/v1/accounts/release", map[string]any{
		"account_id": s.AccountID(),
	}, nil)
	if err != nil {
		g.logger.Debug("account release failed", "account_id", s.AccountID(), "error", err)
	}
}

// call выполняет POST к gateway и декодирует ответ.
func (g *Gateway) call(ctx context.Context, path string, body map[string]any, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	}

	resp, err := g.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gatewayError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}

// gatewayError переводит код ошибки gateway в sentinel-ошибки пакета.
func gatewayError(status int, body []byte) error {
	var payload struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	switch payload.Code {
	case "peer_not_found":
		return ErrPeerNotFound
	case "story_not_found":
		return ErrStoryNotFound
	case "flood_wait":
		return ErrFloodWait
	case "no_accounts":
		return ErrNoAccounts
	}

	if payload.Error != "" {
		return fmt.Errorf("gateway: %s", payload.Error)
	}
	return fmt.Errorf("gateway: HTTP %d", status)
}

// gatewaySession — аккаунт, арендованный у gateway.
type gatewaySession struct {
	gw        *Gateway
	accountID int64
}

func (s *gatewaySession) AccountID() int64 { return s.accountID }

// act шлёт команду действия арендованному аккаунту.
func (s *gatewaySession) act(ctx context.Context, kind string, fields map[string]any) error {
	body := map[string]any{
		"account_id": s.accountID,
		"kind":       kind,
	}
	for k, v := range fields {
		body[k] = v
	}
	return s.gw.call(ctx, "/v1/actions", body, nil)
}

func channelFields(ch ChannelRef) map[string]any {
	return map[string]any{
		"username":    ch.Username,
		"invite_hash": ch.InviteHash,
	}
}

func (s *gatewaySession) Subscribe(ctx context.Context, ch ChannelRef) error {
	return s.act(ctx, "subscribe", channelFields(ch))
}

func (s *gatewaySession) Leave(ctx context.Context, ch ChannelRef) error {
	return s.act(ctx, "leave", channelFields(ch))
}

func (s *gatewaySession) React(ctx context.Context, ch ChannelRef, postID int64, reaction string) error {
	fields := channelFields(ch)
	fields["post_id"] = postID
	fields["reaction"] = reaction
	return s.act(ctx, "react", fields)
}

func (s *gatewaySession) Comment(ctx context.Context, ch ChannelRef, postID int64, text string) error {
	fields := channelFields(ch)
	fields["post_id"] = postID
	fields["text"] = text
	return s.act(ctx, "comment", fields)
}

func (s *gatewaySession) View(ctx context.Context, ch ChannelRef, postID int64) error {
	fields := channelFields(ch)
	fields["post_id"] = postID
	return s.act(ctx, "view", fields)
}

func (s *gatewaySession) StartBot(ctx context.Context, username, start string) error {
	return s.act(ctx, "bot_start", map[string]any{
		"username": username,
		"start":    start,
	})
}

func (s *gatewaySession) ReactStory(ctx context.Context, username string, storyID int64, reaction string) error {
	return s.act(ctx, "story_react", map[string]any{
		"username": username,
		"story_id": storyID,
		"reaction": reaction,
	})
}

func (s *gatewaySession) UpdateProfile(ctx context.Context, p domain.ProfileUpdate) error {
	return s.act(ctx, "profile_update", map[string]any{
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"bio":        p.Bio,
		"avatar_url": p.AvatarURL,
	})
}
