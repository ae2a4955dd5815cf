package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rewards_ledger/model"
)

// TelegramNotifier pushes formatted messages to the administrator's chat via
// the bot sendMessage API. Delivery is best-effort; callers treat failures as
// log-only and never roll back state on them.
type TelegramNotifier struct {
	apiBase string
	token   string
	chatID  string
	client  *http.Client
	log     *zap.Logger
}

func NewTelegramNotifier(apiBase, token, chatID string, log *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		apiBase: apiBase,
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     log,
	}
}

func (n *TelegramNotifier) WithdrawalRequested(ctx context.Context, req *model.WithdrawalRequest) error {
	text := fmt.Sprintf(
		"💸 *Withdrawal Request*\n\n👤 *User:* @%s (ID: %s)\n💰 *Amount:* $%s\n\n_Please process this request._",
		req.Username, req.UserID, req.Amount.StringFixed(2))
	return n.send(ctx, text)
}

func (n *TelegramNotifier) WithdrawalDecided(ctx context.Context, req *model.WithdrawalRequest) error {
	var text string
	switch req.Status {
	case model.StatusApproved:
		text = fmt.Sprintf("✅ *Withdrawal Approved*\n\n👤 *User:* @%s (ID: %s)\n💰 *Amount:* $%s",
			req.Username, req.UserID, req.Amount.StringFixed(2))
	case model.StatusRejected:
		text = fmt.Sprintf("❌ *Withdrawal Rejected*\n\n👤 *User:* @%s (ID: %s)\n💰 *Amount:* $%s (refunded)",
			req.Username, req.UserID, req.Amount.StringFixed(2))
	default:
		return fmt.Errorf("request %d is not settled", req.ID)
	}
	return n.send(ctx, text)
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("telegram response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram rejected message: %s", result.Description)
	}
	n.log.Debug("admin notification sent", zap.String("chat_id", n.chatID))
	return nil
}
