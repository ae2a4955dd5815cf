package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rewards_ledger/model"
)

func testRequest() *model.WithdrawalRequest {
	return &model.WithdrawalRequest{
		ID:        1700000000000,
		Username:  "alice",
		UserID:    "123456789",
		Amount:    decimal.RequireFromString("5.00"),
		Timestamp: time.Now().UTC(),
		Status:    model.StatusPending,
	}
}

func TestWithdrawalRequestedSendsMessage(t *testing.T) {
	var captured sendMessageRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(sendMessageResponse{OK: true})
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL, "test-token", "42", zap.NewNop())
	require.NoError(t, n.WithdrawalRequested(context.Background(), testRequest()))

	assert.Equal(t, "/bottest-token/sendMessage", path)
	assert.Equal(t, "42", captured.ChatID)
	assert.Equal(t, "Markdown", captured.ParseMode)
	assert.Contains(t, captured.Text, "Withdrawal Request")
	assert.Contains(t, captured.Text, "@alice (ID: 123456789)")
	assert.Contains(t, captured.Text, "$5.00")
}

func TestWithdrawalDecidedMessages(t *testing.T) {
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg sendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&msg)
		texts = append(texts, msg.Text)
		_ = json.NewEncoder(w).Encode(sendMessageResponse{OK: true})
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL, "t", "42", zap.NewNop())

	approved := testRequest()
	approved.Status = model.StatusApproved
	require.NoError(t, n.WithdrawalDecided(context.Background(), approved))

	rejected := testRequest()
	rejected.Status = model.StatusRejected
	require.NoError(t, n.WithdrawalDecided(context.Background(), rejected))

	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Approved")
	assert.Contains(t, texts[1], "Rejected")
	assert.Contains(t, texts[1], "refunded")

	pending := testRequest()
	assert.Error(t, n.WithdrawalDecided(context.Background(), pending),
		"a pending request has no decision to announce")
}

func TestSendRejectedByAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sendMessageResponse{OK: false, Description: "chat not found"})
	}))
	defer srv.Close()

	n := NewTelegramNotifier(srv.URL, "t", "42", zap.NewNop())
	err := n.WithdrawalRequested(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // deliberately dead

	n := NewTelegramNotifier(srv.URL, "t", "42", zap.NewNop())
	assert.Error(t, n.WithdrawalRequested(context.Background(), testRequest()))
}
