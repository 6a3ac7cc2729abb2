package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScanner/internal/model"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []map[string]string
	failures int32 // sendMessage calls to fail before succeeding
	updates  []telegramUpdate
	polled   int32
}

func (f *fakeBot) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&f.failures, -1) >= 0 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"description":"Too Many Requests"}`))
			return
		}
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.sent = append(f.sent, body)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var updates []telegramUpdate
		if atomic.AddInt32(&f.polled, 1) == 1 {
			updates = f.updates
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": updates})
	})
	return mux
}

func (f *fakeBot) messages() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.sent...)
}

func newTestNotifier(t *testing.T, bot *fakeBot) *TelegramNotifier {
	srv := httptest.NewServer(bot.handler(t))
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "42", srv.URL, "")
	n.Backoff = time.Millisecond
	return n
}

func TestTelegramNotifier_Send(t *testing.T) {
	bot := &fakeBot{}
	n := newTestNotifier(t, bot)

	require.NoError(t, n.Send(context.Background(), "<b>hi</b>"))
	msgs := bot.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "42", msgs[0]["chat_id"])
	assert.Equal(t, "HTML", msgs[0]["parse_mode"])
	assert.Equal(t, "<b>hi</b>", msgs[0]["text"])
}

func TestTelegramNotifier_SendTruncatesLongMessages(t *testing.T) {
	bot := &fakeBot{}
	n := newTestNotifier(t, bot)

	require.NoError(t, n.Send(context.Background(), strings.Repeat("x", 5000)))
	assert.Len(t, bot.messages()[0]["text"], telegramMaxMessage)
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	t.Run("recovers after transient failures", func(t *testing.T) {
		bot := &fakeBot{failures: 2}
		n := newTestNotifier(t, bot)
		require.NoError(t, n.SendWithRetry(context.Background(), "report", 3))
		assert.Len(t, bot.messages(), 1)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		bot := &fakeBot{failures: 10}
		n := newTestNotifier(t, bot)
		err := n.SendWithRetry(context.Background(), "report", 2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "all 3 retries exhausted")
		assert.Contains(t, err.Error(), "status 429")
	})
}

func TestTelegramNotifier_StartPolling(t *testing.T) {
	bot := &fakeBot{}
	bot.updates = []telegramUpdate{
		{UpdateID: 7, Message: &struct {
			Text string `json:"text"`
		}{Text: " /help "}},
		{UpdateID: 8},
	}
	n := newTestNotifier(t, bot)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var got []string
	go func() {
		defer close(done)
		n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			got = append(got, cmd)
			cancel()
			return "reply to " + cmd
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("polling did not stop")
	}
	assert.Equal(t, []string{"/help"}, got)
}

func TestFormatScanReport(t *testing.T) {
	at := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	results := []model.ScanResult{
		{Symbol: "NVDA", Price: 1150, ChangePct: 2.5, Score: 5, Rating: model.RatingStrongBuy,
			Reasons: []string{"Above SMA50", "MACD Bullish"}, StopLoss: null.FloatFrom(1100), Target: null.FloatFrom(1225)},
		{Symbol: "AMD", Price: 160, Score: 3, Rating: model.RatingBuy},
		{Symbol: "INTC", Price: 30, Score: 1, Rating: model.RatingNeutral},
	}

	msg := FormatScanReport("tech & chips", results, 2, at)
	assert.Contains(t, msg, "tech &amp; chips")
	assert.Contains(t, msg, "2024-06-03")
	assert.Contains(t, msg, "1. <b>NVDA</b> 1150.00 (+2.50%) score 5 · Strong Buy")
	assert.Contains(t, msg, "SL 1100.00 / TP 1225.00")
	assert.Contains(t, msg, "2. <b>AMD</b>")
	assert.NotContains(t, msg, "INTC")
	assert.Contains(t, msg, "and 1 more")

	assert.Contains(t, FormatScanReport("empty", nil, 5, at), "No symbols passed")
}

func TestFormatSignalAlert(t *testing.T) {
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, FormatSignalAlert("AAPL", 190, date, []model.SignalEvent{{Kind: model.SignalNone}}))

	msg := FormatSignalAlert("AAPL", 190, date, []model.SignalEvent{
		{Kind: model.SignalGoldenCross, Bias: model.BiasBullish, Description: "SMA50 > SMA200"},
	})
	assert.Contains(t, msg, "<b>AAPL</b> 190.00")
	assert.Contains(t, msg, "🟢 <b>GOLDEN_CROSS</b>: SMA50 &gt; SMA200")
}
