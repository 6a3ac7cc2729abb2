package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Tracer emits debug records for one topic when that topic is switched on
// through DEBUG_TOPICS (comma separated, "all" for everything).
type Tracer struct {
	topic string
}

var (
	mu     sync.RWMutex
	topics map[string]bool
)

func init() {
	Configure(os.Getenv("DEBUG_TOPICS"))
}

// Configure replaces the enabled topic set. An empty list disables tracing.
func Configure(list string) {
	parsed := parseTopics(list)

	mu.Lock()
	topics = parsed
	mu.Unlock()

	if len(parsed) > 0 {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		slog.SetDefault(slog.New(handler))
	}
}

func parseTopics(list string) map[string]bool {
	out := make(map[string]bool)
	for _, t := range strings.Split(list, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		switch t {
		case "":
		case "all", "*":
			out["*"] = true
		default:
			out[t] = true
		}
	}
	return out
}

// New returns a tracer for topic, e.g. logging.New("rsi").
func New(topic string) *Tracer {
	return &Tracer{topic: strings.ToLower(topic)}
}

// Enabled reports whether the tracer's topic is on. Checked on every call so
// Configure takes effect for tracers created at package init.
func (t *Tracer) Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return topics["*"] || topics[t.topic]
}

// Debug logs msg with key/value args when the topic is enabled.
func (t *Tracer) Debug(msg string, args ...any) {
	if !t.Enabled() {
		return
	}
	slog.Debug(msg, append([]any{"topic", t.topic}, args...)...)
}
