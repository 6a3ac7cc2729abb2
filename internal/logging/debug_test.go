package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTopics(t *testing.T) {
	got := parseTopics(" RSI, scan ,,")
	assert.Equal(t, map[string]bool{"rsi": true, "scan": true}, got)

	assert.Equal(t, map[string]bool{"*": true}, parseTopics("all"))
	assert.Empty(t, parseTopics(""))
}

func TestTracer_Enabled(t *testing.T) {
	defer Configure("")

	Configure("rsi")
	assert.True(t, New("rsi").Enabled())
	assert.True(t, New("RSI").Enabled())
	assert.False(t, New("scan").Enabled())

	Configure("all")
	assert.True(t, New("anything").Enabled())

	Configure("")
	assert.False(t, New("rsi").Enabled())
}

func BenchmarkTracer_Disabled(b *testing.B) {
	Configure("")
	tr := New("bench")
	for i := 0; i < b.N; i++ {
		tr.Debug("value", "n", i)
	}
}
