package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessagePrefixes(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(string) string
		prefix string
	}{
		{"Success", Success, "✓"},
		{"Warn", Warn, "⚠"},
		{"Err", Err, "✗"},
		{"Info", Info, "ℹ"},
		{"Hint", Hint, "💡"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.fn("transfer confirmed")
			assert.Contains(t, out, tt.prefix)
			assert.Contains(t, out, "transfer confirmed")
		})
	}
}

func TestInfoDifferentFromHint(t *testing.T) {
	assert.NotEqual(t, Info("message"), Hint("message"))
}

func TestFormattersKeepText(t *testing.T) {
	for name, fn := range map[string]func(string) string{
		"Addr":      Addr,
		"Val":       Val,
		"Meta":      Meta,
		"TokenName": TokenName,
	} {
		assert.Contains(t, fn("Theodores"), "Theodores", name)
	}
}

func TestTruncateAddr(t *testing.T) {
	assert.Equal(t, "", TruncateAddr(""))
	assert.Equal(t, "0x1234", TruncateAddr("0x1234"))
	assert.Equal(t, "0x12345678", TruncateAddr("0x12345678"))
	assert.Equal(t, "0x3Bc9…62bB", TruncateAddr("0x3Bc99db296a6317A4DDC3a9B31d315bb261d62bB"))
}

func TestBannerNonEmpty(t *testing.T) {
	assert.Contains(t, Banner(), "nine actions")
}
