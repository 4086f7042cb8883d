package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		want  zapcore.Level
		valid bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{" WARN ", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"", zapcore.InfoLevel, false},
		{"loud", zapcore.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lvl, ok := parseLevel(tt.in)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, lvl)
		})
	}
}

func TestSetLevel(t *testing.T) {
	original := GetLogger().level.Level()
	defer GetLogger().level.SetLevel(original)

	SetLevel("error")
	assert.Equal(t, zapcore.ErrorLevel, GetLogger().level.Level())

	SetLevel("nonsense")
	assert.Equal(t, zapcore.ErrorLevel, GetLogger().level.Level())
}
