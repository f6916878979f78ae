package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "error", want: ERROR},
		{in: "WARN", want: WARN},
		{in: "info", want: INFO},
		{in: "Debug", want: DEBUG},
		{in: "verbose", want: INFO, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	core, logs := observer.New(WARN.zapLevel())
	l := FromZap(zap.New(core))

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("warn %d", 3)
	l.With("url", "http://example.com").Errorf("error %d", 4)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel || entries[0].Message != "warn 3" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[1].Level != zapcore.ErrorLevel || entries[1].ContextMap()["url"] != "http://example.com" {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}
}

func TestNew(t *testing.T) {
	for _, pretty := range []bool{true, false} {
		l := New(DEBUG, pretty)
		if !l.sugared.Desugar().Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("Expected debug entries to be enabled, pretty=%v", pretty)
		}
		l.Debugf("logger built, pretty=%v", pretty)
	}
}
