package logger

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		opts    Options
		wantErr string
		enabled zapcore.Level
	}{
		{name: "prod", env: "prod", enabled: zapcore.InfoLevel},
		{name: "local", env: "local", enabled: zapcore.DebugLevel},
		{name: "level override", env: "prod", opts: Options{Level: "warn"}, enabled: zapcore.WarnLevel},
		{name: "json on local", env: "local", opts: Options{Format: FormatJSON}, enabled: zapcore.DebugLevel},
		{name: "unknown env", env: "staging", wantErr: "unknown environment"},
		{name: "bad level", env: "prod", opts: Options{Level: "loud"}, wantErr: "invalid log level"},
		{name: "bad format", env: "prod", opts: Options{Format: "xml"}, wantErr: "invalid log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.env, tt.opts)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !l.Core().Enabled(tt.enabled) {
				t.Errorf("level %s should be enabled", tt.enabled)
			}
			if tt.enabled > zapcore.DebugLevel && l.Core().Enabled(tt.enabled-1) {
				t.Errorf("level %s should be disabled", tt.enabled-1)
			}
		})
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected nop logger, got nil")
	}

	core, logs := observer.New(zap.InfoLevel)
	ctx, l := Attach(context.Background(), zap.New(core), zap.String("request_id", "r-1"))
	if FromContext(ctx) != l {
		t.Error("FromContext must return the attached logger")
	}

	FromContext(ctx).Info("hello")
	entries := logs.All()
	if len(entries) != 1 || entries[0].ContextMap()["request_id"] != "r-1" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}
