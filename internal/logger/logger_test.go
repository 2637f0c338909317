package logger

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input       string
		expected    LogLevel
		expectError bool
	}{
		{input: "debug", expected: DebugLevel},
		{input: "DEBUG", expected: DebugLevel},
		{input: "info", expected: InfoLevel},
		{input: "warn", expected: WarnLevel},
		{input: "warning", expected: WarnLevel},
		{input: "error", expected: ErrorLevel},
		{input: "invalid", expected: InfoLevel, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseLogLevel(tt.input)
			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected %s but got %s", tt.expected, result)
			}
		})
	}
}

func TestSetupContext(t *testing.T) {
	ctx, err := SetupContext(context.Background(), DebugLevel)
	if err != nil {
		t.Fatalf("Failed to setup context: %v", err)
	}

	logger := FromContext(ctx)
	if logger == nil {
		t.Fatal("Expected logger to be available in context")
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug level to be enabled")
	}
}

func TestFromContextFallback(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil {
		t.Fatal("Expected fallback logger to be created")
	}

	// should log without panic
	logger.Info("test message")
}
