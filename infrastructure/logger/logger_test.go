package logger_test

import (
	"context"
	"testing"

	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Formats(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"json", "console", ""} {
		log, err := logger.New(logger.Config{Level: "debug", Format: format, OutputPaths: []string{"stderr"}})
		if err != nil {
			t.Fatalf("New(format=%q) error = %v", format, err)
		}
		log.Debug("probe", logger.String("format", format))
	}
}

func TestWith_AttachesFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	log := logger.NewFromZap(zap.New(core)).With(logger.String("content_id", "abc"))

	log.Info("evaluated", logger.Int("score", 91))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["content_id"] != "abc" {
		t.Errorf("content_id = %v, want abc", ctx["content_id"])
	}
	if ctx["score"] != int64(91) {
		t.Errorf("score = %v, want 91", ctx["score"])
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	fallback := logger.NewNop()
	if got := logger.FromContext(context.Background(), fallback); got != fallback {
		t.Error("expected fallback logger for empty context")
	}

	core, logs := observer.New(zapcore.InfoLevel)
	stored := logger.NewFromZap(zap.New(core))
	ctx := logger.WithContext(context.Background(), stored)
	logger.FromContext(ctx, fallback).Info("hello")

	if logs.Len() != 1 {
		t.Errorf("stored logger received %d entries, want 1", logs.Len())
	}
}
