package main

import (
	"context"
	"testing"

	"marketplace-gateway/internal/config"

	"go.uber.org/zap"
)

func TestRunSeedsMemoryStorage(t *testing.T) {
	cfg := config.Config{StoreDriver: config.DriverMemory}
	if err := run(context.Background(), cfg, zap.NewNop()); err != nil {
		t.Fatalf("seed memory storage: %v", err)
	}
}

func TestRunReturnsStorageError(t *testing.T) {
	if err := run(context.Background(), config.Config{StoreDriver: "nope"}, zap.NewNop()); err == nil {
		t.Fatal("expected unknown driver to fail")
	}
}
