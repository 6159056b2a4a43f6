package main

import (
	"context"
	"testing"

	appconfig "github.com/carelane/hospital-platform/internal/config"
	"github.com/carelane/hospital-platform/pkg/logging"
)

func TestBuildRedisClientEmptyAddrReturnsNil(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{}
	if client := buildRedisClient(context.Background(), cfg, logger); client != nil {
		t.Fatalf("expected nil client when REDIS_ADDR is unset")
	}
}

func TestBuildRedisClientUnreachableReturnsNil(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{RedisAddr: "127.0.0.1:1"}
	if client := buildRedisClient(context.Background(), cfg, logger); client != nil {
		t.Fatalf("expected nil client when redis is unreachable")
	}
}
