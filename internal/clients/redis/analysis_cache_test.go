package redis

import (
	"context"
	"testing"

	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

func TestNewAnalysisCacheWithoutAddrIsNoop(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	c, err := NewAnalysisCache(logger.Nop())
	if err != nil {
		t.Fatalf("NewAnalysisCache: %v", err)
	}
	if _, ok := c.(NoopAnalysisCache); !ok {
		t.Fatalf("cache type: want=NoopAnalysisCache got=%T", c)
	}
	if err := c.Set(context.Background(), "fp", []byte("{}")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, err := c.Get(context.Background(), "fp"); err != nil || hit {
		t.Fatalf("Get: want miss got hit=%v err=%v", hit, err)
	}
}

func TestAnalysisKey(t *testing.T) {
	if got := analysisKey("scorebridge", "abc"); got != "scorebridge:analysis:abc" {
		t.Fatalf("analysisKey: want=%q got=%q", "scorebridge:analysis:abc", got)
	}
}
