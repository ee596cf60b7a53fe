// Package logging provides categorized, structured logging for Ariadne's
// components, backed by zap. Categories mirror the components of the
// specification so log lines can be filtered per subsystem the way the
// teacher's file-per-category logger did, without the filesystem fan-out.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies the subsystem emitting a log line.
type Category string

const (
	CategoryStore       Category = "store"
	CategoryVector      Category = "vector"
	CategoryDualWrite   Category = "dualwrite"
	CategoryShadow      Category = "shadow"
	CategoryJobQueue    Category = "jobqueue"
	CategoryDepTrack    Category = "deptrack"
	CategorySummarizer  Category = "summarizer"
	CategoryIncremental Category = "incremental"
	CategoryImpact      Category = "impact"
	CategoryCallChain   Category = "callchain"
	CategoryRules       Category = "rules"
	CategoryIngest      Category = "ingest"
	CategoryAPI         Category = "api"
	CategoryEmbedding   Category = "embedding"
	CategoryLLM         Category = "llm"
)

var (
	mu      sync.RWMutex
	base    *zap.Logger = zap.NewNop()
	loggers             = make(map[Category]*zap.SugaredLogger)
)

// Init wires the package-level base logger. level is one of
// debug/info/warn/error; format is "json" or "text". Safe to call once at
// process startup; subsequent calls replace the base logger atomically.
func Init(level string, format string) error {
	zapLevel, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	var cfg zap.Config
	if strings.EqualFold(format, "text") {
		cfg = zap.NewDevelopmentConfig()
		cfg.Encoding = "console"
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("logging: build zap logger: %w", err)
	}

	mu.Lock()
	base = l
	loggers = make(map[Category]*zap.SugaredLogger)
	mu.Unlock()
	return nil
}

// Get returns the sugared logger for a category, tagging every line with
// the category name.
func Get(cat Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[cat]; ok {
		return l
	}
	l := base.With(zap.String("category", string(cat))).Sugar()
	loggers[cat] = l
	return l
}

// Timer measures and logs the duration of an operation at debug level on Stop.
type Timer struct {
	cat   Category
	op    string
	start time.Time
}

// StartTimer begins timing op within cat. Callers defer Stop().
func StartTimer(cat Category, op string) *Timer {
	return &Timer{cat: cat, op: op, start: time.Now()}
}

// Stop logs the elapsed duration since StartTimer.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	Get(t.cat).Debugw("operation complete", "op", t.op, "duration_ms", time.Since(t.start).Milliseconds())
}

// Sync flushes any buffered log entries; callers should invoke this on
// shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}
