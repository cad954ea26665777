package logger_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/e9kdbg/e9kdbg/logger"
)

func TestTail(t *testing.T) {
	log := logger.NewLogger(100)
	w := &strings.Builder{}

	log.Write(w)
	if w.String() != "" {
		t.Fatalf("expected empty log, got %q", w.String())
	}

	log.Log(logger.Allow, "test", "this is a test")
	log.Write(w)
	if w.String() != "test: this is a test\n" {
		t.Fatalf("got %q", w.String())
	}

	w.Reset()
	log.Log(logger.Allow, "test2", "this is another test")
	log.Write(w)
	if w.String() != "test: this is a test\ntest2: this is another test\n" {
		t.Fatalf("got %q", w.String())
	}

	w.Reset()
	log.Tail(w, 100)
	if w.String() != "test: this is a test\ntest2: this is another test\n" {
		t.Fatalf("got %q", w.String())
	}

	w.Reset()
	log.Tail(w, 1)
	if w.String() != "test2: this is another test\n" {
		t.Fatalf("got %q", w.String())
	}

	w.Reset()
	log.Tail(w, 0)
	if w.String() != "" {
		t.Fatalf("expected empty tail, got %q", w.String())
	}
}

func TestCapacityEviction(t *testing.T) {
	log := logger.NewLogger(2)
	w := &strings.Builder{}

	log.Log(logger.Allow, "a", "1")
	log.Log(logger.Allow, "b", "2")
	log.Log(logger.Allow, "c", "3")

	log.Write(w)
	if w.String() != "b: 2\nc: 3\n" {
		t.Fatalf("expected oldest entry to be evicted, got %q", w.String())
	}
}

type prohibitLogging struct {
	allow bool
}

func (p prohibitLogging) AllowLogging() bool { return p.allow }

func TestPermissions(t *testing.T) {
	log := logger.NewLogger(100)
	w := &strings.Builder{}

	log.Log(prohibitLogging{allow: false}, "tag", "detail")
	log.Write(w)
	if w.String() != "" {
		t.Fatalf("expected nothing logged, got %q", w.String())
	}

	log.Log(prohibitLogging{allow: true}, "tag", "detail")
	log.Write(w)
	if w.String() != "tag: detail\n" {
		t.Fatalf("got %q", w.String())
	}
}

func TestErrorAndStringerDetail(t *testing.T) {
	log := logger.NewLogger(100)
	w := &strings.Builder{}

	log.Log(logger.Allow, "tag", errors.New("boom"))
	log.Write(w)
	if w.String() != "tag: boom\n" {
		t.Fatalf("got %q", w.String())
	}

	w.Reset()
	log.Clear()
	log.Logf(logger.Allow, "tag", "wrapped: %v", errors.New("boom"))
	log.Write(w)
	if w.String() != "tag: wrapped: boom\n" {
		t.Fatalf("got %q", w.String())
	}
}

func TestClear(t *testing.T) {
	log := logger.NewLogger(100)
	w := &strings.Builder{}

	log.Log(logger.Allow, "tag", "detail")
	log.Clear()
	log.Write(w)
	if w.String() != "" {
		t.Fatalf("expected empty log after Clear, got %q", w.String())
	}
}
