package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tuiquiz/internal/bank"
	"github.com/verte-zerg/tuiquiz/internal/generator"
	"github.com/verte-zerg/tuiquiz/internal/legacy"
	"github.com/verte-zerg/tuiquiz/internal/logger"
	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/statsrepo"
	"github.com/verte-zerg/tuiquiz/internal/storage"
)

func testBank(perCategory int) *bank.Bank {
	b := &bank.Bank{}
	for _, name := range []string{"Networks", "Databases"} {
		c := model.Category{Name: name, Topic: "CS"}
		for i := 0; i < perCategory; i++ {
			c.Questions = append(c.Questions, model.Question{
				ID:       fmt.Sprintf("%s-%d", name, i),
				Category: name,
				Options:  []model.Option{{ID: "a"}, {ID: "b"}},
			})
		}
		b.Categories = append(b.Categories, c)
	}
	return b
}

func baseConfig() model.QuizConfig {
	return model.QuizConfig{
		RandomDuration: 90 * time.Minute,
		CustomSize:     30,
		CustomMinimum:  30,
	}
}

func TestBuildTestModes(t *testing.T) {
	b := testBank(20)
	gen := generator.NewSeeded(1)

	cfg := baseConfig()
	if _, _, err := buildTest(b, gen, cfg); !errors.Is(err, errNoMode) {
		t.Fatalf("expected errNoMode, got %v", err)
	}

	cfg.Category = "networks"
	qs, sc, err := buildTest(b, gen, cfg)
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if len(qs) != 20 || sc.Label != "Networks" || sc.Kind != model.KindCategory || sc.Duration != 0 {
		t.Fatalf("unexpected category test: %d %+v", len(qs), sc)
	}

	cfg.Random = true
	if _, _, err := buildTest(b, gen, cfg); err == nil {
		t.Fatalf("expected error for two modes")
	}

	cfg.Category = ""
	qs, sc, err = buildTest(b, gen, cfg)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if len(qs) != 40 || sc.Label != model.RandomTestLabel || sc.Duration != 90*time.Minute {
		t.Fatalf("unexpected random test: %d %+v", len(qs), sc)
	}

	cfg.Random = false
	cfg.Custom = []string{"Networks", "Databases"}
	qs, sc, err = buildTest(b, gen, cfg)
	if err != nil {
		t.Fatalf("custom: %v", err)
	}
	if len(qs) != 30 || sc.Kind != model.KindCustom || sc.Label != model.CustomTestLabel {
		t.Fatalf("unexpected custom test: %d %+v", len(qs), sc)
	}
}

func TestBuildTestErrors(t *testing.T) {
	b := testBank(10)
	gen := generator.NewSeeded(2)

	cfg := baseConfig()
	cfg.Category = "Art"
	if _, _, err := buildTest(b, gen, cfg); err == nil || !strings.Contains(err.Error(), "Art") {
		t.Fatalf("expected unknown category error, got %v", err)
	}

	cfg = baseConfig()
	cfg.Custom = []string{"Networks", "Zoology"}
	if _, _, err := buildTest(b, gen, cfg); err == nil || !strings.Contains(err.Error(), "Zoology") {
		t.Fatalf("expected unknown categories error, got %v", err)
	}

	cfg.Custom = []string{"Networks", "Databases"}
	_, _, err := buildTest(b, gen, cfg)
	var tooFew *generator.TooFewError
	if !errors.As(err, &tooFew) || tooFew.Have != 20 {
		t.Fatalf("expected TooFewError, got %v", err)
	}
}

func TestWriteCategories(t *testing.T) {
	var buf bytes.Buffer
	if err := writeCategories(&buf, testBank(3)); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "CS\n  Networks (3)\n  Databases (3)\n"
	if buf.String() != want {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	ok, err := confirm(strings.NewReader("YES\n"), &out, "sure? ")
	if err != nil || !ok {
		t.Fatalf("expected confirmation, got %v %v", ok, err)
	}
	if out.String() != "sure? " {
		t.Fatalf("unexpected prompt: %q", out.String())
	}
	ok, err = confirm(strings.NewReader("y"), &out, "sure? ")
	if err != nil || ok {
		t.Fatalf("expected refusal, got %v %v", ok, err)
	}
}

func TestValidateConfigAndTrim(t *testing.T) {
	cfg := baseConfig()
	cfg.BankPath = "q.json"
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.CustomSize = 0
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("expected error for zero custom size")
	}
	got := trimAll([]string{" a ", "", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected trim: %v", got)
	}
}

const archivedStats = `{"totalTests":1,"lastTestDate":"2030-01-01T00:00:00Z","testHistory":[],"weakQuestions":[]}`

func memoryApp(t *testing.T) (*app, *storage.MemoryBackend) {
	t.Helper()
	codec, err := storage.NewCodec(false)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	backend := storage.NewMemoryBackend()
	store := storage.NewAdapter(backend, nil, codec, nil)
	engine := legacy.NewEngine(store, codec, nil)
	a := &app{log: logger.Nop(), store: store, engine: engine, repo: statsrepo.New(store, engine, nil)}
	if err := backend.Set(context.Background(), "archived", []byte(archivedStats)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return a, backend
}

func TestScheduledSweepStopsBeforeRunning(t *testing.T) {
	a, backend := memoryApp(t)
	stop := a.scheduleSweep(context.Background(), time.Hour)
	stop()
	a.Close()
	if _, err := backend.Get(context.Background(), "archived"); err != nil {
		t.Fatalf("sweep ran after stop: %v", err)
	}
}

func TestScheduledSweepFinishesBeforeClose(t *testing.T) {
	a, backend := memoryApp(t)
	stop := a.scheduleSweep(context.Background(), 0)
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := backend.Get(context.Background(), model.StatsKey); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("sweep did not run")
		}
		time.Sleep(10 * time.Millisecond)
	}
	stop()
	a.Close()
	if _, err := backend.Get(context.Background(), "archived"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected legacy key removed, got %v", err)
	}
}
