package legacy

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// KeyReport summarizes one persisted key that may hold statistics.
type KeyReport struct {
	Key        string
	Known      bool
	Parsed     bool
	QuizShaped bool
	Version    string
	TotalTests int
	History    int
}

// Report is a read-only view of everything discovery would look at.
type Report struct {
	AllKeys []string
	Current *KeyReport
	Legacy  []KeyReport
	Scanned []KeyReport
}

// Diagnose inspects the store without changing it.
func (e *Engine) Diagnose(ctx context.Context) Report {
	entries := e.store.Entries(ctx)
	var rep Report
	for _, entry := range entries {
		rep.AllKeys = append(rep.AllKeys, entry.Key)
		kr := KeyReport{Key: entry.Key, Known: contains(KnownKeys, entry.Key)}
		var v any
		if err := e.dec.Decode(entry.Value, &v); err == nil {
			kr.Parsed = true
			kr.QuizShaped = IsQuizShaped(v)
			describe(&kr, v)
		}
		switch {
		case entry.Key == model.StatsKey:
			cur := kr
			rep.Current = &cur
		case kr.Known:
			rep.Legacy = append(rep.Legacy, kr)
		case !Denied(entry.Key) && kr.QuizShaped:
			rep.Scanned = append(rep.Scanned, kr)
		}
	}
	return rep
}

func describe(kr *KeyReport, v any) {
	obj, ok := v.(map[string]any)
	if !ok {
		return
	}
	if s, ok := obj["version"].(string); ok {
		kr.Version = s
	}
	if n, ok := obj["totalTests"].(float64); ok && n > 0 {
		kr.TotalTests = int(n)
	}
	if h, ok := obj["testHistory"].([]any); ok {
		kr.History = len(h)
	}
}

// Write renders the report as plain text.
func (r Report) Write(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "keys: %d", len(r.AllKeys))
	if len(r.AllKeys) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(r.AllKeys, ", "))
	}
	b.WriteString("\n")
	if r.Current == nil {
		b.WriteString("current: none\n")
	} else {
		fmt.Fprintf(&b, "current: %s\n", r.Current.line())
	}
	if len(r.Legacy) == 0 {
		b.WriteString("legacy: none\n")
	}
	for _, kr := range r.Legacy {
		fmt.Fprintf(&b, "legacy: %s\n", kr.line())
	}
	for _, kr := range r.Scanned {
		fmt.Fprintf(&b, "unexpected: %s\n", kr.line())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (kr KeyReport) line() string {
	if !kr.Parsed {
		return kr.Key + " unreadable"
	}
	version := kr.Version
	if version == "" {
		version = "-"
	}
	return fmt.Sprintf("%s version=%s tests=%d history=%d", kr.Key, version, kr.TotalTests, kr.History)
}
