package legacy

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuiquiz/internal/storage"
)

func newEngine(t *testing.T) (*Engine, *storage.MemoryBackend, *storage.Adapter) {
	t.Helper()
	codec, err := storage.NewCodec(true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = codec.Close() })
	backend := storage.NewMemoryBackend()
	adapter := storage.NewAdapter(backend, nil, codec, nil)
	return NewEngine(adapter, codec, nil), backend, adapter
}

func setRaw(t *testing.T, b *storage.MemoryBackend, key, value string) {
	t.Helper()
	require.NoError(t, b.Set(context.Background(), key, []byte(value)))
}

func TestIsQuizShaped(t *testing.T) {
	require.True(t, IsQuizShaped(map[string]any{"totalTests": 1.0, "testHistory": []any{}, "streakData": nil}))
	require.False(t, IsQuizShaped(map[string]any{"totalTests": 1.0, "testHistory": []any{}}))
	require.False(t, IsQuizShaped([]any{"totalTests", "testHistory", "streakData"}))
	require.False(t, IsQuizShaped("totalTests"))
}

func TestDenied(t *testing.T) {
	require.True(t, Denied("ls"))
	require.True(t, Denied("darkMode"))
	require.True(t, Denied("_private"))
	require.False(t, Denied("quiz_stats"))
	require.False(t, Denied("random"))
}

func TestClassifySkipsDeniedAndInvalid(t *testing.T) {
	codec, err := storage.NewCodec(false)
	require.NoError(t, err)
	defer codec.Close()

	shaped := `{"totalTests":2,"totalQuestionsAnswered":10,"testHistory":[]}`
	entries := []storage.RawEntry{
		{Key: "ls", Value: []byte(shaped)},
		{Key: "_hidden", Value: []byte(shaped)},
		{Key: "broken", Value: []byte("{nope")},
		{Key: "thin", Value: []byte(`{"totalTests":2}`)},
		{Key: "found", Value: []byte(shaped)},
		{Key: "second", Value: []byte(shaped)},
	}
	got := Classify(entries, codec)
	require.Len(t, got, 2)
	require.Equal(t, "found", got[0].Key)
	require.Equal(t, "second", got[1].Key)
}

func TestFindPrefersKnownKeysInOrder(t *testing.T) {
	engine, backend, _ := newEngine(t)
	setRaw(t, backend, "aaa", `{"totalTests":9,"totalCorrectAnswers":1,"weakQuestions":[]}`)
	setRaw(t, backend, "quiz_stats", `{"totalTests":3}`)
	setRaw(t, backend, "uvt_quiz_stats_old", `{"totalTests":4}`)

	c, ok := engine.Find(context.Background())
	require.True(t, ok)
	require.Equal(t, "uvt_quiz_stats_old", c.Key)
}

func TestFindSkipsNullKnownKey(t *testing.T) {
	engine, backend, _ := newEngine(t)
	setRaw(t, backend, "uvt_quiz_stats", `null`)
	setRaw(t, backend, "quizStats", `{"totalTests":1}`)

	c, ok := engine.Find(context.Background())
	require.True(t, ok)
	require.Equal(t, "quizStats", c.Key)
}

func TestFindFallsBackToScan(t *testing.T) {
	engine, backend, _ := newEngine(t)
	setRaw(t, backend, "darkMode", `true`)
	setRaw(t, backend, "ls", `{"totalTests":1,"testHistory":[],"streakData":{}}`)
	setRaw(t, backend, "my-old-progress", `{"totalTests":20,"testHistory":[],"categoryPerformance":{}}`)

	c, ok := engine.Find(context.Background())
	require.True(t, ok)
	require.Equal(t, "my-old-progress", c.Key)
	obj, ok := c.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, 20.0, obj["totalTests"])
}

func TestFindNothing(t *testing.T) {
	engine, backend, _ := newEngine(t)
	setRaw(t, backend, "darkMode", `false`)
	_, ok := engine.Find(context.Background())
	require.False(t, ok)
}

func TestCleanupCountsRemovedKeys(t *testing.T) {
	ctx := context.Background()
	engine, backend, adapter := newEngine(t)
	setRaw(t, backend, "quiz_stats", `{}`)
	setRaw(t, backend, "userStats", `{}`)
	setRaw(t, backend, "custom", `{}`)
	setRaw(t, backend, "darkMode", `true`)

	require.Equal(t, 3, engine.Cleanup(ctx, "custom"))
	require.Equal(t, []string{"darkMode"}, adapter.Keys(ctx))
	require.Equal(t, 0, engine.Cleanup(ctx, ""))
}

func TestDiagnose(t *testing.T) {
	engine, backend, _ := newEngine(t)
	setRaw(t, backend, "ls", `{"version":"1.0","totalTests":5,"testHistory":[{},{}]}`)
	setRaw(t, backend, "quiz_stats", `{"totalTests":20}`)
	setRaw(t, backend, "odd", `{"totalTests":1,"weakQuestions":[],"streakData":{}}`)
	setRaw(t, backend, "darkMode", `true`)

	rep := engine.Diagnose(context.Background())
	require.Equal(t, []string{"ls", "quiz_stats", "odd", "darkMode"}, rep.AllKeys)
	require.NotNil(t, rep.Current)
	require.Equal(t, "1.0", rep.Current.Version)
	require.Equal(t, 5, rep.Current.TotalTests)
	require.Equal(t, 2, rep.Current.History)
	require.Len(t, rep.Legacy, 1)
	require.Equal(t, 20, rep.Legacy[0].TotalTests)
	require.Len(t, rep.Scanned, 1)
	require.Equal(t, "odd", rep.Scanned[0].Key)

	var buf bytes.Buffer
	require.NoError(t, rep.Write(&buf))
	require.Contains(t, buf.String(), "current: ls version=1.0 tests=5 history=2")
	require.Contains(t, buf.String(), "unexpected: odd")
}
