package extract

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"smartlist/internal/core/ai/cache"
	"smartlist/internal/core/ai/provider"
	"smartlist/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// fakeGenerator 可控的文字生成器
type fakeGenerator struct {
	reply   string
	err     error
	delay   time.Duration
	calls   atomic.Int32
	prompts chan string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	if f.prompts != nil {
		f.prompts <- prompt
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeGenerator) Model() string { return "fake" }
func (f *fakeGenerator) Close() error  { return nil }

func TestBuildPrompt_EmbedsRecipe(t *testing.T) {
	p := BuildPrompt("Grilled chicken")
	assert.Contains(t, p, `Recipe: "Grilled chicken"`)
	assert.Contains(t, p, "JSON array")
	assert.True(t, strings.HasSuffix(p, "Only return the JSON array, nothing else:"))
}

func TestAIExtractor_Success(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n[\"2 lbs chicken breast\", \"Salt\"]\n```", prompts: make(chan string, 1)}
	e := NewAIExtractor(gen, nil, time.Second)

	got, err := e.Extract(context.Background(), "Grilled chicken")
	require.NoError(t, err)
	assert.Equal(t, []string{"2 lbs chicken breast", "Salt"}, got)
	assert.Equal(t, BuildPrompt("Grilled chicken"), <-gen.prompts)
}

func TestAIExtractor_FallsBackToLocal(t *testing.T) {
	recipe := "Grilled chicken with herbs"
	cases := map[string]*fakeGenerator{
		"transport error": {err: errors.New("connection refused")},
		"status error":    {err: &provider.StatusError{StatusCode: 500}},
		"no text":         {err: provider.ErrNoText},
		"blank reply":     {reply: "   "},
		"no array":        {reply: "Sorry, I can't help with that."},
		"empty array":     {reply: "[]"},
		"disabled":        {err: provider.ErrDisabled},
		"timeout":         {reply: `["late"]`, delay: time.Second},
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			e := NewAIExtractor(gen, nil, 20*time.Millisecond)
			got, err := e.Extract(context.Background(), recipe)
			require.NoError(t, err)
			assert.Equal(t, Local(recipe), got)
		})
	}
}

func TestAIExtractor_NilGeneratorIsDisabled(t *testing.T) {
	e := NewAIExtractor(nil, nil, time.Second)
	got, err := e.Extract(context.Background(), "soup")
	require.NoError(t, err)
	assert.Equal(t, Local("soup"), got)
}

func TestAIExtractor_CallerCancellation(t *testing.T) {
	gen := &fakeGenerator{reply: `["x"]`, delay: 200 * time.Millisecond}
	e := NewAIExtractor(gen, nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := e.Extract(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAIExtractor_AlreadyCancelled(t *testing.T) {
	gen := &fakeGenerator{reply: `["x"]`}
	e := NewAIExtractor(gen, nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Extract(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), gen.calls.Load())
}

func TestAIExtractor_CachesSuccessOnly(t *testing.T) {
	m := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Hour, CleanupInterval: time.Hour})
	defer m.Close()

	good := &fakeGenerator{reply: `["1 onion"]`}
	e := NewAIExtractor(good, m, time.Second)
	for i := 0; i < 3; i++ {
		got, err := e.Extract(context.Background(), "onion tart")
		require.NoError(t, err)
		assert.Equal(t, []string{"1 onion"}, got)
	}
	assert.Equal(t, int32(1), good.calls.Load())

	bad := &fakeGenerator{err: errors.New("down")}
	e = NewAIExtractor(bad, m, time.Second)
	for i := 0; i < 2; i++ {
		_, err := e.Extract(context.Background(), "beef stew")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), bad.calls.Load())
}

func TestAIExtractor_CollapsesIdenticalConcurrentCalls(t *testing.T) {
	gen := &fakeGenerator{reply: `["1 lb pasta"]`, delay: 50 * time.Millisecond}
	e := NewAIExtractor(gen, nil, time.Second)

	var g errgroup.Group
	var mu sync.Mutex
	var results [][]string
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			got, err := e.Extract(context.Background(), "pasta night")
			mu.Lock()
			results = append(results, got)
			mu.Unlock()
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, results, 5)
	for _, r := range results {
		assert.Equal(t, []string{"1 lb pasta"}, r)
	}
	assert.Less(t, gen.calls.Load(), int32(5))
}
