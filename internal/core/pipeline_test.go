package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator answers prompts with a function and records the calls.
type stubGenerator struct {
	fn func(ctx context.Context, apiKey, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
	keys    []string
}

func (g *stubGenerator) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.keys = append(g.keys, apiKey)
	g.mu.Unlock()
	return g.fn(ctx, apiKey, prompt)
}

func (g *stubGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func echoGenerator() *stubGenerator {
	return &stubGenerator{fn: func(_ context.Context, _, prompt string) (string, error) {
		return "  draft for: " + prompt + "\n", nil
	}}
}

var sampleContacts = []Contact{
	{Email: "ana@x.com", FirstName: "Ana", Company: "Acme"},
	{Email: "bo@y.com", FirstName: "Bo", Company: "Beta"},
}

func TestPipeline_Template(t *testing.T) {
	p := NewPipeline(nil, PipelineConfig{})

	drafts, stats, err := p.Run(context.Background(), sampleContacts, GenerationConfig{
		UseTemplate:     true,
		SubjectTemplate: "Hello {first_name}",
		BodyTemplate:    "Hi {first_name} from {company}",
	})
	require.NoError(t, err)

	assert.Equal(t, []Draft{
		{Email: "ana@x.com", Subject: "Hello Ana", Body: "Hi Ana from Acme"},
		{Email: "bo@y.com", Subject: "Hello Bo", Body: "Hi Bo from Beta"},
	}, drafts)
	assert.Equal(t, RunStats{Contacts: 2}, stats)
}

func TestPipeline_Blank(t *testing.T) {
	p := NewPipeline(nil, PipelineConfig{})

	// Template strings are ignored while the flag is off.
	drafts, _, err := p.Run(context.Background(), sampleContacts, GenerationConfig{
		SubjectTemplate: "Hello {first_name}",
		BodyTemplate:    "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, []Draft{
		{Email: "ana@x.com"},
		{Email: "bo@y.com"},
	}, drafts)
}

func TestPipeline_AIDefaultPrompt(t *testing.T) {
	gen := echoGenerator()
	p := NewPipeline(gen, PipelineConfig{Workers: 1})

	drafts, stats, err := p.Run(context.Background(), sampleContacts, GenerationConfig{
		UseAI:  true,
		APIKey: "pplx-test",
	})
	require.NoError(t, err)

	assert.Equal(t, "draft for: Write a friendly outreach email to Ana at Acme.", drafts[0].Body)
	assert.Equal(t, "draft for: Write a friendly outreach email to Bo at Beta.", drafts[1].Body)
	assert.Empty(t, drafts[0].Subject)
	assert.Equal(t, RunStats{Contacts: 2, Generated: 2}, stats)
	assert.Equal(t, []string{"pplx-test", "pplx-test"}, gen.keys)
}

func TestPipeline_AIOverridesBodyTemplate(t *testing.T) {
	gen := echoGenerator()
	p := NewPipeline(gen, PipelineConfig{})

	drafts, _, err := p.Run(context.Background(), sampleContacts[:1], GenerationConfig{
		UseTemplate:     true,
		SubjectTemplate: "Hello {first_name}",
		BodyTemplate:    "template body",
		UseAI:           true,
		APIKey:          "k",
		CustomPrompt:    "Pitch {company} to {first_name}",
	})
	require.NoError(t, err)

	require.Len(t, drafts, 1)
	assert.Equal(t, "Hello Ana", drafts[0].Subject)
	assert.Equal(t, "draft for: Pitch Acme to Ana", drafts[0].Body)
}

func TestPipeline_AIFailureIsolated(t *testing.T) {
	gen := &stubGenerator{fn: func(_ context.Context, _, prompt string) (string, error) {
		if strings.Contains(prompt, "Bo") {
			return "", errors.New("401 Unauthorized")
		}
		return "ok body", nil
	}}
	p := NewPipeline(gen, PipelineConfig{Workers: 2})

	contacts := append([]Contact{}, sampleContacts...)
	contacts = append(contacts, Contact{Email: "cy@z.com", FirstName: "Cy", Company: "Corp"})

	drafts, stats, err := p.Run(context.Background(), contacts, GenerationConfig{
		UseTemplate:     true,
		SubjectTemplate: "Hi {first_name}",
		BodyTemplate:    "unused",
		UseAI:           true,
		APIKey:          "k",
	})
	require.NoError(t, err)
	require.Len(t, drafts, 3)

	assert.Equal(t, "ok body", drafts[0].Body)
	assert.Equal(t, "Hi Bo", drafts[1].Subject)
	assert.Equal(t, GenerationErrorPrefix+"401 Unauthorized", drafts[1].Body)
	assert.Equal(t, "ok body", drafts[2].Body)
	assert.Equal(t, RunStats{Contacts: 3, Generated: 2, Failed: 1}, stats)
}

func TestPipeline_AllAIFailuresStillProduceOutput(t *testing.T) {
	gen := &stubGenerator{fn: func(context.Context, string, string) (string, error) {
		return "", errors.New("connection refused")
	}}
	p := NewPipeline(gen, PipelineConfig{})

	drafts, stats, err := p.Run(context.Background(), sampleContacts, GenerationConfig{UseAI: true, APIKey: "k"})
	require.NoError(t, err)

	for _, d := range drafts {
		assert.True(t, strings.HasPrefix(d.Body, GenerationErrorPrefix))
	}
	assert.Equal(t, 2, stats.Failed)
}

func TestPipeline_PreservesOrderUnderConcurrency(t *testing.T) {
	var contacts []Contact
	for i := range 50 {
		contacts = append(contacts, Contact{Email: fmt.Sprintf("c%d@x.com", i), FirstName: fmt.Sprint(i)})
	}

	var inFlight, peak atomic.Int32
	gen := &stubGenerator{fn: func(_ context.Context, _, prompt string) (string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		return prompt, nil
	}}
	p := NewPipeline(gen, PipelineConfig{Workers: 4})

	drafts, _, err := p.Run(context.Background(), contacts, GenerationConfig{UseAI: true, APIKey: "k", CustomPrompt: "{first_name}"})
	require.NoError(t, err)

	require.Len(t, drafts, len(contacts))
	for i, d := range drafts {
		assert.Equal(t, contacts[i].Email, d.Email)
		assert.Equal(t, fmt.Sprint(i), d.Body)
	}
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestPipeline_Idempotent(t *testing.T) {
	p := NewPipeline(nil, PipelineConfig{})
	cfg := GenerationConfig{UseTemplate: true, SubjectTemplate: "S {company}", BodyTemplate: "B {first_name}"}

	first, _, err := p.Run(context.Background(), sampleContacts, cfg)
	require.NoError(t, err)
	second, _, err := p.Run(context.Background(), sampleContacts, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPipeline_MissingAPIKey(t *testing.T) {
	gen := echoGenerator()
	p := NewPipeline(gen, PipelineConfig{})

	_, _, err := p.Run(context.Background(), sampleContacts, GenerationConfig{UseAI: true})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, gen.calls())
}

func TestPipeline_NoGenerator(t *testing.T) {
	p := NewPipeline(nil, PipelineConfig{})

	_, _, err := p.Run(context.Background(), sampleContacts, GenerationConfig{UseAI: true, APIKey: "k"})
	assert.ErrorIs(t, err, ErrNoGenerator)
}

func TestPipeline_CallTimeout(t *testing.T) {
	gen := &stubGenerator{fn: func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	p := NewPipeline(gen, PipelineConfig{Timeout: 20 * time.Millisecond})

	drafts, stats, err := p.Run(context.Background(), sampleContacts[:1], GenerationConfig{UseAI: true, APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, GenerationErrorPrefix+context.DeadlineExceeded.Error(), drafts[0].Body)
	assert.Equal(t, 1, stats.Failed)
}

func TestPipeline_DoneContextSkipsGenerator(t *testing.T) {
	gen := echoGenerator()
	p := NewPipeline(gen, PipelineConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	drafts, stats, err := p.Run(ctx, sampleContacts, GenerationConfig{UseAI: true, APIKey: "k"})
	require.NoError(t, err)

	assert.Zero(t, gen.calls())
	for _, d := range drafts {
		assert.Equal(t, GenerationErrorPrefix+context.Canceled.Error(), d.Body)
	}
	assert.Equal(t, RunStats{Contacts: 2, Failed: 2}, stats)
}

func TestGenerationConfig_Prompt(t *testing.T) {
	c := Contact{FirstName: "Ana", Company: "Acme"}

	assert.Equal(t, "Write a friendly outreach email to Ana at Acme.", GenerationConfig{}.Prompt(c))
	assert.Equal(t, "Ask Ana about Acme", GenerationConfig{CustomPrompt: "Ask {first_name} about {company}"}.Prompt(c))
}

func TestNewPipeline_Defaults(t *testing.T) {
	p := NewPipeline(nil, PipelineConfig{Workers: -1})
	assert.Equal(t, DefaultWorkers, p.workers)
	assert.Equal(t, DefaultGenerationTimeout, p.timeout)
}
