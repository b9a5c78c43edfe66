package stdiohost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/provkit/provkit/envelope"
	herrors "github.com/provkit/provkit/errors"
	"github.com/provkit/provkit/lifecycle"
	"github.com/provkit/provkit/logger"
	"github.com/provkit/provkit/provider"
)

// --- fixtures ---

type counterConfig struct {
	Interval int `mapstructure:"interval"`
	MaxCount int `mapstructure:"maxCount"`
}

func (c *counterConfig) ApplyDefaults() {
	if c.MaxCount == 0 {
		c.MaxCount = 10
	}
}

type counterProvider struct {
	provider.Base[counterConfig]
}

func (p *counterProvider) Name() string { return "counter" }

func (p *counterProvider) Produce(ctx context.Context) (provider.Iterator[envelope.Envelope], error) {
	cfg := p.Config()
	n := 0
	return &provider.FuncIterator[envelope.Envelope]{
		NextFunc: func(ctx context.Context) (envelope.Envelope, bool, error) {
			if err := ctx.Err(); err != nil {
				return envelope.Envelope{}, false, err
			}
			if n >= cfg.MaxCount {
				return envelope.Envelope{}, false, nil
			}
			n++
			if cfg.Interval > 0 {
				select {
				case <-ctx.Done():
					return envelope.Envelope{}, false, ctx.Err()
				case <-time.After(time.Duration(cfg.Interval) * time.Millisecond):
				}
			}
			e := envelope.New("counter", "tick", n).WithMeta("sequence", n)
			return e, true, nil
		},
	}, nil
}

type consoleConfig struct {
	Prefix string `mapstructure:"prefix"`
}

func (c *consoleConfig) ApplyDefaults() {}

type consoleProvider struct {
	provider.Base[consoleConfig]
	mu      sync.Mutex
	batches [][]envelope.Envelope
}

func (p *consoleProvider) Name() string { return "console" }

func (p *consoleProvider) Write(ctx context.Context, batch []envelope.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, batch)
	return nil
}

func (p *consoleProvider) writeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

type planConfig struct {
	ResourceCount int `mapstructure:"resourceCount"`
}

func (c *planConfig) ApplyDefaults() {
	if c.ResourceCount == 0 {
		c.ResourceCount = 1
	}
}

type planProvider struct {
	provider.Base[planConfig]
	lifecycle.Noop
	fail bool
}

func (p *planProvider) Name() string { return "planner" }

func (p *planProvider) OnPlan(ctx context.Context) ([]string, map[string]any, error) {
	if p.fail {
		return nil, nil, fmt.Errorf("planning broke")
	}
	cfg := p.Config()
	resources := make([]string, 0, cfg.ResourceCount)
	for i := 1; i <= cfg.ResourceCount; i++ {
		resources = append(resources, fmt.Sprintf("resource-%d", i))
	}
	return resources, map[string]any{"planned": cfg.ResourceCount}, nil
}

func newHost[C any, T provider.Runtime[C]](t *testing.T, factory provider.Factory[T], in io.Reader, out io.Writer, log *logger.Logger) *Host[C, T] {
	t.Helper()
	if log == nil {
		log = logger.NewWriter(io.Discard, "stdiohost")
	}
	h, err := New(Options[C, T]{
		Name:    "test",
		Factory: factory,
		In:      in,
		Out:     out,
		Logger:  log,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return h
}

func outputLines(t *testing.T, out *bytes.Buffer) []string {
	t.Helper()
	raw := strings.TrimSpace(out.String())
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

// --- first-line parsing ---

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		outcome parseOutcome
		command string
	}{
		{"envelope", `{"command":"plan","config":{"resourceCount":5}}`, parsedEnvelope, "plan"},
		{"envelope without command", `{"config":{"maxCount":3}}`, parsedEnvelope, "run"},
		{"envelope with empty command", `{"command":"","config":{}}`, parsedEnvelope, "run"},
		{"bare config", `{"maxCount":3,"interval":100}`, parsedBareConfig, "run"},
		{"not json", `this is not json`, parseFailed, ""},
		{"json array", `[1,2,3]`, parseFailed, ""},
		{"json null", `null`, parseFailed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, outcome := parseRequest([]byte(tt.line))
			if outcome != tt.outcome {
				t.Fatalf("outcome = %v, want %v", outcome, tt.outcome)
			}
			if outcome != parseFailed && req.Command != tt.command {
				t.Errorf("command = %q, want %q", req.Command, tt.command)
			}
		})
	}
}

func TestParseRequestBareConfigKeepsWholeLine(t *testing.T) {
	line := `{"maxCount":3}`
	req, outcome := parseRequest([]byte(line))
	if outcome != parsedBareConfig {
		t.Fatalf("outcome = %v", outcome)
	}
	var cfg map[string]any
	if err := json.Unmarshal(req.Config, &cfg); err != nil {
		t.Fatalf("bare config must round-trip: %v", err)
	}
	if cfg["maxCount"] != float64(3) {
		t.Errorf("config lost: %v", cfg)
	}
}

// --- fatal startup paths ---

func TestEmptyInputIsFatal(t *testing.T) {
	var out bytes.Buffer
	h := newHost[counterConfig](t, func() *counterProvider { return &counterProvider{} },
		strings.NewReader(""), &out, nil)

	err := h.Run(context.Background())
	if err == nil {
		t.Fatal("empty stdin must be fatal")
	}
	if code := herrors.ExitCodeFor(err); code != herrors.ExitConfig {
		t.Errorf("exit code = %d, want %d", code, herrors.ExitConfig)
	}
	if out.Len() != 0 {
		t.Errorf("no protocol frames may be written, got %q", out.String())
	}
}

func TestUnparseableFirstLineIsFatal(t *testing.T) {
	var out bytes.Buffer
	h := newHost[counterConfig](t, func() *counterProvider { return &counterProvider{} },
		strings.NewReader("definitely not json\n"), &out, nil)

	err := h.Run(context.Background())
	if herrors.CodeOf(err) != herrors.ErrCodeConfigUnparseable {
		t.Fatalf("expected CONFIG_UNPARSEABLE, got %v", err)
	}
	if code := herrors.ExitCodeFor(err); code != herrors.ExitConfig {
		t.Errorf("exit code = %d, want %d", code, herrors.ExitConfig)
	}
}

func TestUnknownCommandIsFatal(t *testing.T) {
	var out bytes.Buffer
	h := newHost[counterConfig](t, func() *counterProvider { return &counterProvider{} },
		strings.NewReader(`{"command":"upgrade","config":{}}`+"\n"), &out, nil)

	err := h.Run(context.Background())
	if err == nil {
		t.Fatal("unknown command must be fatal")
	}
	if out.Len() != 0 {
		t.Errorf("no protocol frames may be written, got %q", out.String())
	}
}

// --- run command, input provider ---

func TestCounterEndToEnd(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(`{"command":"run","config":{"interval":100,"maxCount":3}}` + "\n")
	h := newHost[counterConfig](t, func() *counterProvider { return &counterProvider{} }, in, &out, nil)

	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	lines := outputLines(t, &out)
	if len(lines) != 3 {
		t.Fatalf("expected exactly 3 lines, got %d: %q", len(lines), lines)
	}
	for i, line := range lines {
		e, err := envelope.DecodeLine([]byte(line))
		if err != nil {
			t.Fatalf("line %d not an envelope: %v", i, err)
		}
		if e.Source != "counter" {
			t.Errorf("line %d: source = %q", i, e.Source)
		}
		if seq := e.Meta("sequence"); seq != float64(i+1) {
			t.Errorf("line %d: sequence = %v, want %d", i, seq, i+1)
		}
	}
}

func TestLegacyBareConfigImpliesRun(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(`{"maxCount":2,"interval":0}` + "\n")
	h := newHost[counterConfig](t, func() *counterProvider { return &counterProvider{} }, in, &out, nil)

	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if lines := outputLines(t, &out); len(lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(lines))
	}
}

func TestRunCancellationMidStreamIsClean(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(`{"command":"run","config":{"interval":10,"maxCount":1000}}` + "\n")
	h := newHost[counterConfig](t, func() *counterProvider { return &counterProvider{} }, in, &out, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(60 * time.Millisecond)
		cancel()
	}()

	if err := h.Run(ctx); err != nil {
		t.Fatalf("cancellation must not be an error, got %v", err)
	}
	if lines := outputLines(t, &out); len(lines) >= 1000 {
		t.Errorf("loop did not stop on cancellation, emitted %d lines", len(lines))
	}
}

// --- run command, output provider ---

func TestOutputProviderProcessesValidLinesOnly(t *testing.T) {
	valid := func(n int) string {
		data, _ := envelope.EncodeLine(envelope.New("test", "item", n))
		return string(data)
	}
	input := strings.Join([]string{
		`{"command":"run","config":{}}`,
		valid(1),
		"garbage line",
		valid(2),
		`[not,an,object`,
		valid(3),
		valid(4),
	}, "\n") + "\n"

	var log bytes.Buffer
	var out bytes.Buffer
	sink := &consoleProvider{}
	h := newHost[consoleConfig](t, func() *consoleProvider { return sink },
		strings.NewReader(input), &out, logger.NewWriter(&log, "stdiohost"))

	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 6 data lines, 2 malformed: exactly 4 single-item writes.
	if got := sink.writeCount(); got != 4 {
		t.Fatalf("Write invocations = %d, want 4", got)
	}
	for i, batch := range sink.batches {
		if len(batch) != 1 {
			t.Errorf("batch %d has %d items, want 1", i, len(batch))
		}
	}
	if !strings.Contains(log.String(), `"processed":4`) {
		t.Errorf("expected processed count 4 in the side channel, got %s", log.String())
	}
	if !strings.Contains(log.String(), `"dropped":2`) {
		t.Errorf("expected dropped count 2 in the side channel, got %s", log.String())
	}
}

func TestOutputProviderCancellationUnblocksRead(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	sink := &consoleProvider{}
	h := newHost[consoleConfig](t, func() *consoleProvider { return sink }, pr, &out, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	if _, err := io.WriteString(pw, `{"command":"run","config":{}}`+"\n"); err != nil {
		t.Fatalf("writing request: %v", err)
	}
	// The host is now blocked reading the next line; cancellation must
	// unblock it.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cancellation must not be an error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

// --- lifecycle commands ---

func TestPlanEndToEnd(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(`{"command":"plan","config":{"resourceCount":5}}` + "\n")
	h := newHost[planConfig](t, func() *planProvider { return &planProvider{} }, in, &out, nil)

	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	lines := outputLines(t, &out)
	if len(lines) != 1 {
		t.Fatalf("expected exactly one result line, got %d", len(lines))
	}
	var result lifecycle.Result
	if err := json.Unmarshal([]byte(lines[0]), &result); err != nil {
		t.Fatalf("result line not JSON: %v", err)
	}
	if result.Status != lifecycle.StatusSuccess {
		t.Errorf("status = %s, want Success", result.Status)
	}
	if len(result.Resources) != 5 {
		t.Errorf("resources = %v, want 5 entries", result.Resources)
	}
	if result.Metadata["planned"] != float64(5) {
		t.Errorf("metadata lost: %v", result.Metadata)
	}
}

func TestLifecycleHookFailureYieldsFailedResult(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(`{"command":"plan","config":{}}` + "\n")
	h := newHost[planConfig](t, func() *planProvider { return &planProvider{fail: true} }, in, &out, nil)

	// A failing hook is captured into the Result, not a process failure.
	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	lines := outputLines(t, &out)
	if len(lines) != 1 {
		t.Fatalf("expected exactly one result line, got %d", len(lines))
	}
	var result lifecycle.Result
	if err := json.Unmarshal([]byte(lines[0]), &result); err != nil {
		t.Fatalf("result line not JSON: %v", err)
	}
	if result.Status != lifecycle.StatusFailed {
		t.Errorf("status = %s, want Failed", result.Status)
	}
	if result.Error != "planning broke" {
		t.Errorf("error = %q", result.Error)
	}
	if len(result.Resources) != 0 {
		t.Errorf("resources must be empty on failure, got %v", result.Resources)
	}
}

func TestLifecycleCapabilityMissing(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(`{"command":"init","config":{}}` + "\n")
	h := newHost[counterConfig](t, func() *counterProvider { return &counterProvider{} }, in, &out, nil)

	err := h.Run(context.Background())
	if herrors.CodeOf(err) != herrors.ErrCodeCapabilityMissing {
		t.Fatalf("expected CAPABILITY_MISSING, got %v", err)
	}
	if code := herrors.ExitCodeFor(err); code != herrors.ExitCapability {
		t.Errorf("exit code = %d, want %d", code, herrors.ExitCapability)
	}
	if out.Len() != 0 {
		t.Errorf("no result line may be emitted, got %q", out.String())
	}
}

func TestNoopLifecycleProvider(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(`{"command":"status","config":{}}` + "\n")
	h := newHost[planConfig](t, func() *planProvider { return &planProvider{} }, in, &out, nil)

	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	var result lifecycle.Result
	if err := json.Unmarshal([]byte(outputLines(t, &out)[0]), &result); err != nil {
		t.Fatalf("result line not JSON: %v", err)
	}
	if result.Status != lifecycle.StatusSuccess {
		t.Errorf("embedded Noop status hook must succeed, got %s", result.Status)
	}
	if len(result.Resources) != 0 {
		t.Errorf("noop status must report no resources, got %v", result.Resources)
	}
}
