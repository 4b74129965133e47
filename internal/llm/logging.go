package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/store"
)

// LoggingProvider is a decorator that records every request as an
// llm_events row and a debug log line.
type LoggingProvider struct {
	inner     Provider
	provider  string
	eventRepo store.EventRepo
	log       *zap.Logger
}

// WithLogging wraps a Provider with event logging. A nil repo or logger
// disables that sink.
func WithLogging(p Provider, providerName string, repo store.EventRepo, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingProvider{inner: p, provider: providerName, eventRepo: repo, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latencyMs := time.Since(start).Milliseconds()

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   latencyMs,
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = resp.Text
	}

	if err != nil {
		data.ErrorMessage = err.Error()
	}

	l.log.Debug("LLM request",
		zap.String("provider", data.Provider),
		zap.String("model", data.Model),
		zap.String("purpose", purpose),
		zap.Int64("latency_ms", latencyMs),
		zap.Int("input_tokens", data.InputTokens),
		zap.Int("output_tokens", data.OutputTokens),
		zap.Bool("success", data.Success),
	)

	// Record the event but don't fail the request if recording fails.
	if l.eventRepo != nil {
		if logErr := l.eventRepo.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
			l.log.Warn("failed to record LLM request event", zap.Error(logErr))
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n", req.Schema.Name)
			b.Write(schemaDef)
			b.WriteString("\n")
		}
	}

	return b.String()
}
