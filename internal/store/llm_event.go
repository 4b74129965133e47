package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var llmEventColumns = []string{
	"id", "sequence", "timestamp", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success",
	"error_message", "request_body", "response_body",
}

// eventRepo implements EventRepo with ent's SQL builder and the global
// sequence counter.
type eventRepo struct {
	db      *sql.DB
	dialect string
	seq     *sequenceCounter
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	// id is assigned by the database.
	query, args := entsql.Dialect(r.dialect).
		Insert(tableLLMEvents).
		Columns(llmEventColumns[1:]...).
		Values(
			seqNum, time.Now().UTC(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	sel := entsql.Dialect(r.dialect).
		Select(llmEventColumns...).
		From(entsql.Table(tableLLMEvents))
	if opts.Purpose != "" {
		sel.Where(entsql.EQ("purpose", opts.Purpose))
	}
	applyTimeRange(sel, opts)
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMEvent
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error) {
	query, args := entsql.Dialect(r.dialect).
		Select(llmEventColumns...).
		From(entsql.Table(tableLLMEvents)).
		Where(entsql.EQ("id", id)).
		Query()

	e, err := scanLLMEvent(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	return e, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	query, args := entsql.Dialect(r.dialect).
		Select(
			"purpose",
			entsql.As(entsql.Count("*"), "calls"),
			entsql.As(entsql.Sum("input_tokens"), "input_total"),
			entsql.As(entsql.Sum("output_tokens"), "output_total"),
			entsql.As(entsql.Avg("latency_ms"), "avg_latency"),
		).
		From(entsql.Table(tableLLMEvents)).
		GroupBy("purpose").
		OrderBy("purpose").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []PurposeUsage
	for rows.Next() {
		var (
			u   PurposeUsage
			avg float64
		)
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.InputTokens, &u.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	query, args := entsql.Dialect(r.dialect).
		Select(
			"model",
			entsql.As(entsql.Count("*"), "calls"),
			entsql.As(entsql.Sum("input_tokens"), "input_total"),
			entsql.As(entsql.Sum("output_tokens"), "output_total"),
		).
		From(entsql.Table(tableLLMEvents)).
		Where(entsql.EQ("success", true)).
		GroupBy("model").
		OrderBy("model").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage by model: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanLLMEvent(row rowScanner) (*LLMEvent, error) {
	var e LLMEvent
	err := row.Scan(
		&e.ID, &e.Sequence, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success,
		&e.ErrorMessage, &e.RequestBody, &e.ResponseBody,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
