package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// ErrNotFound is returned by mutations that target a missing record.
var ErrNotFound = errors.New("record not found")

var assessmentColumns = []string{
	"id", "sequence", "timestamp", "subject_id", "subject_name",
	"score", "verdict", "latency_signal", "cadence_signal", "gaze_signal",
	"delta_ms", "cadence_variance", "gaze_drift", "thresholds", "report",
}

// assessmentRepo implements AssessmentRepo with ent's SQL builder.
type assessmentRepo struct {
	db      *sql.DB
	dialect string
	seq     *sequenceCounter
}

func (r *assessmentRepo) Save(ctx context.Context, a *Assessment) error {
	if a.ID == "" {
		return fmt.Errorf("save assessment: missing ID")
	}

	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	a.Sequence = seqNum
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}

	query, args := entsql.Dialect(r.dialect).
		Insert(tableAssessments).
		Columns(assessmentColumns...).
		Values(
			a.ID, a.Sequence, a.Timestamp, a.SubjectID, a.SubjectName,
			a.Score, a.Verdict, a.LatencySignal, a.CadenceSignal, a.GazeSignal,
			a.DeltaMs, a.CadenceVariance, a.GazeDrift, a.Thresholds, a.Report,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}
	return nil
}

func (r *assessmentRepo) Get(ctx context.Context, id string) (*Assessment, error) {
	query, args := entsql.Dialect(r.dialect).
		Select(assessmentColumns...).
		From(entsql.Table(tableAssessments)).
		Where(entsql.EQ("id", id)).
		Query()

	a, err := scanAssessment(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get assessment %s: %w", id, err)
	}
	return a, nil
}

func (r *assessmentRepo) List(ctx context.Context, opts QueryOpts) ([]Assessment, error) {
	sel := entsql.Dialect(r.dialect).
		Select(assessmentColumns...).
		From(entsql.Table(tableAssessments))
	if opts.Verdict != "" {
		sel.Where(entsql.EQ("verdict", opts.Verdict))
	}
	applyTimeRange(sel, opts)
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *assessmentRepo) AttachReport(ctx context.Context, id, report string) error {
	query, args := entsql.Dialect(r.dialect).
		Update(tableAssessments).
		Set("report", report).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("attach report to %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach report to %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("attach report to %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*Assessment, error) {
	var a Assessment
	err := row.Scan(
		&a.ID, &a.Sequence, &a.Timestamp, &a.SubjectID, &a.SubjectName,
		&a.Score, &a.Verdict, &a.LatencySignal, &a.CadenceSignal, &a.GazeSignal,
		&a.DeltaMs, &a.CadenceVariance, &a.GazeDrift, &a.Thresholds, &a.Report,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// applyTimeRange adds the From/To bounds of opts to sel.
func applyTimeRange(sel *entsql.Selector, opts QueryOpts) {
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("timestamp", opts.To.UTC()))
	}
}
