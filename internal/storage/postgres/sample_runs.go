package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/gamzia/internal/histogram"
)

// ErrRunNotFound is returned when a sampling run lookup yields no results.
var ErrRunNotFound = errors.New("sample run not found")

// DefaultListLimit caps ListByExpression when no positive limit is given.
const DefaultListLimit = 20

// Run is a persisted histogram sampling run.
type Run struct {
	ID         uuid.UUID
	Expression string
	RPN        string
	Trials     int64
	Mean       int64
	Mode       int64
	ModeCount  int64
	Columns    int
	Counts     map[int64]int64
	Elapsed    time.Duration
	CreatedAt  time.Time
}

// Report rebuilds the rendered report of the run.
//
// Postcondition: Rows are in ascending outcome order.
func (r Run) Report() *histogram.Report {
	rep := &histogram.Report{
		Expression: r.Expression,
		RPN:        r.RPN,
		Trials:     r.Trials,
		Mean:       r.Mean,
		Mode:       r.Mode,
		ModeCount:  r.ModeCount,
		Columns:    r.Columns,
		Elapsed:    r.Elapsed,
	}
	outcomes := make([]int64, 0, len(r.Counts))
	for o := range r.Counts {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i] < outcomes[j] })
	for _, o := range outcomes {
		rep.Rows = append(rep.Rows, histogram.NewRow(o, r.Counts[o], r.Trials, r.ModeCount, r.Columns))
	}
	return rep
}

// SampleRepository provides sampling-run persistence operations.
type SampleRepository struct {
	db *pgxpool.Pool
}

// NewSampleRepository creates a SampleRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSampleRepository(db *pgxpool.Pool) *SampleRepository {
	return &SampleRepository{db: db}
}

const runColumns = `id, expression, rpn, trials, mean, mode, mode_count, columns, counts, elapsed_ns, created_at`

// Save inserts report as a new run.
//
// Precondition: report must be non-nil with Trials > 0.
// Postcondition: Returns the stored Run with ID and CreatedAt set.
func (r *SampleRepository) Save(ctx context.Context, report *histogram.Report) (Run, error) {
	if report == nil {
		return Run{}, errors.New("saving sample run: nil report")
	}
	counts, err := json.Marshal(report.Counts())
	if err != nil {
		return Run{}, fmt.Errorf("encoding counts: %w", err)
	}

	row := r.db.QueryRow(ctx,
		`INSERT INTO sample_runs (id, expression, rpn, trials, mean, mode, mode_count, columns, counts, elapsed_ns)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+runColumns,
		uuid.New(), report.Expression, report.RPN, report.Trials, report.Mean,
		report.Mode, report.ModeCount, report.Columns, counts, report.Elapsed.Nanoseconds(),
	)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("inserting sample run: %w", err)
	}
	return run, nil
}

// Get retrieves a run by id.
//
// Postcondition: Returns the Run or ErrRunNotFound.
func (r *SampleRepository) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+runColumns+` FROM sample_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("querying sample run: %w", err)
	}
	return run, nil
}

// ListByExpression returns the most recent runs of expression, newest first.
// A non-positive limit selects DefaultListLimit.
//
// Postcondition: Returns an empty slice when no runs match.
func (r *SampleRepository) ListByExpression(ctx context.Context, expression string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+runColumns+` FROM sample_runs
		 WHERE expression = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		expression, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sample runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sample run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sample runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (Run, error) {
	var (
		run       Run
		counts    []byte
		elapsedNS int64
	)
	if err := row.Scan(
		&run.ID, &run.Expression, &run.RPN, &run.Trials, &run.Mean, &run.Mode,
		&run.ModeCount, &run.Columns, &counts, &elapsedNS, &run.CreatedAt,
	); err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal(counts, &run.Counts); err != nil {
		return Run{}, fmt.Errorf("decoding counts: %w", err)
	}
	run.Elapsed = time.Duration(elapsedNS)
	return run, nil
}
