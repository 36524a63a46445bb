// Package bootstrap brings a Postgres database to the state the platform expects.
//
// Every step checks for its object before creating it, so Run can be repeated
// against an initialized database: the second run reports each step as present
// (or skipped) and issues no DDL.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	gormadapter "github.com/climanegocios/platform/pkg/platform/adapter/database/gorm"
	"github.com/climanegocios/platform/pkg/platform/component/migration"
	"github.com/climanegocios/platform/pkg/platform/core/metrics"
	"github.com/climanegocios/platform/pkg/platform/core/retry"
	"github.com/climanegocios/platform/pkg/platform/support/util/exception"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

const moduleName = "bootstrap"

// Defaults for WaitForDatabase.
const (
	DefaultWaitAttempts = 30
	DefaultWaitDelay    = 2 * time.Second
	pingTimeout         = 5 * time.Second
)

// Bootstrapper runs the initialization steps against one database.
type Bootstrapper struct {
	db         *sql.DB
	steps      []Step
	recorder   metrics.MetricRecorder
	waitPolicy retry.RetryPolicy
	tracer     trace.Tracer
}

// Option customizes a Bootstrapper.
type Option func(*Bootstrapper)

// WithRecorder records each step outcome.
func WithRecorder(r metrics.MetricRecorder) Option {
	return func(b *Bootstrapper) { b.recorder = r }
}

// WithWaitPolicy replaces the policy used while waiting for the database.
func WithWaitPolicy(p retry.RetryPolicy) Option {
	return func(b *Bootstrapper) { b.waitPolicy = p }
}

// WithSteps replaces the default step list.
func WithSteps(steps ...Step) Option {
	return func(b *Bootstrapper) { b.steps = steps }
}

// New creates a Bootstrapper running DefaultSteps with the given migrations.
func New(db *sql.DB, m migration.Migrator, migrationsFS fs.FS, migrationsPath string, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		db:         db,
		steps:      DefaultSteps(db, m, migrationsFS, migrationsPath, migration.DefaultMigrationsTable),
		waitPolicy: retry.NewFixedRetryPolicy(DefaultWaitAttempts, DefaultWaitDelay),
		tracer:     otel.Tracer("github.com/climanegocios/platform/internal/bootstrap"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Steps returns the steps in execution order.
func (b *Bootstrapper) Steps() []Step {
	return b.steps
}

// WaitForDatabase pings until the database answers or the wait policy gives up.
func (b *Bootstrapper) WaitForDatabase(ctx context.Context) error {
	return retry.Do(ctx, b.waitPolicy, "database ping", func(ctx context.Context) error {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := b.db.PingContext(pctx); err != nil {
			return exception.NewPlatformError(moduleName, "database is not reachable", err, true)
		}
		return nil
	})
}

// Run waits for the database and executes every step in order. It stops at the
// first failing step; the returned report covers the steps run so far.
func (b *Bootstrapper) Run(ctx context.Context) (Report, error) {
	var report Report

	if err := b.WaitForDatabase(ctx); err != nil {
		return report, err
	}
	logger.Infof("Database reachable, running %d bootstrap steps.", len(b.steps))

	for _, step := range b.steps {
		res := b.runStep(ctx, step)
		report.Results = append(report.Results, res)
		if res.Err != nil {
			return report, exception.NewPlatformErrorf(moduleName, "step '%s' failed", step.Name, res.Err)
		}
	}
	logger.Infof("Bootstrap finished: %s.", report.Summary())
	return report, nil
}

func (b *Bootstrapper) runStep(ctx context.Context, step Step) (res StepResult) {
	ctx, span := b.tracer.Start(ctx, "bootstrap."+step.Phase, trace.WithAttributes(
		attribute.String("bootstrap.step", step.Name),
	))
	start := time.Now()
	res = StepResult{Name: step.Name, Phase: step.Phase}

	defer func() {
		res.Duration = time.Since(start)
		span.SetAttributes(attribute.String("bootstrap.outcome", res.Outcome))
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
		}
		span.End()
		if b.recorder != nil {
			b.recorder.RecordBootstrapStep(step.Name, res.Outcome, res.Duration)
		}
	}()

	fail := func(stage string, err error) StepResult {
		res.Outcome = metrics.OutcomeFailed
		res.Err = fmt.Errorf("%s: %w", stage, err)
		logger.Errorf("Bootstrap step '%s' failed during %s: %v", step.Name, stage, err)
		return res
	}
	skip := func(reason string) StepResult {
		res.Outcome = metrics.OutcomeSkipped
		res.Reason = reason
		logger.Warnf("Bootstrap step '%s' skipped: %s.", step.Name, reason)
		return res
	}

	if step.Ready != nil {
		ok, reason, err := step.Ready(ctx)
		if err != nil {
			return fail("readiness check", err)
		}
		if !ok {
			return skip(reason)
		}
	}

	exists, err := step.Exists(ctx)
	if err != nil {
		return fail("existence check", err)
	}
	if exists {
		res.Outcome = metrics.OutcomePresent
		logger.Debugf("Bootstrap step '%s': already present.", step.Name)
		return res
	}

	if err := step.Apply(ctx); err != nil {
		// The owning table may vanish between the readiness check and the DDL.
		if step.Ready != nil && gormadapter.IsTableNotExistError(err) {
			return skip(err.Error())
		}
		return fail("apply", err)
	}
	res.Outcome = metrics.OutcomeCreated
	logger.Infof("Bootstrap step '%s': created.", step.Name)
	return res
}
