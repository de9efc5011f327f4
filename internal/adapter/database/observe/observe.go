// Package observe wraps repository calls with a span, a duration metric and a query timeout.
package observe

import (
	"context"
	"time"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	tel "todoapi/internal/core/telemetry"
)

const entity = "todo"

type Observer struct {
	telemetry port.Telemetry
	system    string
	timeout   time.Duration
}

func New(telemetry port.Telemetry, system string, timeout time.Duration) *Observer {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &Observer{
		telemetry: telemetry,
		system:    system,
		timeout:   timeout,
	}
}

func (o *Observer) Telemetry() port.Telemetry {
	return o.telemetry
}

// Start opens a repository span and bounds ctx by the configured query timeout. The returned
// finish func must be called exactly once with the operation result.
func (o *Observer) Start(ctx context.Context, operation string, attrs map[string]interface{}) (context.Context, func(error)) {
	spanAttrs := map[string]interface{}{
		"db.system": o.system,
		"db.table":  "todos",
	}

	for key, value := range attrs {
		spanAttrs[key] = value
	}

	ctx, span := o.telemetry.StartRepositorySpan(ctx, operation, entity, spanAttrs)
	startTime := time.Now()

	cancel := func() {}
	if o.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
	}

	return ctx, func(err error) {
		defer span.End()
		defer cancel()

		// a missing row is an expected answer, not a failed operation
		if domain.IsNotFound(err) {
			err = nil
		}

		if err != nil {
			span.SetStatus("error", err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus("ok", "")
		}

		o.telemetry.RecordRepositoryOperation(ctx, operation, entity, time.Since(startTime), err)
	}
}

func (o *Observer) Query(ctx context.Context, operation string, query string, args []interface{}) {
	o.telemetry.RecordRepositoryQuery(ctx, operation, entity, query, args)
}
