package main

import (
	"context"

	"github.com/Simplici0/auditdays/internal/apperr"
	"github.com/Simplici0/auditdays/internal/mandays"
	"github.com/Simplici0/auditdays/internal/metrics"
)

// calculate validates input against the active configuration and runs the engine.
// It returns the configuration version the result was computed with.
func (s *server) calculate(ctx context.Context, input mandays.Input) (mandays.Result, int, error) {
	const op = "calculation.compute"

	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return mandays.Result{}, 0, err
	}

	input.Normalize()
	if problems := mandays.ValidateInput(input, cfg); len(problems) > 0 {
		metrics.ObserveCalculation(input.Standard, string(input.AuditType), metrics.OutcomeInvalid, 0, false)
		return mandays.Result{}, 0, apperr.Invalid(op, problems...)
	}

	result, err := mandays.Compute(input, cfg)
	if err != nil {
		metrics.ObserveCalculation(input.Standard, string(input.AuditType), metrics.OutcomeInvalid, 0, false)
		return mandays.Result{}, 0, apperr.FromCompute(op, err)
	}

	metrics.ObserveCalculation(input.Standard, string(input.AuditType), metrics.OutcomeOK, result.TotalManDays, result.Clamped())
	return result, cfg.Version, nil
}
