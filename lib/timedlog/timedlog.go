// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package timedlog brackets a slow operation with begin and end log
// lines so the duration of installs and server startups shows up in
// build logs without a separate profiler.
package timedlog

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/nodefmt/lib/clock"
)

// Run logs "[BEGIN] message", runs fn, then logs "[END] message" with
// a took attribute, plus the error when fn fails. Both lines use
// attrs. When the logger has Info disabled, fn runs without logging.
func Run(logger *slog.Logger, clk clock.Clock, message string, attrs []slog.Attr, fn func() error) error {
	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		return fn()
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "[BEGIN] "+message, attrs...)
	start := clk.Now()
	err := fn()
	end := append(attrs[:len(attrs):len(attrs)], slog.Duration("took", clock.Since(clk, start)))
	if err != nil {
		end = append(end, slog.String("error", err.Error()))
		logger.LogAttrs(ctx, slog.LevelWarn, "[END] "+message, end...)
		return err
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "[END] "+message, end...)
	return nil
}
