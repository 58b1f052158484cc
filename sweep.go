package main

import (
	"context"
	"fmt"

	"github.com/wesnick/mailctl/pkg/mailctl/engine"
)

func newSweeper(p engine.Provider, pages, batchSize, maxMsgs int, onlyInbox, dryRun bool) *engine.Sweeper {
	s := engine.NewSweeper(p)
	if pages > 0 {
		s.Pages = pages
	}
	if batchSize > 0 {
		s.BatchSize = batchSize
	}
	s.MaxMsgs = maxMsgs
	s.OnlyInbox = onlyInbox
	s.DryRun = dryRun
	return s
}

func writeSweepResult(res engine.SweepResult, out *outputWriter) error {
	if out.json {
		return out.writeJSON(res)
	}
	out.writeMessage(fmt.Sprintf("%d rules: %d messages matched, %d modified in %d batches.",
		res.Rules, res.Matched, res.Modified, res.Batches))
	return nil
}

func runSweep(ctx context.Context, cli CLI, out *outputWriter) error {
	rules, err := loadRules(cli.Sweep.Config)
	if err != nil {
		return err
	}
	provider, err := getProvider(ctx, cli)
	if err != nil {
		return err
	}
	s := newSweeper(provider, cli.Sweep.Pages, cli.Sweep.BatchSize, cli.Sweep.MaxMsgs,
		cli.Sweep.OnlyInbox, cli.Sweep.DryRun)
	res, err := s.Sweep(ctx, rules, engine.Window{NewerThanDays: cli.Sweep.Days})
	if err != nil {
		return err
	}
	return writeSweepResult(res, out)
}

func runSweepRange(ctx context.Context, cli CLI, out *outputWriter) error {
	rules, err := loadRules(cli.SweepRange.Config)
	if err != nil {
		return err
	}
	provider, err := getProvider(ctx, cli)
	if err != nil {
		return err
	}
	s := newSweeper(provider, cli.SweepRange.Pages, cli.SweepRange.BatchSize, cli.SweepRange.MaxMsgs,
		false, cli.SweepRange.DryRun)
	res, err := s.SweepRange(ctx, rules, cli.SweepRange.FromDays, cli.SweepRange.ToDays, cli.SweepRange.StepDays)
	if err != nil {
		return err
	}
	return writeSweepResult(res, out)
}

func runImpact(ctx context.Context, cli CLI, out *outputWriter) error {
	rules, err := loadRules(cli.Impact.Config)
	if err != nil {
		return err
	}
	provider, err := getProvider(ctx, cli)
	if err != nil {
		return err
	}
	s := newSweeper(provider, cli.Impact.Pages, 0, 0, cli.Impact.OnlyInbox, true)
	rows, err := s.Impact(ctx, rules, engine.Window{NewerThanDays: cli.Impact.Days})
	if err != nil {
		return err
	}

	if out.json {
		return out.writeJSON(rows)
	}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{fmt.Sprintf("%d", r.Matched), truncateString(r.Query, 80)})
	}
	return out.writeTable([]string{"MATCHED", "QUERY"}, table)
}
