package main

import (
	"context"
	"fmt"

	"github.com/wesnick/mailctl/pkg/mailctl"
	"github.com/wesnick/mailctl/pkg/mailctl/engine"
)

func runPlan(ctx context.Context, cli CLI, configPath string, deleteMissing bool, out *outputWriter) error {
	rules, err := loadRules(configPath)
	if err != nil {
		return err
	}
	provider, err := getProvider(ctx, cli)
	if err != nil {
		return err
	}
	plan, err := buildPlan(ctx, provider, rules, deleteMissing)
	if err != nil {
		return err
	}

	if out.json {
		return out.writeJSON(map[string]interface{}{
			"toCreate": plan.ToCreate,
			"toDelete": plan.ToDelete,
		})
	}
	out.writeMessage(engine.RenderPlan(plan, !out.noColor))
	return nil
}

func runSync(ctx context.Context, cli CLI, out *outputWriter) error {
	rules, err := loadRules(cli.Sync.Config)
	if err != nil {
		return err
	}
	provider, err := getProvider(ctx, cli)
	if err != nil {
		return err
	}
	plan, err := buildPlan(ctx, provider, rules, cli.Sync.DeleteMissing)
	if err != nil {
		return err
	}

	e := engine.NewExecutor(provider)
	e.DryRun = cli.Sync.DryRun
	e.RequireForwardVerified = cli.Sync.RequireForwardVerified
	res, syncErr := e.Sync(ctx, plan)

	if out.json {
		if err := out.writeJSON(res); err != nil {
			return err
		}
	} else {
		out.writeMessage(fmt.Sprintf("Created %d, deleted %d, failed %d.",
			res.Created, res.Deleted, res.Failed))
	}
	return syncErr
}

func runList(ctx context.Context, cli CLI, out *outputWriter) error {
	provider, err := getProvider(ctx, cli)
	if err != nil {
		return err
	}
	live, err := provider.ListFilters(ctx)
	if err != nil {
		return err
	}

	if out.json {
		return out.writeJSON(live)
	}
	rows := make([][]string, 0, len(live))
	for _, r := range live {
		rows = append(rows, []string{
			r.ID,
			truncateString(r.Criteria.String(), 60),
			fmt.Sprintf("+%d", len(r.Action.AddLabelIDs)),
			fmt.Sprintf("-%d", len(r.Action.RemoveLabelIDs)),
			r.Action.Forward,
		})
	}
	return out.writeTable([]string{"ID", "CRITERIA", "ADD", "REMOVE", "FORWARD"}, rows)
}

func runExport(ctx context.Context, cli CLI, outPath string, out *outputWriter) error {
	provider, err := getProvider(ctx, cli)
	if err != nil {
		return err
	}
	live, err := provider.ListFilters(ctx)
	if err != nil {
		return err
	}
	byName, err := provider.LabelIDMap(ctx)
	if err != nil {
		return err
	}
	idToName := make(map[string]string, len(byName))
	for name, id := range byName {
		idToName[id] = name
	}

	cfg := mailctl.Config{
		Version: "v1",
		Filters: engine.SpecFromLive(live, idToName),
	}
	if err := mailctl.WriteConfig(outPath, cfg); err != nil {
		return err
	}
	out.writeMessage(fmt.Sprintf("Exported %d filters to %s.", len(cfg.Filters), outPath))
	return nil
}

func runPruneEmpty(ctx context.Context, cli CLI, out *outputWriter) error {
	provider, err := getProvider(ctx, cli)
	if err != nil {
		return err
	}
	e := engine.NewExecutor(provider)
	e.DryRun = cli.PruneEmpty.DryRun
	res, err := e.PruneEmpty(ctx,
		engine.Window{NewerThanDays: cli.PruneEmpty.Days},
		cli.PruneEmpty.OnlyInbox, cli.PruneEmpty.Pages, 500)
	if err != nil {
		return err
	}

	if out.json {
		return out.writeJSON(res)
	}
	out.writeMessage(fmt.Sprintf("Scanned %d filters: %d empty, %d deleted.",
		res.Scanned, res.Empty, res.Deleted))
	return nil
}

func runAddForwardByLabel(ctx context.Context, cli CLI, out *outputWriter) error {
	provider, err := getProvider(ctx, cli)
	if err != nil {
		return err
	}
	n, err := engine.AddForwardByLabel(ctx, provider,
		cli.AddForwardByLabel.LabelPrefix, cli.AddForwardByLabel.Email,
		cli.AddForwardByLabel.RequireForwardVerified, cli.AddForwardByLabel.DryRun)
	if err != nil {
		return err
	}
	out.writeMessage(fmt.Sprintf("Updated %d filters.", n))
	return nil
}

func runDeleteFilter(ctx context.Context, cli CLI, id string, out *outputWriter) error {
	provider, err := getProvider(ctx, cli)
	if err != nil {
		return err
	}
	if err := provider.DeleteFilter(ctx, id); err != nil {
		return err
	}
	out.writeMessage(fmt.Sprintf("Deleted filter %s.", id))
	return nil
}
