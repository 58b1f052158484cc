package main

import (
	"context"
	"fmt"

	"github.com/wesnick/mailctl/pkg/mailctl/engine"
)

// tokenUpdates fetches live state and plans the token rewrites.
func tokenUpdates(ctx context.Context, p engine.Provider, prefix, needle string,
	add bool, tokens []string) ([]engine.TokenUpdate, error) {
	live, err := p.ListFilters(ctx)
	if err != nil {
		return nil, err
	}
	byName, err := p.LabelIDMap(ctx)
	if err != nil {
		return nil, err
	}
	idToName := make(map[string]string, len(byName))
	for name, id := range byName {
		idToName[id] = name
	}
	if add {
		return engine.AddTokens(live, idToName, prefix, needle, tokens), nil
	}
	return engine.RemoveTokens(live, idToName, prefix, needle, tokens), nil
}

func writeTokenUpdates(ctx context.Context, p engine.Provider, updates []engine.TokenUpdate,
	dryRun bool, out *outputWriter) error {
	for _, u := range updates {
		out.writeVerbose("filter %s: %q -> %q", u.Old.ID, u.Old.Criteria.From, u.NewFrom)
	}
	n, err := engine.ApplyTokenUpdates(ctx, p, updates, dryRun)
	if err != nil {
		return err
	}
	if out.json {
		return out.writeJSON(map[string]int{"updated": n})
	}
	out.writeMessage(fmt.Sprintf("Updated %d filters.", n))
	return nil
}

func runAddFromToken(ctx context.Context, cli CLI, out *outputWriter) error {
	provider, err := getProvider(ctx, cli)
	if err != nil {
		return err
	}
	updates, err := tokenUpdates(ctx, provider,
		cli.AddFromToken.LabelPrefix, cli.AddFromToken.Needle, true, cli.AddFromToken.Add)
	if err != nil {
		return err
	}
	return writeTokenUpdates(ctx, provider, updates, cli.AddFromToken.DryRun, out)
}

func runRmFromToken(ctx context.Context, cli CLI, out *outputWriter) error {
	provider, err := getProvider(ctx, cli)
	if err != nil {
		return err
	}
	updates, err := tokenUpdates(ctx, provider,
		cli.RmFromToken.LabelPrefix, cli.RmFromToken.Needle, false, cli.RmFromToken.Remove)
	if err != nil {
		return err
	}
	return writeTokenUpdates(ctx, provider, updates, cli.RmFromToken.DryRun, out)
}
