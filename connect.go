package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/wesnick/mailctl/pkg/mailctl"
	"github.com/wesnick/mailctl/pkg/mailctl/engine"
	"github.com/wesnick/mailctl/pkg/mailctl/gmail"
)

const cacheTTL = 5 * time.Minute

// getProvider builds the Gmail-backed provider from the config
// directory's credentials.
func getProvider(ctx context.Context, cli CLI) (engine.Provider, error) {
	paths, err := mailctl.GetConfigPaths(cli.ConfigDir)
	if err != nil {
		return nil, err
	}
	svc, err := mailctl.NewGmailService(ctx, paths, cli.User)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to Gmail")
	}
	var cache *mailctl.Cache
	if !cli.NoCache {
		cache = mailctl.NewCache(paths.Dir+"/cache", cacheTTL)
	}
	return gmail.NewClient(svc, cache), nil
}

// loadRules reads and validates the desired-state document.
func loadRules(path string) ([]engine.RuleSpec, error) {
	cfg, err := mailctl.ReadConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg.Filters, nil
}

// buildPlan fetches live state and diffs the config against it.
func buildPlan(ctx context.Context, p engine.Provider, rules []engine.RuleSpec, deleteMissing bool) (engine.Plan, error) {
	live, err := p.ListFilters(ctx)
	if err != nil {
		return engine.Plan{}, errors.Wrap(err, "listing filters")
	}
	byName, err := p.LabelIDMap(ctx)
	if err != nil {
		return engine.Plan{}, errors.Wrap(err, "fetching label map")
	}
	idToName := make(map[string]string, len(byName))
	for name, id := range byName {
		idToName[id] = name
	}
	return engine.Diff(rules, live, idToName, deleteMissing), nil
}
