package main

import (
	"context"
	"fmt"
	"sort"
)

func runLabels(ctx context.Context, cli CLI, out *outputWriter) error {
	provider, err := getProvider(ctx, cli)
	if err != nil {
		return err
	}
	labels, err := provider.ListLabels(ctx)
	if err != nil {
		return err
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].Type != labels[j].Type {
			return labels[i].Type < labels[j].Type
		}
		return labels[i].Name < labels[j].Name
	})

	if out.json {
		return out.writeJSON(labels)
	}
	rows := make([][]string, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, []string{l.ID, l.Name, l.Type, fmt.Sprintf("%d", l.MessagesTotal)})
	}
	return out.writeTable([]string{"ID", "NAME", "TYPE", "MESSAGES"}, rows)
}
