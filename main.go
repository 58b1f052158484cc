package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	log "github.com/sirupsen/logrus"

	"github.com/wesnick/mailctl/pkg/mailctl/engine"
)

var version = "dev"

type CLI struct {
	ConfigDir string `help:"Config directory path" default:"~/.config/mailctl" type:"path" name:"config-dir"`
	User      string `help:"User email for service account impersonation (required for service accounts)"`
	JSON      bool   `help:"JSON output format"`
	Verbose   bool   `help:"Verbose logging"`
	NoColor   bool   `help:"Disable colored output"`
	NoCache   bool   `help:"Bypass the listing cache"`

	Version struct{} `cmd:"" help:"Show version"`

	Plan struct {
		Config        string `required:"" help:"Desired-state file (YAML or jsonnet)" type:"path"`
		DeleteMissing bool   `help:"Plan deletion of live filters absent from the config" name:"delete-missing"`
	} `cmd:"" help:"Show what sync would change, without changing anything"`

	Sync struct {
		Config                 string `required:"" help:"Desired-state file (YAML or jsonnet)" type:"path"`
		DryRun                 bool   `help:"Log mutations instead of performing them" name:"dry-run"`
		DeleteMissing          bool   `help:"Delete live filters absent from the config" name:"delete-missing"`
		RequireForwardVerified bool   `help:"Refuse to sync if a forward address is unverified" name:"require-forward-verified"`
	} `cmd:"" help:"Reconcile live filters with the config"`

	List   struct{} `cmd:"" help:"List live filters"`
	Labels struct{} `cmd:"" help:"List labels"`

	Export struct {
		Out string `required:"" help:"Output file" type:"path" short:"o"`
	} `cmd:"" help:"Export live filters to a desired-state YAML document"`

	Sweep struct {
		Config    string `required:"" help:"Desired-state file (YAML or jsonnet)" type:"path"`
		Days      int    `required:"" help:"Apply rules to messages newer than this many days"`
		OnlyInbox bool   `help:"Restrict to messages in the inbox" name:"only-inbox"`
		Pages     int    `help:"Max search pages per rule" default:"10"`
		BatchSize int    `help:"Messages per batch modify call" default:"1000" name:"batch-size"`
		MaxMsgs   int    `help:"Cap messages modified per rule (0 = unlimited)" name:"max-msgs"`
		DryRun    bool   `help:"Print queries and batch sizes instead of modifying" name:"dry-run"`
	} `cmd:"" help:"Retroactively apply rule actions to recent messages"`

	SweepRange struct {
		Config    string `required:"" help:"Desired-state file (YAML or jsonnet)" type:"path"`
		FromDays  int    `required:"" help:"Range start, in days of age" name:"from-days"`
		ToDays    int    `required:"" help:"Range end, in days of age" name:"to-days"`
		StepDays  int    `required:"" help:"Window width in days" name:"step-days"`
		Pages     int    `help:"Max search pages per rule per window" default:"10"`
		BatchSize int    `help:"Messages per batch modify call" default:"1000" name:"batch-size"`
		MaxMsgs   int    `help:"Cap messages modified per rule per window (0 = unlimited)" name:"max-msgs"`
		DryRun    bool   `help:"Print queries and batch sizes instead of modifying" name:"dry-run"`
	} `cmd:"" aliases:"sweep-range" help:"Sweep a day range in windowed steps"`

	Impact struct {
		Config    string `required:"" help:"Desired-state file (YAML or jsonnet)" type:"path"`
		Days      int    `help:"Sampling window in days" default:"90"`
		OnlyInbox bool   `help:"Restrict to messages in the inbox" name:"only-inbox"`
		Pages     int    `help:"Max search pages per rule" default:"10"`
	} `cmd:"" help:"Sample how many messages each rule matches"`

	PruneEmpty struct {
		Days      int  `help:"Sampling window in days" default:"180"`
		Pages     int  `help:"Max search pages per filter" default:"10"`
		OnlyInbox bool `help:"Restrict to messages in the inbox" name:"only-inbox"`
		DryRun    bool `help:"Report instead of deleting" name:"dry-run"`
	} `cmd:"" aliases:"prune-empty" help:"Delete live filters matching no messages in the sampled window"`

	AddFromToken struct {
		LabelPrefix string   `required:"" help:"Label name or prefix selecting the filters" name:"label-prefix"`
		Needle      string   `required:"" help:"Substring the from-criterion must contain"`
		Add         []string `required:"" help:"Sender tokens to add"`
		DryRun      bool     `help:"Show rewrites instead of applying them" name:"dry-run"`
	} `cmd:"" aliases:"add-from-token" help:"Add sender tokens to matching filters"`

	RmFromToken struct {
		LabelPrefix string   `required:"" help:"Label name or prefix selecting the filters" name:"label-prefix"`
		Needle      string   `required:"" help:"Substring the from-criterion must contain"`
		Remove      []string `required:"" help:"Sender tokens to remove"`
		DryRun      bool     `help:"Show rewrites instead of applying them" name:"dry-run"`
	} `cmd:"" aliases:"rm-from-token" help:"Remove sender tokens from matching filters"`

	AddForwardByLabel struct {
		LabelPrefix            string `required:"" help:"Label name or prefix selecting the filters" name:"label-prefix"`
		Email                  string `required:"" help:"Forwarding address to add"`
		RequireForwardVerified bool   `help:"Refuse unless the address is verified" name:"require-forward-verified"`
		DryRun                 bool   `help:"Show changes instead of applying them" name:"dry-run"`
	} `cmd:"" aliases:"add-forward-by-label" help:"Add a forward action to filters under a label prefix"`

	DeleteFilter struct {
		ID string `required:"" help:"Filter id to delete"`
	} `cmd:"" aliases:"delete-filter" help:"Delete one live filter by id"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("mailctl"),
		kong.Description("Declarative mailbox filter management"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	out := newOutputWriter(cli.JSON, cli.NoColor, cli.Verbose)
	cmdCtx := context.Background()

	var err error
	switch ctx.Command() {
	case "version":
		fmt.Printf("mailctl %s\n", version)

	case "plan":
		err = runPlan(cmdCtx, cli, cli.Plan.Config, cli.Plan.DeleteMissing, out)

	case "sync":
		err = runSync(cmdCtx, cli, out)

	case "list":
		err = runList(cmdCtx, cli, out)

	case "labels":
		err = runLabels(cmdCtx, cli, out)

	case "export":
		err = runExport(cmdCtx, cli, cli.Export.Out, out)

	case "sweep":
		err = runSweep(cmdCtx, cli, out)

	case "sweep-range":
		err = runSweepRange(cmdCtx, cli, out)

	case "impact":
		err = runImpact(cmdCtx, cli, out)

	case "prune-empty":
		err = runPruneEmpty(cmdCtx, cli, out)

	case "add-from-token":
		err = runAddFromToken(cmdCtx, cli, out)

	case "rm-from-token":
		err = runRmFromToken(cmdCtx, cli, out)

	case "add-forward-by-label":
		err = runAddForwardByLabel(cmdCtx, cli, out)

	case "delete-filter":
		err = runDeleteFilter(cmdCtx, cli, cli.DeleteFilter.ID, out)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", ctx.Command())
		os.Exit(1)
	}

	if err != nil {
		out.writeError(err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to process exit codes. A failed precondition
// gate gets its own code so scripts can tell "refused to start" from
// "started and failed".
func exitCode(err error) int {
	var perr *engine.PreconditionError
	if errors.As(err, &perr) {
		return 2
	}
	return 1
}
