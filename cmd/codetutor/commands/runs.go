package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
	"git.home.luguber.info/inful/codetutor/internal/journal"
)

// RunsCmd implements the 'runs' command.
type RunsCmd struct {
	Journal string        `help:"SQLite run journal path (config: observability.journal_path)"`
	RunID   string        `name:"run" help:"Show the events of this run id"`
	Since   time.Duration `help:"Only list runs started within this window, e.g. 24h (0 lists all)"`

	out io.Writer
}

func (r *RunsCmd) Run(glob *Global, root *CLI) error {
	path := r.Journal
	if path == "" {
		cfg, err := root.LoadConfig()
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load configuration").Build()
		}
		path = cfg.Observability.JournalPath
	}
	if path == "" {
		return ferrors.ConfigError("no journal configured; pass --journal or set observability.journal_path").Build()
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ferrors.FileSystemError("journal not found").WithContext("path", path).Build()
	}

	store, err := journal.OpenSQLite(path)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to open journal").Build()
	}
	defer func() { _ = store.Close() }()

	out := r.out
	if out == nil {
		out = os.Stdout
	}
	ctx := glob.context()
	if r.RunID != "" {
		events, err := store.ByRun(ctx, r.RunID)
		if err != nil {
			return err
		}
		return writeEvents(out, events)
	}
	runs, err := journal.Runs(ctx, store, r.Since)
	if err != nil {
		return err
	}
	return writeRuns(out, runs)
}

func writeRuns(w io.Writer, runs []journal.RunSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN ID\tSTARTED\tOUTCOME\tPROJECT\tCHAPTERS\tRETRIES\tSOURCE")
	for _, r := range runs {
		outcome := r.Outcome
		if outcome == "" {
			outcome = "incomplete"
		}
		if r.FailedPhase != "" {
			outcome += " (" + r.FailedPhase + ")"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.RunID, r.StartedAt.Format(time.RFC3339), outcome, r.Project, r.Chapters, r.Retries, r.Source)
	}
	return tw.Flush()
}

func writeEvents(w io.Writer, events []journal.Event) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "no events")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tEVENT\tPAYLOAD")
	for _, e := range events {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp.Format(time.RFC3339), e.Type, e.Payload)
	}
	return tw.Flush()
}
