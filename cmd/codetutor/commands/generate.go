package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/codetutor/internal/assemble"
	"git.home.luguber.info/inful/codetutor/internal/config"
	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
	"git.home.luguber.info/inful/codetutor/internal/git"
	"git.home.luguber.info/inful/codetutor/internal/journal"
	"git.home.luguber.info/inful/codetutor/internal/llm"
	"git.home.luguber.info/inful/codetutor/internal/logfields"
	"git.home.luguber.info/inful/codetutor/internal/metrics"
	"git.home.luguber.info/inful/codetutor/internal/notify"
	"git.home.luguber.info/inful/codetutor/internal/prompt"
	"git.home.luguber.info/inful/codetutor/internal/retry"
	"git.home.luguber.info/inful/codetutor/internal/source"
	"git.home.luguber.info/inful/codetutor/internal/tutorial"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/models"
	"git.home.luguber.info/inful/codetutor/internal/tutorial/stages"
	"git.home.luguber.info/inful/codetutor/internal/workspace"
)

// fetchTimeout bounds the download of a --url argument.
const fetchTimeout = 2 * time.Minute

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Repo string `help:"GitHub repository URL or owner/repo shorthand" group:"Source"`
	Dir  string `help:"Local directory to read" type:"path" group:"Source"`
	File string `help:"Single local file to read" type:"path" group:"Source"`
	URL  string `name:"url" help:"http(s) URL to download, or a local file path" group:"Source"`

	Name    string   `short:"n" help:"Project name (derived from the source when empty)"`
	Token   string   `short:"t" env:"GITHUB_TOKEN" help:"Repository access token"`
	Output  string   `short:"o" help:"Output root directory (config: output.directory)"`
	Include []string `short:"i" help:"Include glob pattern (repeatable, replaces the defaults)"`
	Exclude []string `short:"e" help:"Exclude glob pattern (repeatable, replaces the defaults)"`
	MaxSize int64    `short:"s" name:"max-size" help:"Maximum file size in bytes"`

	Language        string `help:"Tutorial language (config: tutorial.language)"`
	MaxAbstractions int    `name:"max-abstractions" help:"Upper bound on identified abstractions"`
	Model           string `help:"Model name (config: llm.model)"`
	BaseURL         string `name:"base-url" help:"OpenAI compatible endpoint (config: llm.base_url)"`
	MaxRetries      int    `name:"max-retries" default:"-1" help:"Retries per model step; -1 keeps the configured value"`

	Report      string `help:"Write the JSON run report to this path"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in textfile format to this path"`
	Journal     string `help:"SQLite run journal path"`
	NATSURL     string `name:"nats-url" help:"Publish run events to this NATS server"`
}

// Validate enforces exactly one source flag.
func (g *GenerateCmd) Validate() error {
	n := 0
	for _, v := range []string{g.Repo, g.Dir, g.File, g.URL} {
		if v != "" {
			n++
		}
	}
	if n != 1 {
		return errors.New("exactly one of --repo, --dir, --file or --url is required")
	}
	if g.MaxRetries < -1 {
		return errors.New("--max-retries cannot be negative")
	}
	return nil
}

func (g *GenerateCmd) Run(glob *Global, root *CLI) error {
	ctx := glob.context()

	cfg, err := root.LoadConfig()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load configuration").Build()
	}
	g.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid configuration").Build()
	}
	if cfg.LLM.APIKey == "" && cfg.LLM.BaseURL == "" {
		return ferrors.ConfigError("no API key for the language model; set OPENAI_API_KEY or llm.api_key").Build()
	}

	ws := workspace.NewManager("")
	if err := ws.Create(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create workspace").Build()
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to clean up workspace", logfields.Error(err))
		}
	}()

	info, err := g.sourceInfo(ctx, ws.GetPath())
	if err != nil {
		return err
	}
	return execute(ctx, cfg, info, ws.GetPath())
}

func (g *GenerateCmd) applyOverrides(cfg *config.Config) {
	if g.Output != "" {
		cfg.Output.Directory = g.Output
	}
	if len(g.Include) > 0 {
		cfg.Source.Include = g.Include
	}
	if len(g.Exclude) > 0 {
		cfg.Source.Exclude = g.Exclude
	}
	if g.MaxSize > 0 {
		cfg.Source.MaxFileSize = g.MaxSize
	}
	if g.Language != "" {
		cfg.Tutorial.Language = g.Language
	}
	if g.MaxAbstractions > 0 {
		cfg.Tutorial.MaxAbstractions = g.MaxAbstractions
	}
	if g.Model != "" {
		cfg.LLM.Model = g.Model
	}
	if g.BaseURL != "" {
		cfg.LLM.BaseURL = g.BaseURL
	}
	if g.MaxRetries >= 0 {
		cfg.Retry.MaxRetries = g.MaxRetries
	}
	obs := &cfg.Observability
	if g.Report != "" {
		obs.ReportPath = g.Report
	}
	if g.MetricsFile != "" {
		obs.MetricsTextfile = g.MetricsFile
	}
	if g.Journal != "" {
		obs.JournalPath = g.Journal
	}
	if g.NATSURL != "" {
		obs.NATSURL = g.NATSURL
		if obs.NATSSubject == "" {
			obs.NATSSubject = config.DefaultNATSSubject
		}
	}
}

// sourceInfo describes the requested source. URL arguments are resolved to a
// local file first; a downloaded HTML page lends its title to the project name,
// other downloads are named after the URL path.
func (g *GenerateCmd) sourceInfo(ctx context.Context, scratch string) (models.SourceInfo, error) {
	info := models.SourceInfo{Name: g.Name}
	switch {
	case g.Repo != "":
		info.RepoURL = g.Repo
		info.Token = g.Token
	case g.Dir != "":
		info.LocalDir = g.Dir
	case g.File != "":
		info.File = g.File
	default:
		fetched, err := source.ResolveURL(ctx, &http.Client{Timeout: fetchTimeout}, g.URL, scratch)
		if err != nil {
			return info, err
		}
		info.URL = g.URL
		info.File = fetched.Path
		if info.Name == "" {
			info.Name = fetched.TitleHint
		}
		if info.Name == "" {
			info.Name = fetched.NameHint
		}
	}
	return info, nil
}

// execute wires the pipeline from cfg and runs it once.
func execute(ctx context.Context, cfg *config.Config, info models.SourceInfo, scratch string) error {
	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		registry *prom.Registry
	)
	if cfg.Observability.MetricsTextfile != "" {
		pr := metrics.NewPrometheusRecorder(prom.NewRegistry())
		recorder, registry = pr, pr.Registry()
	}

	policy := retry.FromConfig(cfg.Retry)
	client, err := llm.NewOpenAIClient(cfg.LLM, nil)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid llm configuration").Build()
	}
	cloner := git.NewClient(scratch).WithRetryPolicy(policy).WithRecorder(recorder)

	deps := stages.Deps{
		Selector:        source.NewSelector(cloner),
		Generator:       llm.NewMetered(client, client.Model(), cfg.LLM.TimeoutDuration(), recorder),
		Prompts:         prompt.NewLoader(),
		Assembler:       assemble.New(),
		Policy:          policy,
		Recorder:        recorder,
		PromptBudget:    cfg.Source.PromptBudget,
		MaxAbstractions: cfg.Tutorial.MaxAbstractions,
	}

	opts, closeObservers := observers(cfg.Observability)
	defer closeObservers()

	slog.Info("Generating tutorial",
		logfields.Repository(info.Location()),
		logfields.Model(client.Model()),
		slog.String("language", cfg.Tutorial.Language),
		slog.String("retry_policy", policy.String()))

	orc := tutorial.NewOrchestrator(deps, opts...)
	st, report, runErr := orc.Run(ctx, tutorial.Request{
		Source: info,
		Selection: models.SelectionParams{
			Include:     cfg.Source.Include,
			Exclude:     cfg.Source.Exclude,
			MaxFileSize: cfg.Source.MaxFileSize,
		},
		Language:   cfg.Tutorial.Language,
		OutputRoot: cfg.Output.Directory,
	})

	if path := cfg.Observability.ReportPath; path != "" {
		if err := report.Persist(path); err != nil {
			slog.Warn("Failed to write run report", logfields.Path(path), logfields.Error(err))
		}
	}
	if registry != nil {
		if err := metrics.WriteTextfile(cfg.Observability.MetricsTextfile, registry); err != nil {
			slog.Warn("Failed to write metrics", logfields.Path(cfg.Observability.MetricsTextfile), logfields.Error(err))
		}
	}

	if runErr != nil {
		return runErr
	}
	fmt.Printf("Tutorial written to %s\n", st.FinalOutputDir())
	return nil
}

// observers opens the optional journal and NATS connection. Either failing
// to open is logged and the run continues without it.
func observers(obs config.ObservabilityConfig) ([]tutorial.Option, func()) {
	var (
		opts    []tutorial.Option
		closers []func()
	)
	if obs.JournalPath != "" {
		store, err := journal.OpenSQLite(obs.JournalPath)
		if err != nil {
			slog.Warn("Run journal unavailable", logfields.Path(obs.JournalPath), logfields.Error(err))
		} else {
			opts = append(opts, tutorial.WithObserver(journal.NewObserver(store)))
			closers = append(closers, func() { _ = store.Close() })
		}
	}
	if obs.NATSURL != "" {
		client, err := notify.Connect(obs.NATSURL)
		if err != nil {
			slog.Warn("Event publishing unavailable", logfields.URL(obs.NATSURL), logfields.Error(err))
		} else {
			opts = append(opts, tutorial.WithObserver(notify.NewObserver(client, obs.NATSSubject)))
			closers = append(closers, client.Close)
		}
	}
	return opts, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}
