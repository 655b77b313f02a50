package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/elayon/psiq/internal/capture"
	"github.com/elayon/psiq/internal/cli"
	"github.com/elayon/psiq/internal/config"
	"github.com/elayon/psiq/internal/locale"
	"github.com/elayon/psiq/internal/logging"
	"github.com/elayon/psiq/internal/report"
	"github.com/elayon/psiq/internal/store"
	"github.com/elayon/psiq/internal/workflow"
	"github.com/joho/godotenv"
)

var (
	version = "0.1.0"
)

// versionFlag prints the styled version banner and exits before any
// command is required.
type versionFlag bool

func (versionFlag) BeforeApply(app *kong.Kong) error {
	cli.PrintVersion(version)
	app.Exit(0)
	return nil
}

// CLI defines the command-line interface
type CLI struct {
	Version versionFlag `short:"v" help:"Show version information"`
	Config  string      `short:"c" type:"path" help:"Path to YAML config file (optional)"`

	Capture struct {
		Subject     string `help:"Free-text subject reference shown on the session card"`
		Location    string `help:"Free-text location reference shown on the session card"`
		Device      string `help:"Capture device name (default: system default)"`
		MaxDuration int    `name:"max-duration" help:"Recording cap in seconds (0 uses the config value)"`
	} `cmd:"" help:"Record a session with the live indicator screen"`

	Review struct {
		List struct{} `cmd:"" default:"1" help:"List stored sessions, newest first"`
		Show struct {
			ID string `arg:"" help:"Session id"`
		} `cmd:"" help:"Show one session in full"`
		Note struct {
			ID   string `arg:"" help:"Session id"`
			Text string `arg:"" optional:"" help:"Note text (empty clears the note)"`
		} `cmd:"" help:"Set the reviewer note of a session"`
		Delete struct {
			ID  string `arg:"" help:"Session id"`
			Yes bool   `short:"y" help:"Confirm the deletion"`
		} `cmd:"" help:"Delete a session and its audio"`
		Play struct {
			ID string `arg:"" help:"Session id"`
		} `cmd:"" help:"Play a session's audio"`
		ExportAudio struct {
			ID  string `arg:"" help:"Session id"`
			Out string `short:"o" type:"path" help:"Output WAV path (default: <id>.wav)"`
		} `cmd:"" name:"export-audio" help:"Write a session's audio to a WAV file"`
		Report struct {
			Out    string `short:"o" help:"Output path, or - for stdout (default: generated file name)"`
			Format string `short:"f" default:"json" enum:"json,yaml,yml" help:"Report encoding (json, yaml)"`
		} `cmd:"" help:"Export the anonymized report of all sessions"`
		Identity struct {
			Name       string `help:"Reviewer name"`
			Credential string `help:"Reviewer credential id"`
		} `cmd:"" help:"Show or set the reviewer identity used in reports"`
	} `cmd:"" help:"Review stored sessions"`

	Ingest struct {
		File   string `arg:"" help:"Report file, or - for stdin"`
		Format string `short:"f" help:"Report encoding: json or yaml (default: by file extension)"`
	} `cmd:"" help:"Read an anonymized report and print its cards"`

	Analyse struct {
		File  string `arg:"" type:"existingfile" help:"WAV file to score"`
		Logs  bool   `help:"Save a detailed analysis log next to the file"`
		NoHum bool   `name:"no-hum-filter" help:"Disable the mains hum notch"`
	} `cmd:"" aliases:"analyze" help:"Score a WAV file offline"`

	Devices struct{} `cmd:"" help:"List capture devices"`
}

func main() {
	// A missing .env is normal
	_ = godotenv.Load()

	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("psiq"),
		kong.Description("Voice indicator capture and review"),
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if err := run(kctx.Command(), cliArgs); err != nil {
		var malformed *report.MalformedError
		switch {
		case errors.As(err, &malformed):
			cli.PrintError(fmt.Sprintf("Invalid report: %v", malformed))
		default:
			cli.PrintError(err.Error())
		}
		os.Exit(1)
	}
}

func run(command string, args *CLI) error {
	cfgPath := args.Config
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(os.Getenv)
	if args.Capture.MaxDuration > 0 {
		cfg.Capture.MaxDurationSeconds = args.Capture.MaxDuration
	}
	if args.Capture.Device != "" {
		cfg.Capture.Device = args.Capture.Device
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closeLog, err := logging.OpenDebugLog(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closeLog()
	log.Info("starting", "version", version, "command", command, "config", cfgPath)

	loc := locale.Detect()
	log.Debug("locale", "timezone", loc.Timezone, "country", loc.Country, "mains_hz", loc.MainsHz)
	humHz := 0.0
	if cfg.Capture.HumFilter {
		humHz = float64(loc.MainsHz)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Commands that never touch the session store
	switch command {
	case "devices":
		return listDevices()
	case "ingest <file>":
		in := &workflow.Ingest{Path: args.Ingest.File, In: os.Stdin, Out: os.Stdout, Locale: loc}
		if args.Ingest.Format != "" {
			f, err := report.ParseFormat(args.Ingest.Format)
			if err != nil {
				return err
			}
			in.Format = &f
		}
		return in.Run(ctx)
	case "analyse <file>":
		if args.Analyse.NoHum {
			humHz = 0
		}
		a := &workflow.Analyse{
			Path:      args.Analyse.File,
			HumHz:     humHz,
			BlockSize: cfg.Capture.BlockSize,
			WriteLog:  args.Analyse.Logs,
			Out:       os.Stdout,
			Logger:    log,
		}
		return a.Run(ctx)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	sessions := store.NewAsync(db)
	defer sessions.Flush()
	log.Info("store opened", "path", cfg.Storage.Path)

	var wf workflow.Workflow
	switch command {
	case "capture":
		wf = &workflow.Capture{
			Source:      capture.NewDevice(cfg.Capture.Device, cfg.Capture.SampleRate, cfg.Capture.BlockSize),
			Persister:   sessions,
			MaxDuration: cfg.Capture.MaxDuration(),
			HumHz:       humHz,
			SubjectRef:  args.Capture.Subject,
			LocationRef: args.Capture.Location,
			Logger:      log,
		}
	default:
		r, err := newReview(command, args, cfg, cfgPath)
		if err != nil {
			return err
		}
		r.Store = sessions
		r.Locale = loc
		r.Logger = log
		wf = r
	}

	start := time.Now()
	err = wf.Run(ctx)
	log.Info("finished", "workflow", wf.Kind(), "elapsed", time.Since(start), "error", err)
	return err
}

func newReview(command string, args *CLI, cfg *config.Root, cfgPath string) (*workflow.Review, error) {
	r := &workflow.Review{
		Out:        os.Stdout,
		Config:     cfg,
		ConfigPath: cfgPath,
	}
	rv := &args.Review
	switch command {
	case "review", "review list":
		r.Action = workflow.ReviewList
	case "review show <id>":
		r.Action, r.ID = workflow.ReviewShow, rv.Show.ID
	case "review note <id>", "review note <id> <text>":
		r.Action, r.ID, r.Note = workflow.ReviewNote, rv.Note.ID, rv.Note.Text
	case "review delete <id>":
		r.Action, r.ID, r.Yes = workflow.ReviewDelete, rv.Delete.ID, rv.Delete.Yes
	case "review play <id>":
		r.Action, r.ID = workflow.ReviewPlay, rv.Play.ID
	case "review export-audio <id>":
		r.Action, r.ID, r.Path = workflow.ReviewExportAudio, rv.ExportAudio.ID, rv.ExportAudio.Out
	case "review report":
		f, err := report.ParseFormat(rv.Report.Format)
		if err != nil {
			return nil, err
		}
		r.Action, r.Path, r.Format = workflow.ReviewReport, rv.Report.Out, f
	case "review identity":
		r.Action = workflow.ReviewIdentity
		r.Reviewer = report.Reviewer{Name: rv.Identity.Name, CredentialID: rv.Identity.Credential}
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
	return r, nil
}

func listDevices() error {
	names, err := capture.ListDevices()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No capture devices found.")
		return nil
	}
	for i, name := range names {
		cli.PrintKeyValue(os.Stdout, fmt.Sprintf("#%d", i), name)
	}
	cli.PrintSuccess(os.Stdout, fmt.Sprintf("%d capture device(s)", len(names)))
	return nil
}
