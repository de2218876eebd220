package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/gomcpgo/replicate_portrait/pkg/client"
	"github.com/gomcpgo/replicate_portrait/pkg/config"
	"github.com/gomcpgo/replicate_portrait/pkg/portrait"
	"github.com/gomcpgo/replicate_portrait/pkg/responses"
	"github.com/gomcpgo/replicate_portrait/pkg/storage"
)

// Version information (set by build script)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		reference   = flag.String("reference", "", "Path to the reference image (required)")
		model       = flag.String("model", "", "Model alias or full model reference (default: kontext-max)")
		prompt      = flag.String("prompt", "", "Generation prompt (default: full-body portrait prompt)")
		aspectRatio = flag.String("aspect-ratio", portrait.DefaultAspectRatio, "Output aspect ratio")
		maxWait     = flag.Duration("max-wait", 0, "Maximum time to wait for completion (default: 600s)")
		save        = flag.Bool("save", false, "Download outputs into the portraits folder")
		jsonOut     = flag.Bool("json", false, "Print the result as JSON")
		continueID  = flag.String("continue", "", "Resume waiting on an existing prediction ID")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("replicate_portrait %s (built %s)\n", Version, BuildTime)
		return 0
	}

	// A .env next to the binary is a convenience for local runs
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	logger := initLogger(cfg.DebugMode)
	slog.SetDefault(logger)

	timeouts := config.LoadTimeouts()
	if *maxWait > 0 {
		timeouts.MaxWait = *maxWait
	}

	apiClient := client.NewReplicateClientWith(cfg.ReplicateAPIToken, "", timeouts.PollInterval)
	apiClient.SetLogger(logger)
	store := storage.NewStorage(cfg.PortraitsRoot)
	generator := portrait.NewGenerator(apiClient, store, timeouts, logger)

	ctx := context.Background()

	var result *portrait.Result
	if *continueID != "" {
		result, err = generator.Resume(ctx, *continueID)
	} else {
		if *reference == "" {
			fmt.Fprintln(os.Stderr, "-reference is required")
			flag.Usage()
			return 1
		}
		result, err = generator.Generate(ctx, portrait.Params{
			ReferencePath: *reference,
			Model:         *model,
			Prompt:        *prompt,
			AspectRatio:   *aspectRatio,
			SaveOutputs:   *save,
		})
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, responses.FormatError(err))
		return 1
	}

	if *jsonOut {
		out, err := responses.FormatResultJSON(result)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(out)
	} else {
		fmt.Print(responses.FormatResult(result))
	}

	if !result.Succeeded() {
		return 1
	}
	return 0
}

// initLogger sets up slog for the CLI: text output on stderr, debug level
// when DEBUG_MODE is on.
func initLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
