package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vodkit/hlsgrab/grabber"
	"github.com/vodkit/hlsgrab/hls"
	"github.com/vodkit/hlsgrab/internal/config"
	"github.com/vodkit/hlsgrab/pkg/dispatcher"
	"github.com/vodkit/hlsgrab/pkg/logging"
	"github.com/vodkit/hlsgrab/pkg/logging/zapadapter"
	"github.com/vodkit/hlsgrab/rewriter"

	"github.com/alecthomas/kong"
	"github.com/c2h5oh/datasize"
	"go.uber.org/zap"
)

var logger *zap.Logger

var CLI struct {
	Grab struct {
		URL       string        `arg:"" help:"Playlist URL, master or media."`
		Output    string        `arg:"" help:"Base name for the output file, extension gets added."`
		OutputDir string        `optional:"" help:"Directory to put the assembled file into."`
		Headers   string        `optional:"" help:"Path to a JSON file with HTTP headers to send along."`
		Parallel  int           `optional:"" help:"Number of segments to fetch at once."`
		Timeout   time.Duration `optional:"" help:"Timeout for every network call."`
	} `cmd:"" help:"Download a video stream into a single file."`
	Rewrite struct {
		URL   string `arg:"" help:"Media playlist URL."`
		Route string `optional:"" help:"Proxy route to point segment URLs at."`
	} `cmd:"" help:"Print a proxy-ready version of a media playlist."`
	Probe struct {
		URL     string `arg:"" help:"Media playlist URL."`
		Headers string `optional:"" help:"Path to a JSON file with HTTP headers to send along."`
	} `cmd:"" help:"Check which segments of a playlist are actually retrievable."`
	List struct {
		OutputDir string `optional:"" help:"Directory to scan for grabbed files." default:"."`
	} `cmd:"" help:"List grabbed files and their sidecar records."`
	Debug bool `optional:"" help:"Enable debug logging" default:"false"`
}

func main() {
	ctx := kong.Parse(&CLI)

	if CLI.Debug {
		logger = logging.Create("", logging.Dev).Desugar()
	} else {
		logger = logging.Create("", logging.Prod).Desugar()
		hls.SetLogger(logging.Create("hls", logging.Prod))
		grabber.SetLogger(logging.Create("grabber", logging.Prod))
		dispatcher.SetLogger(logging.Create("dispatcher", logging.Prod))
	}

	switch ctx.Command() {
	case "grab <url> <output>":
		startGrab()
	case "rewrite <url>":
		startRewrite()
	case "probe <url>":
		startProbe()
	case "list":
		startList()
	default:
		panic(ctx.Command())
	}
}

// readConfig loads the optional config file. Missing file is fine,
// everything has a default.
func readConfig() *config.GrabberConfig {
	log := logger.Sugar()
	cfg, err := config.ReadGrabberConfig()
	if err != nil {
		if !config.IsNotFound(err) {
			log.Fatalw("unable to read config", "err", err)
		}
		cfg = &config.GrabberConfig{}
	}
	return cfg
}

func newGrabber(cfg *config.GrabberConfig, headersFlag string) grabber.Grabber {
	gcfg := grabber.Configure()
	if CLI.Debug {
		gcfg = gcfg.LogLevel(grabber.Dev)
	}
	if cfg.OutputDir != "" {
		gcfg = gcfg.OutputDir(cfg.OutputDir)
	}
	if cfg.Parallel > 0 {
		gcfg = gcfg.Parallel(cfg.Parallel)
	}
	if cfg.Timeout > 0 {
		gcfg = gcfg.Timeout(cfg.Timeout)
	}
	if cfg.HeadersFile != "" {
		gcfg = gcfg.HeadersFile(cfg.HeadersFile)
	}
	if headersFlag != "" {
		gcfg = gcfg.HeadersFile(headersFlag)
	}
	return grabber.New(gcfg)
}

// interruptContext is cancelled on the first termination signal.
func interruptContext() (context.Context, context.CancelFunc) {
	log := logger.Sugar()
	ctx, cancel := context.WithCancel(context.Background())

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-stopChan
		log.Infof("caught an %v signal, shutting down...", sig)
		cancel()
	}()
	return ctx, cancel
}

func startGrab() {
	log := logger.Sugar()

	// Flags win over the config file.
	cfg := readConfig()
	if CLI.Grab.OutputDir != "" {
		cfg.OutputDir = CLI.Grab.OutputDir
	}
	if CLI.Grab.Parallel > 0 {
		cfg.Parallel = CLI.Grab.Parallel
	}
	if CLI.Grab.Timeout > 0 {
		cfg.Timeout = CLI.Grab.Timeout
	}
	g := newGrabber(cfg, CLI.Grab.Headers)

	ctx, cancel := interruptContext()
	defer cancel()

	r, err := g.Grab(ctx, CLI.Grab.URL, CLI.Grab.Output)
	if err != nil {
		log.Fatalw("grab failed", "url", CLI.Grab.URL, "err", err)
	}

	fmt.Printf(
		"%v saved, %v in %v segments (%v skipped), took %.2f seconds\n",
		r.Artifact,
		datasize.ByteSize(r.BytesWritten).HumanReadable(),
		r.Segments,
		len(r.Skipped),
		r.Duration,
	)
}

func startRewrite() {
	log := logger.Sugar()
	cfg := readConfig()

	route := CLI.Rewrite.Route
	if route == "" {
		route = cfg.Rewrite.Route
	}

	g := newGrabber(cfg, "")
	rw := rewriter.New(rewriter.Config{
		Route:     route,
		CacheSize: cfg.Rewrite.CacheSize,
		CacheTTL:  cfg.Rewrite.CacheTTL,
		Fetcher:   g,
		Log:       zapadapter.NewKV(logger),
	})

	ctx, cancel := interruptContext()
	defer cancel()

	out, err := rw.RewriteRemote(ctx, CLI.Rewrite.URL)
	if err != nil {
		log.Fatalw("rewrite failed", "url", CLI.Rewrite.URL, "err", err)
	}
	fmt.Print(out)
}

func startProbe() {
	log := logger.Sugar()
	cfg := readConfig()

	g := newGrabber(cfg, CLI.Probe.Headers)

	ctx, cancel := interruptContext()
	defer cancel()

	pr, err := g.Probe(ctx, CLI.Probe.URL)
	if err != nil {
		log.Fatalw("probe failed", "url", CLI.Probe.URL, "err", err)
	}

	if pr.Encrypted {
		fmt.Printf("stream is encrypted (%v, key at %v)\n", pr.Key.Method, pr.Key.URI)
	}
	fmt.Printf(
		"%v segments checked, %v present, %v missing\n",
		len(pr.Present)+len(pr.Missing), len(pr.Present), len(pr.Missing),
	)
	for _, u := range pr.Missing {
		fmt.Printf("missing: %v\n", u)
	}
}

func startList() {
	log := logger.Sugar()

	ir, err := grabber.Inventory(CLI.List.OutputDir)
	if err != nil {
		log.Fatalw("cannot list artifacts", "dir", CLI.List.OutputDir, "err", err)
	}

	for _, a := range ir.Artifacts {
		line := fmt.Sprintf("%v\t%v", a.Path, datasize.ByteSize(a.Size).HumanReadable())
		if a.Sidecar != nil {
			line += fmt.Sprintf("\t%v\t%v", a.Sidecar.GrabbedAt.Format(time.RFC3339), a.Sidecar.URL)
		}
		fmt.Println(line)
	}
	fmt.Printf("%v files, %v total\n", len(ir.Artifacts), datasize.ByteSize(ir.TotalSize).HumanReadable())
}
