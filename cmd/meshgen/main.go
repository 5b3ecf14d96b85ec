// Command meshgen turns six side photographs of an object into a
// validated 3D model, written as OBJ and STL files plus a metadata
// sidecar.
//
// Usage:
//
//	meshgen generate --front f.png --back b.png --left l.png \
//	    --right r.png --top t.png --bottom bt.png
//	meshgen generate --images-dir renders/chair
//	meshgen convert --input old.stl
//	meshgen health
//	meshgen version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/meshgen/config"
	"github.com/BaSui01/meshgen/pipeline"
	"github.com/BaSui01/meshgen/types"
	"github.com/BaSui01/meshgen/views"
	"github.com/BaSui01/meshgen/vision"
)

// Build-time metadata, injected via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "convert":
		runConvert(os.Args[2:])
	case "health":
		runHealth(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	front := fs.String("front", "", "Path to the front view image")
	back := fs.String("back", "", "Path to the back view image")
	left := fs.String("left", "", "Path to the left view image")
	right := fs.String("right", "", "Path to the right view image")
	top := fs.String("top", "", "Path to the top view image")
	bottom := fs.String("bottom", "", "Path to the bottom view image")
	imagesDir := fs.String("images-dir", "", "Directory holding pos_x/neg_x/pos_y/neg_y/pos_z/neg_z views")
	outputDir := fs.String("output-dir", "", "Output directory (default from config)")
	name := fs.String("name", "", "Base name for the artifact files")
	configPath := fs.String("config", "", "Path to config file")
	logLevel := fs.String("log-level", "", "Log level override")
	overwrite := fs.Bool("overwrite", false, "Replace existing artifact files")
	timeout := fs.Duration("timeout", 0, "Request timeout override")
	fs.Parse(args)

	cfg := mustConfig(*configPath, *logLevel)
	if *timeout > 0 {
		cfg.Anthropic.Timeout = *timeout
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting meshgen",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	// The credential gate runs before any image file is opened.
	if err := cfg.RequireCredential(); err != nil {
		fail(err)
	}

	sides := map[views.Side]string{
		views.SideFront:  *front,
		views.SideBack:   *back,
		views.SideLeft:   *left,
		views.SideRight:  *right,
		views.SideTop:    *top,
		views.SideBottom: *bottom,
	}
	given := 0
	for _, path := range sides {
		if path != "" {
			given++
		}
	}
	switch {
	case *imagesDir != "" && given > 0:
		fail(types.NewError(types.ErrConfig,
			"--images-dir cannot be combined with individual side flags").
			WithStage(types.StageConfig))
	case *imagesDir == "" && given == 0:
		fail(types.NewError(types.ErrConfig,
			"six view images required: pass --front/--back/--left/--right/--top/--bottom or --images-dir").
			WithStage(types.StageConfig))
	}

	provider := vision.NewAnthropicProvider(cfg.Anthropic, logger)
	p := pipeline.New(cfg, provider, logger)

	res, err := p.Run(context.Background(), pipeline.Input{
		SidePaths: sides,
		ImagesDir: *imagesDir,
		OutputDir: *outputDir,
		BaseName:  *name,
		Overwrite: *overwrite,
	})
	if err != nil {
		fail(err)
	}

	for _, path := range res.Artifacts.Paths() {
		fmt.Println(path)
	}
}

func runConvert(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	input := fs.String("input", "", "Mesh file to re-export (.obj or .stl)")
	outputDir := fs.String("output-dir", "", "Output directory (default from config)")
	name := fs.String("name", "", "Base name for the artifact files")
	configPath := fs.String("config", "", "Path to config file")
	logLevel := fs.String("log-level", "", "Log level override")
	overwrite := fs.Bool("overwrite", false, "Replace existing artifact files")
	fs.Parse(args)

	cfg := mustConfig(*configPath, *logLevel)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	if *input == "" {
		fail(types.NewError(types.ErrConfig, "--input is required").
			WithStage(types.StageConfig))
	}

	p := pipeline.New(cfg, nil, logger)
	res, err := p.Convert(pipeline.ConvertInput{
		InputPath: *input,
		OutputDir: *outputDir,
		BaseName:  *name,
		Overwrite: *overwrite,
	})
	if err != nil {
		fail(err)
	}

	for _, path := range res.Artifacts.Paths() {
		fmt.Println(path)
	}
}

func runHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	logLevel := fs.String("log-level", "", "Log level override")
	fs.Parse(args)

	cfg := mustConfig(*configPath, *logLevel)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	if err := cfg.RequireCredential(); err != nil {
		fail(err)
	}

	provider := vision.NewAnthropicProvider(cfg.Anthropic, logger)
	if err := provider.HealthCheck(context.Background()); err != nil {
		fail(err)
	}
	fmt.Println("OK")
}

func printVersion() {
	fmt.Printf("meshgen %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`meshgen - 3D objects from six side photographs

Usage:
  meshgen <command> [options]

Commands:
  generate  Generate a 3D object from six side images
  convert   Re-validate and re-export an existing OBJ or STL file
  health    Check that the vision API is reachable
  version   Show version information
  help      Show this help message

Options for 'generate':
  --front, --back, --left, --right, --top, --bottom <path>
                        The six view images (PNG, JPEG, GIF or WebP)
  --images-dir <path>   Directory with pos_x, neg_x, pos_y, neg_y, pos_z and
                        neg_z view images, instead of the six side flags
  --output-dir <path>   Where artifacts are written (default generated_objects)
  --name <base>         Base name for the artifact files
  --config <path>       Path to configuration file (YAML)
  --log-level <level>   debug, info, warn or error
  --overwrite           Replace existing artifact files
  --timeout <duration>  Request timeout, e.g. 90s

Options for 'convert':
  --input <path>        Mesh file to re-export (.obj or .stl)
  plus --output-dir, --name, --config, --log-level, --overwrite as above

The ANTHROPIC_API_KEY environment variable must be set for the generate
and health commands.

Examples:
  meshgen generate --front f.png --back b.png --left l.png --right r.png --top t.png --bottom bt.png
  meshgen generate --images-dir renders/chair --output-dir objects
  meshgen convert --input old.stl --name chair
  meshgen health
  meshgen version`)
}

// fail prints one stage-tagged line to stderr and exits. Every error
// leaving a run carries its stage; anything else is a plumbing bug
// reported as-is.
func fail(err error) {
	if terr, ok := err.(*types.Error); ok {
		stage := terr.Stage
		if stage == "" {
			stage = types.StageFailed
		}
		fmt.Fprintf(os.Stderr, "meshgen: %s: %s\n", stage, terr.Error())
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "meshgen: %v\n", err)
	os.Exit(1)
}

func mustConfig(path, logLevel string) *config.Config {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "meshgen: config: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "meshgen: config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
