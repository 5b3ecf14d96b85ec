// Package meshgen provides a one-call entry point for turning six side
// photographs of an object into validated, exported 3D artifacts.
//
// Usage:
//
//	import "github.com/BaSui01/meshgen"
//
//	res, err := meshgen.Generate(ctx, meshgen.WithImagesDir("renders/chair"))
//	res, err := meshgen.Generate(ctx,
//	    meshgen.WithSides(sides),
//	    meshgen.WithOutputDir("objects"))
//
// This is a thin wrapper around [pipeline.New]; use the pipeline
// package directly to reuse one pipeline across several runs.
package meshgen

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/meshgen/config"
	"github.com/BaSui01/meshgen/pipeline"
	"github.com/BaSui01/meshgen/views"
	"github.com/BaSui01/meshgen/vision"
)

// Option configures a Generate or Convert call.
type Option func(*options)

type options struct {
	cfg        *config.Config
	configPath string
	provider   vision.Provider
	logger     *zap.Logger

	sides     map[views.Side]string
	imagesDir string
	outputDir string
	baseName  string
	overwrite bool
}

// WithConfig uses a pre-built configuration instead of loading one.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithConfigFile loads configuration from the given YAML file.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithProvider sets a pre-built vision provider. The credential check
// is skipped; the provider owns its own authentication.
func WithProvider(p vision.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSides names the six view image paths.
func WithSides(paths map[views.Side]string) Option {
	return func(o *options) { o.sides = paths }
}

// WithImagesDir loads the six views from one directory by their
// pos_x/neg_x/pos_y/neg_y/pos_z/neg_z filenames.
func WithImagesDir(dir string) Option {
	return func(o *options) { o.imagesDir = dir }
}

// WithOutputDir overrides the configured output directory.
func WithOutputDir(dir string) Option {
	return func(o *options) { o.outputDir = dir }
}

// WithBaseName overrides the derived artifact base name.
func WithBaseName(name string) Option {
	return func(o *options) { o.baseName = name }
}

// WithOverwrite lets the export replace existing artifact files.
func WithOverwrite() Option {
	return func(o *options) { o.overwrite = true }
}

// Generate runs the full pipeline once: load the six views, call the
// vision model, parse its reply, validate the geometry, export the
// artifacts.
func Generate(ctx context.Context, opts ...Option) (*pipeline.Result, error) {
	o, err := resolve(opts, true)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(o.cfg, o.provider, o.logger)
	return p.Run(ctx, pipeline.Input{
		SidePaths: o.sides,
		ImagesDir: o.imagesDir,
		OutputDir: o.outputDir,
		BaseName:  o.baseName,
		Overwrite: o.overwrite,
	})
}

// Convert re-validates an existing OBJ or STL file and exports the
// standard artifact set. No remote call is made and no credential is
// needed.
func Convert(inputPath string, opts ...Option) (*pipeline.Result, error) {
	o, err := resolve(opts, false)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(o.cfg, nil, o.logger)
	return p.Convert(pipeline.ConvertInput{
		InputPath: inputPath,
		OutputDir: o.outputDir,
		BaseName:  o.baseName,
		Overwrite: o.overwrite,
	})
}

func resolve(opts []Option, needProvider bool) (*options, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.cfg == nil {
		loader := config.NewLoader()
		if o.configPath != "" {
			loader = loader.WithConfigPath(o.configPath)
		}
		cfg, err := loader.Load()
		if err != nil {
			return nil, err
		}
		o.cfg = cfg
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if needProvider && o.provider == nil {
		if err := o.cfg.RequireCredential(); err != nil {
			return nil, err
		}
		o.provider = vision.NewAnthropicProvider(o.cfg.Anthropic, o.logger)
	}
	return o, nil
}
