// Package pipeline drives a generation run through its fixed stage
// sequence: load the six views, build the request, call the vision
// provider once, parse the reply, build the solid, export the
// artifacts. Stages never run out of order and a failed stage ends
// the run.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/meshgen/config"
	"github.com/BaSui01/meshgen/mesh"
	"github.com/BaSui01/meshgen/solid"
	"github.com/BaSui01/meshgen/types"
	"github.com/BaSui01/meshgen/views"
	"github.com/BaSui01/meshgen/vision"
)

// Input names the six side images, or a directory holding them, plus
// the export destination for one run.
type Input struct {
	SidePaths map[views.Side]string
	ImagesDir string

	OutputDir string // overrides the configured directory when set
	BaseName  string // overrides the derived artifact base name
	Overwrite bool
}

// ConvertInput names an existing mesh file to re-validate and export.
type ConvertInput struct {
	InputPath string

	OutputDir string
	BaseName  string
	Overwrite bool
}

// Result summarizes a completed run.
type Result struct {
	RunID       string
	MeshName    string
	VertexCount int
	FaceCount   int
	Artifacts   *solid.Artifacts
	Elapsed     time.Duration
}

// Pipeline wires the stages together. All dependencies are injected;
// the pipeline holds no global state.
type Pipeline struct {
	cfg      *config.Config
	provider vision.Provider
	parser   *mesh.Parser
	logger   *zap.Logger
}

// New creates a pipeline. The provider may be nil when only Convert
// is used.
func New(cfg *config.Config, provider vision.Provider, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		provider: provider,
		parser:   mesh.NewParser(logger),
		logger:   logger,
	}
}

// Run executes one generation end to end. The remote call happens
// exactly once, only after all six views decoded, and is never
// retried. The returned error always carries the stage that did not
// complete; on failure no artifact files remain.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))
	started := time.Now()

	set, err := loadViews(in)
	if err != nil {
		return nil, p.fail(logger, err, types.StageImagesLoaded)
	}
	logger.Info("views loaded",
		zap.String("stage", string(types.StageImagesLoaded)),
		zap.Any("paths", set.Paths()))

	req := vision.BuildRequest(set)
	logger.Info("request dispatched",
		zap.String("stage", string(types.StageRequestSent)),
		zap.String("model", p.cfg.Anthropic.Model),
		zap.Int("parts", len(req.Parts)))

	reply, err := p.provider.Generate(ctx, req)
	if err != nil {
		return nil, p.fail(logger, err, types.StageResponseReceived)
	}
	logger.Info("reply received",
		zap.String("stage", string(types.StageResponseReceived)),
		zap.String("model", reply.Model),
		zap.Int("reply_chars", len(reply.Text)),
		zap.Int("input_tokens", reply.Usage.InputTokens),
		zap.Int("output_tokens", reply.Usage.OutputTokens))

	m, err := p.parser.Parse(reply.Text)
	if err != nil {
		return nil, p.fail(logger, err, types.StageMeshParsed)
	}
	logger.Info("mesh parsed",
		zap.String("stage", string(types.StageMeshParsed)),
		zap.String("name", m.Name),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("faces", len(m.Faces)))

	s, err := solid.Build(m)
	if err != nil {
		return nil, p.fail(logger, err, types.StageSolidBuilt)
	}
	logger.Info("solid built",
		zap.String("stage", string(types.StageSolidBuilt)),
		zap.Float64("volume", s.Volume()),
		zap.Int("genus", s.Genus()),
		zap.Int("triangles", len(s.Triangles)))

	arts, err := p.export(runID, logger, s, in.OutputDir, in.BaseName, in.Overwrite, solid.Metadata{
		Name:         s.Name,
		Description:  s.Description,
		SourceImages: set.Paths(),
	})
	if err != nil {
		return nil, p.fail(logger, err, types.StageExported)
	}

	res := &Result{
		RunID:       runID,
		MeshName:    s.Name,
		VertexCount: len(s.Vertices),
		FaceCount:   len(s.Faces),
		Artifacts:   arts,
		Elapsed:     time.Since(started),
	}
	logger.Info("run complete",
		zap.String("stage", string(types.StageExported)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// Convert re-validates a mesh file and exports the standard artifact
// set. No remote call is involved.
func (p *Pipeline) Convert(in ConvertInput) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))
	started := time.Now()

	m, err := solid.Import(in.InputPath)
	if err != nil {
		return nil, p.fail(logger, err, types.StageMeshParsed)
	}
	logger.Info("mesh imported",
		zap.String("stage", string(types.StageMeshParsed)),
		zap.String("input", in.InputPath),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("faces", len(m.Faces)))

	s, err := solid.Build(m)
	if err != nil {
		return nil, p.fail(logger, err, types.StageSolidBuilt)
	}
	logger.Info("solid built",
		zap.String("stage", string(types.StageSolidBuilt)),
		zap.Float64("volume", s.Volume()),
		zap.Int("genus", s.Genus()),
		zap.Int("triangles", len(s.Triangles)))

	source := in.InputPath
	if abs, absErr := filepath.Abs(source); absErr == nil {
		source = abs
	}
	arts, err := p.export(runID, logger, s, in.OutputDir, in.BaseName, in.Overwrite, solid.Metadata{
		Name:        s.Name,
		Description: s.Description,
		SourceMesh:  source,
	})
	if err != nil {
		return nil, p.fail(logger, err, types.StageExported)
	}

	res := &Result{
		RunID:       runID,
		MeshName:    s.Name,
		VertexCount: len(s.Vertices),
		FaceCount:   len(s.Faces),
		Artifacts:   arts,
		Elapsed:     time.Since(started),
	}
	logger.Info("run complete",
		zap.String("stage", string(types.StageExported)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func (p *Pipeline) export(runID string, logger *zap.Logger, s *solid.Solid, dir, base string, overwrite bool, meta solid.Metadata) (*solid.Artifacts, error) {
	out := p.cfg.Output
	if dir != "" {
		out.Dir = dir
	}
	if overwrite {
		out.Overwrite = true
	}
	exporter := solid.NewExporter(out, logger)
	exporter.BaseName = base
	exporter.RunID = runID
	return exporter.Export(s, meta)
}

// fail annotates an error with the stage that did not complete and
// logs it once at the point the run stops.
func (p *Pipeline) fail(logger *zap.Logger, err error, stage types.Stage) error {
	terr, ok := err.(*types.Error)
	if !ok {
		terr = types.NewError(types.ErrConfig, err.Error()).WithCause(err)
	}
	if terr.Stage == "" {
		terr = terr.WithStage(stage)
	}
	logger.Error("run failed",
		zap.String("stage", string(terr.Stage)),
		zap.String("code", string(terr.Code)),
		zap.Error(terr))
	return terr
}

func loadViews(in Input) (*views.Set, error) {
	if in.ImagesDir != "" {
		return views.LoadDirectory(in.ImagesDir)
	}
	return views.Load(in.SidePaths)
}
