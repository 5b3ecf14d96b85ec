package solid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/meshgen/config"
	"github.com/BaSui01/meshgen/types"
)

// Artifacts lists the files written by one successful export.
type Artifacts struct {
	OBJPath      string
	STLPath      string
	MetadataPath string
}

// Paths returns the artifact paths in write order.
func (a *Artifacts) Paths() []string {
	return []string{a.OBJPath, a.STLPath, a.MetadataPath}
}

// Exporter writes a solid's three artifacts under one output
// directory. Either all three land or none do: payloads are staged
// under temporary names and renamed into place only after every write
// succeeded.
type Exporter struct {
	Dir       string
	Overwrite bool
	BaseName  string // replaces the derived base name when set
	RunID     string // distinguishes staging files of concurrent runs

	logger *zap.Logger
	now    func() time.Time
}

// NewExporter creates an exporter from output configuration.
func NewExporter(cfg config.OutputConfig, logger *zap.Logger) *Exporter {
	return &Exporter{
		Dir:       cfg.Dir,
		Overwrite: cfg.Overwrite,
		logger:    logger,
		now:       time.Now,
	}
}

// Export writes <base>.obj, <base>.stl and <base>_metadata.json for
// the solid. The metadata counts always reflect the exported vertex
// and face lists regardless of what the caller filled in.
func (e *Exporter) Export(s *Solid, meta Metadata) (*Artifacts, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, types.NewError(types.ErrFileWrite,
			fmt.Sprintf("create output directory %s: %v", e.Dir, err)).WithCause(err)
	}

	meta.VertexCount = len(s.Vertices)
	meta.FaceCount = len(s.Faces)
	if meta.GeneratedAt == "" {
		meta.GeneratedAt = e.now().UTC().Format(time.RFC3339)
	}

	dir := e.Dir
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	base := e.BaseName
	if base == "" {
		base = fmt.Sprintf("%s_%d", sanitizeBase(s.Name), e.now().Unix())
	}
	arts := &Artifacts{
		OBJPath:      filepath.Join(dir, base+".obj"),
		STLPath:      filepath.Join(dir, base+".stl"),
		MetadataPath: filepath.Join(dir, base+"_metadata.json"),
	}

	if !e.Overwrite {
		for _, path := range arts.Paths() {
			if _, err := os.Stat(path); err == nil {
				return nil, types.NewError(types.ErrFileWrite,
					fmt.Sprintf("refusing to overwrite %s", path))
			}
		}
	}

	metaPayload, err := encodeMetadata(meta)
	if err != nil {
		return nil, types.NewError(types.ErrFileWrite,
			"encode metadata").WithCause(err)
	}
	files := []struct {
		path string
		data []byte
	}{
		{arts.OBJPath, s.EncodeOBJ()},
		{arts.STLPath, s.EncodeSTL()},
		{arts.MetadataPath, metaPayload},
	}

	suffix := e.stagingSuffix()
	staged := make([]string, len(files))
	for i, f := range files {
		staged[i] = f.path + suffix
		if err := os.WriteFile(staged[i], f.data, 0o644); err != nil {
			for _, tmp := range staged[:i+1] {
				os.Remove(tmp)
			}
			return nil, types.NewError(types.ErrFileWrite,
				fmt.Sprintf("write %s: %v", staged[i], err)).WithCause(err)
		}
	}
	for i, f := range files {
		if err := os.Rename(staged[i], f.path); err != nil {
			for _, prev := range files[:i] {
				os.Remove(prev.path)
			}
			for _, tmp := range staged[i:] {
				os.Remove(tmp)
			}
			return nil, types.NewError(types.ErrFileWrite,
				fmt.Sprintf("rename %s: %v", staged[i], err)).WithCause(err)
		}
	}

	e.logger.Info("artifacts written",
		zap.String("obj", arts.OBJPath),
		zap.String("stl", arts.STLPath),
		zap.String("metadata", arts.MetadataPath),
		zap.Int("vertices", meta.VertexCount),
		zap.Int("faces", meta.FaceCount))
	return arts, nil
}

func (e *Exporter) stagingSuffix() string {
	id := e.RunID
	if id == "" {
		id = uuid.NewString()
	}
	return "." + id + ".tmp"
}

// sanitizeBase derives a filename stem from a mesh name: lowercase,
// spaces to underscores, everything else outside [a-z0-9_-] dropped.
func sanitizeBase(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, strings.TrimSpace(name))
	if cleaned == "" {
		return "object"
	}
	return cleaned
}
