package mesh

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/BaSui01/meshgen/types"
)

// Parser extracts a Mesh from a free-form model reply. Strategies are
// tried in order: the whole reply as JSON, fenced code blocks, the
// first balanced brace region, and finally a numeric scan of the prose.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a parser.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse recovers a mesh from a reply. The first candidate that decodes
// into a mesh-shaped JSON object is authoritative: if its content
// violates the structural rules the parse fails rather than falling
// through to a weaker strategy.
func (p *Parser) Parse(reply string) (*Mesh, error) {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return nil, types.NewError(types.ErrMeshParse, "empty reply")
	}

	for _, candidate := range p.jsonCandidates(trimmed) {
		m, shaped, err := decodeMesh(candidate)
		if err != nil {
			return nil, err
		}
		if shaped {
			p.logger.Debug("mesh decoded from JSON candidate",
				zap.Int("vertices", len(m.Vertices)),
				zap.Int("faces", len(m.Faces)))
			return p.finish(m)
		}
	}

	m := scanNumeric(trimmed)
	if len(m.Vertices) == 0 && !keywordPattern.MatchString(trimmed) {
		m = scanBare(trimmed)
	}
	if len(m.Vertices) == 0 {
		return nil, types.NewError(types.ErrMeshParse,
			fmt.Sprintf("no vertices found in reply: %q", excerpt(trimmed)))
	}
	if len(m.Faces) == 0 {
		return nil, types.NewError(types.ErrMeshParse,
			fmt.Sprintf("no faces found in reply: %q", excerpt(trimmed)))
	}
	p.logger.Debug("mesh recovered by numeric scan",
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("faces", len(m.Faces)))
	return p.finish(m)
}

func (p *Parser) finish(m *Mesh) (*Mesh, error) {
	if m.normalizeOneBased() {
		p.logger.Warn("face indices look one-based, shifted down by one",
			zap.Int("vertices", len(m.Vertices)),
			zap.Int("faces", len(m.Faces)))
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// jsonCandidates lists the substrings worth trying as JSON, in order:
// the reply itself, json-labelled fences, remaining fences, and the
// first balanced brace region.
func (p *Parser) jsonCandidates(reply string) []string {
	candidates := []string{reply}

	var labelled, plain []string
	for _, block := range fencedBlocks(reply) {
		if block.lang == "json" {
			labelled = append(labelled, block.body)
		} else {
			plain = append(plain, block.body)
		}
	}
	candidates = append(candidates, labelled...)
	candidates = append(candidates, plain...)

	if region, ok := braceRegion(reply); ok {
		candidates = append(candidates, region)
	}
	return candidates
}

type fence struct {
	lang string
	body string
}

// fencedBlocks walks the reply as markdown and collects every fenced
// code block in document order.
func fencedBlocks(reply string) []fence {
	src := []byte(reply)
	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(src))

	var blocks []fence
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		fc, ok := n.(*gmast.FencedCodeBlock)
		if !ok {
			return gmast.WalkContinue, nil
		}

		var buf bytes.Buffer
		lines := fc.Lines()
		for i := 0; i < lines.Len(); i++ {
			segment := lines.At(i)
			buf.Write(segment.Value(src))
		}
		blocks = append(blocks, fence{
			lang: string(fc.Language(src)),
			body: buf.String(),
		})
		return gmast.WalkContinue, nil
	})
	return blocks
}

// braceRegion returns the first balanced {...} region, tracking string
// literals so braces inside quoted text do not confuse the depth count.
func braceRegion(reply string) (string, bool) {
	start := strings.IndexByte(reply, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(reply); i++ {
		c := reply[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return reply[start : i+1], true
			}
		}
	}
	return "", false
}

// decodeMesh tries a candidate as a mesh-shaped JSON object. A shaped
// candidate has both a vertices and a faces key; once shaped, any
// malformed row is a hard error.
func decodeMesh(candidate string) (*Mesh, bool, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil, false, nil
	}
	vertsRaw, hasVerts := probe["vertices"]
	facesRaw, hasFaces := probe["faces"]
	if !hasVerts || !hasFaces {
		return nil, false, nil
	}

	var vertRows [][]float64
	if err := json.Unmarshal(vertsRaw, &vertRows); err != nil {
		return nil, true, types.NewError(types.ErrMeshParse,
			"vertices field is not a list of coordinate rows").WithCause(err)
	}
	vertices := make([][3]float64, 0, len(vertRows))
	for i, row := range vertRows {
		if len(row) != 3 {
			return nil, true, types.NewError(types.ErrMeshParse,
				fmt.Sprintf("vertex %d has %d coordinates, need 3", i, len(row)))
		}
		vertices = append(vertices, [3]float64{row[0], row[1], row[2]})
	}

	var faceRows [][]float64
	if err := json.Unmarshal(facesRaw, &faceRows); err != nil {
		return nil, true, types.NewError(types.ErrMeshParse,
			"faces field is not a list of index rows").WithCause(err)
	}
	faces := make([][]int, 0, len(faceRows))
	for i, row := range faceRows {
		face := make([]int, 0, len(row))
		for _, v := range row {
			if v != math.Trunc(v) {
				return nil, true, types.NewError(types.ErrMeshParse,
					fmt.Sprintf("face %d contains a non-integer index", i))
			}
			face = append(face, int(v))
		}
		faces = append(faces, face)
	}

	m := &Mesh{Vertices: vertices, Faces: faces}
	if raw, ok := probe["name"]; ok {
		_ = json.Unmarshal(raw, &m.Name)
	}
	if raw, ok := probe["description"]; ok {
		_ = json.Unmarshal(raw, &m.Description)
	}
	return m, true, nil
}

// Fallback numeric scan. Keywords open a vertex or face section;
// numbers seen before any keyword are ignored, which keeps counts in
// prose ("here are 24 vertices") out of the data.
var keywordPattern = regexp.MustCompile(`(?i)\b(vertices|vertex|points|faces|face|triangles|triangle|indices)\b`)

var tokenPattern = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?|[()\[\]]`)

type scanMode int

const (
	modeNone scanMode = iota
	modeVertices
	modeFaces
)

func keywordMode(word string) scanMode {
	switch strings.ToLower(word) {
	case "vertices", "vertex", "points":
		return modeVertices
	default:
		return modeFaces
	}
}

// scanNumeric walks the reply line by line, collecting bracketed
// number groups under the section opened by the last seen keyword.
// Bracketed groups keep their arity; loose face numbers are chunked
// into triangles.
func scanNumeric(reply string) *Mesh {
	m := &Mesh{}
	mode := modeNone

	for _, line := range strings.Split(reply, "\n") {
		matches := keywordPattern.FindAllStringIndex(line, -1)

		prev := 0
		for _, kw := range matches {
			collectGroups(m, mode, line[prev:kw[0]])
			mode = keywordMode(line[kw[0]:kw[1]])
			prev = kw[1]
		}
		collectGroups(m, mode, line[prev:])
	}
	return m
}

func collectGroups(m *Mesh, mode scanMode, segment string) {
	if mode == modeNone || segment == "" {
		return
	}
	for _, group := range numberGroups(segment) {
		switch mode {
		case modeVertices:
			appendVertices(m, group.values)
		case modeFaces:
			appendFace(m, group)
		}
	}
}

type numberGroup struct {
	values    []float64
	bracketed bool
	decimal   bool // some token was written with a decimal point or exponent
}

// numberGroups tokenizes a segment into bracketed number groups plus
// one trailing group of loose numbers.
func numberGroups(segment string) []numberGroup {
	var (
		groups []numberGroup
		stack  []numberGroup
		loose  numberGroup
	)

	for _, tok := range tokenPattern.FindAllString(segment, -1) {
		switch tok {
		case "(", "[":
			stack = append(stack, numberGroup{bracketed: true})
		case ")", "]":
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(top.values) > 0 {
				groups = append(groups, top)
			}
		default:
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				continue
			}
			dst := &loose
			if len(stack) > 0 {
				dst = &stack[len(stack)-1]
			}
			dst.values = append(dst.values, v)
			dst.decimal = dst.decimal || strings.ContainsAny(tok, ".eE")
		}
	}

	// Unterminated brackets still carry data.
	for _, open := range stack {
		if len(open.values) > 0 {
			groups = append(groups, open)
		}
	}
	if len(loose.values) > 0 {
		groups = append(groups, loose)
	}
	return groups
}

// scanBare handles replies with no section keywords at all. Rows
// written with decimal points are vertex data; integer rows after the
// last such row are faces. A reply with neither keywords nor decimal
// points stays unparseable.
func scanBare(reply string) *Mesh {
	var groups []numberGroup
	for _, line := range strings.Split(reply, "\n") {
		groups = append(groups, numberGroups(line)...)
	}

	last := -1
	for i, g := range groups {
		if g.decimal {
			last = i
		}
	}

	m := &Mesh{}
	if last < 0 {
		return m
	}
	for _, g := range groups[:last+1] {
		appendVertices(m, g.values)
	}
	for _, g := range groups[last+1:] {
		appendFace(m, g)
	}
	return m
}

// appendVertices takes coordinate triples from a group; group sizes
// that are not a multiple of three carry no usable vertex data.
func appendVertices(m *Mesh, values []float64) {
	if len(values) == 0 || len(values)%3 != 0 {
		return
	}
	for i := 0; i+2 < len(values); i += 3 {
		m.Vertices = append(m.Vertices, [3]float64{values[i], values[i+1], values[i+2]})
	}
}

// appendFace takes one face from a bracketed group, keeping its arity,
// or triangle chunks from a loose run of integers.
func appendFace(m *Mesh, group numberGroup) {
	face := make([]int, 0, len(group.values))
	for _, v := range group.values {
		if v != math.Trunc(v) {
			return
		}
		face = append(face, int(v))
	}
	if len(face) < 3 {
		return
	}

	if group.bracketed {
		m.Faces = append(m.Faces, face)
		return
	}
	for i := 0; i+2 < len(face); i += 3 {
		m.Faces = append(m.Faces, []int{face[i], face[i+1], face[i+2]})
	}
}

const excerptLen = 120

// excerpt shortens a reply for error messages.
func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > excerptLen {
		return s[:excerptLen] + "..."
	}
	return s
}
