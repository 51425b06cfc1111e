// Package emitter writes route schema documents produced by the importer.
package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/routemock/internal/spec"
)

// Format selects the encoding of emitted documents.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	routesFile      = "routes"
	definitionsFile = "definitions"
)

// Options controls where and how documents are written.
type Options struct {
	OutDir  string // required; target directory
	Format  Format // defaults to FormatJSON
	Force   bool   // overwrite into a non-empty directory
	DryRun  bool   // don't write, only plan
	Verbose bool
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result returns the planned files and what they contain.
type Result struct {
	Planned    []PlannedFile
	Namespaces int
	Methods    int
}

// Emit renders routes (and defs, when non-empty) into OutDir.
func Emit(ctx context.Context, routes spec.RouteSchema, defs spec.Definitions, opts Options) (*Result, error) {
	if len(routes) == 0 {
		return nil, errors.New("emitter: no routes to write")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, errors.New("emitter: OutDir is required")
	}
	format := opts.Format
	if format == "" {
		format = FormatJSON
	}

	files := map[string][]byte{}
	data, err := encode(routes, format)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", routesFile, err)
	}
	files[routesFile+"."+string(format)] = data
	if len(defs) > 0 {
		data, err := encode(defs, format)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", definitionsFile, err)
		}
		files[definitionsFile+"."+string(format)] = data
	}

	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, p)
	}
	sort.Strings(rels)
	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}

	if !opts.DryRun {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := writeFiles(opts.OutDir, files, opts.Force); err != nil {
			return nil, err
		}
	}

	namespaces, methods := spec.RouteCount(routes)
	return &Result{Planned: planned, Namespaces: namespaces, Methods: methods}, nil
}

func encode(v any, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case FormatYAML:
		return yaml.Marshal(v)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

func writeFiles(outDir string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	if st, err := os.Stat(abs); err == nil && st.IsDir() && !force {
		entries, rerr := os.ReadDir(abs)
		if rerr == nil && len(entries) > 0 {
			return fmt.Errorf("emitter: output directory %q is not empty (use --force to overwrite)", abs)
		}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	for rel, content := range files {
		p := filepath.Join(abs, rel)
		// temp file + rename keeps readers from seeing a partial document
		tmp := p + ".tmp-" + time.Now().Format("20060102150405")
		if err := os.WriteFile(tmp, content, 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
	}
	return nil
}
