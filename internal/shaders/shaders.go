// Package shaders loads the compiled SPIR-V stages the pipeline is built
// from.
package shaders

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/packr"
	"golang.org/x/sync/errgroup"
)

//go:generate glslc ../../shaders/shader.vert -o ../../shaders/vert.spv
//go:generate glslc ../../shaders/shader.frag -o ../../shaders/frag.spv

var ErrNotFound = errors.New("shader not found")

// Source finds a shader binary by name. packr.Box satisfies it.
type Source interface {
	Find(name string) ([]byte, error)
}

// Box returns the shader directory as a packr box: read from disk during
// development, embedded when the binary is built with packr.
func Box() packr.Box {
	return packr.NewBox("../../shaders")
}

// Dir is a Source reading straight from a directory on disk.
type Dir string

func (d Dir) Find(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(string(d), name))
}

// Stages is the bytecode of both shader stages.
type Stages struct {
	Vertex   []byte
	Fragment []byte
}

// Load fetches the vertex and fragment stages concurrently. An empty stage is
// reported as missing.
func Load(ctx context.Context, source Source, vertex, fragment string) (Stages, error) {
	var stages Stages
	group, ctx := errgroup.WithContext(ctx)

	load := func(name string, dst *[]byte) func() error {
		return func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			code, err := source.Find(name)
			if errors.Is(err, os.ErrNotExist) {
				return errors.Mark(errors.Wrapf(err, "shader %s (compile with go generate ./internal/shaders)", name), ErrNotFound)
			}
			if err != nil {
				return errors.Mark(errors.Wrapf(err, "shader %s", name), ErrNotFound)
			}
			if len(code) == 0 {
				return errors.Wrapf(ErrNotFound, "shader %s is empty", name)
			}

			*dst = code
			return nil
		}
	}

	group.Go(load(vertex, &stages.Vertex))
	group.Go(load(fragment, &stages.Fragment))

	if err := group.Wait(); err != nil {
		return Stages{}, err
	}

	return stages, nil
}
