package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"requitec/ast"
	"requitec/catalog"
	"requitec/common"
	"requitec/depm"
	"requitec/generate"
	"requitec/mods"
	"requitec/report"
	"requitec/resolve"
	"requitec/syntax"

	"golang.org/x/sync/errgroup"
)

// Compiler represents the global state of one build.
type Compiler struct {
	// project is the project being compiled.
	project *mods.RequiteProject

	// bin is the binary assembled from the sources of the project.
	bin *depm.Binary

	// r is the resolver shared by cataloging and generation.
	r *resolve.Resolver

	// builder is the IR builder.  It is nil until generation runs.
	builder *generate.Builder
}

// NewCompiler creates a new compiler for a project.
func NewCompiler(project *mods.RequiteProject) *Compiler {
	return &Compiler{project: project}
}

// Binary returns the binary being compiled.  It is nil before analysis.
func (c *Compiler) Binary() *depm.Binary {
	return c.bin
}

// Compile runs the full compilation algorithm on the project and reports the
// result.  It returns whether compilation succeeded.
func (c *Compiler) Compile() bool {
	report.ReportCompileHeader(common.Version, c.project.Profile.Name, c.target())

	if c.Analyze() && c.Generate() {
		c.Emit()
	}

	return report.ReportCompilationFinished()
}

// Analyze runs the read, ordering, and cataloging phases of the compiler.  It
// returns whether all of them succeeded.
func (c *Compiler) Analyze() bool {
	return c.Order() && c.phase("Cataloging", func() error {
		return catalog.NewCataloger(c.bin, c.r).CatalogBinary()
	})
}

// Order runs the read and ordering phases only.  Nothing is cataloged.
func (c *Compiler) Order() bool {
	var sources [][]*ast.Operation
	ok := c.phase("Reading", func() error {
		var err error
		sources, err = parseSources(context.Background(), c.project.Sources)
		return err
	})
	if !ok {
		return false
	}

	return c.phase("Ordering", func() error {
		c.bin = depm.NewBinary(c.project.Profile.PointerWidth, c.project.Profile.TargetTriple)
		for i, ops := range sources {
			c.bin.AddModule(c.project.Sources[i], ops)
		}

		c.r = resolve.NewResolver(c.bin)
		return c.bin.Assemble()
	})
}

// Generate lowers every module into IR.  Analysis must be run before this.
func (c *Compiler) Generate() bool {
	return c.phase("Generating", func() error {
		c.builder = generate.NewBuilder(c.bin, c.r)
		return c.builder.GenerateBinary()
	})
}

// Emit writes the textual IR of every module into the output directory of the
// profile.  Generation must be run before this.
func (c *Compiler) Emit() bool {
	return c.phase("Emitting", func() error {
		if err := os.MkdirAll(c.project.Profile.OutputPath, 0o755); err != nil {
			return err
		}

		for _, m := range c.bin.OrderedModules() {
			path := filepath.Join(c.project.Profile.OutputPath, m.Name+common.IRFileExt)
			if err := os.WriteFile(path, []byte(c.builder.IRModule(m).String()), 0o644); err != nil {
				return fmt.Errorf("failed to write IR for module `%s`: %s", m.Name, err)
			}
		}

		return nil
	})
}

// -----------------------------------------------------------------------------

// phase runs one phase of compilation between phase reports.  Errors are
// reported and the phase fails.
func (c *Compiler) phase(name string, f func() error) bool {
	report.ReportBeginPhase(name)

	if err := f(); err != nil {
		report.ReportCompileError(err)
		return false
	}

	report.ReportEndPhase()
	return true
}

// target returns the display name of the build target.
func (c *Compiler) target() string {
	if c.project.Profile.TargetTriple == "" {
		return fmt.Sprintf("host (%d-bit)", c.project.Profile.PointerWidth)
	}

	return c.project.Profile.TargetTriple
}

// parseSources parses all the source files concurrently.  The results are in
// the order of the paths.  The first error encountered cancels the remaining
// files and is returned.
func parseSources(ctx context.Context, paths []string) ([][]*ast.Operation, error) {
	sources := make([][]*ast.Operation, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			ops, err := syntax.ParseFile(path)
			if err != nil {
				return err
			}

			sources[i] = ops
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return sources, nil
}
