package driver

import (
	"errors"
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog"

	"odpic-bindgen/internal/annotate"
	"odpic-bindgen/internal/bindgen"
	"odpic-bindgen/internal/catalog"
	"odpic-bindgen/internal/diagnostic"
)

// ErrUndocumented is returned when FailOnUndocumented is set and the
// header declares functions the catalog doesn't classify.
var ErrUndocumented = errors.New("undocumented functions")

// Artifact names, relative to the output directory or a sub-package.
const (
	publicFile   = "bindings.go"
	blockingFile = "bindings_blocking.go"
	implFile     = "bindings_impl.go"
	loaderFile   = "loader.go"

	implHeaderDoc = "Constants here don't follow semantic versioning because of non-public ones."
)

// Driver runs the generation passes.
type Driver struct {
	cfg    Config
	logger zerolog.Logger
	diags  *diagnostic.Diagnostics
}

// Result describes a finished run.
type Result struct {
	Catalog     *catalog.Catalog
	Classifier  *catalog.Classifier
	Files       []GeneratedFile
	Diagnostics *diagnostic.Diagnostics
}

// File returns the artifact with the given name.
func (r *Result) File(filename string) (GeneratedFile, bool) {
	for _, f := range r.Files {
		if f.Filename == filename {
			return f, true
		}
	}

	return GeneratedFile{}, false
}

// pass is one invocation of the binding generator.
type pass struct {
	name     string
	filename string
	opts     bindgen.Options
	annotate bool
	// gate checks for undocumented functions once the pass is written.
	gate bool
}

// New creates a Driver.
func New(cfg Config, logger zerolog.Logger) *Driver {
	return &Driver{
		cfg:    cfg,
		logger: logger.With().Str("component", "driver").Logger(),
		diags:  &diagnostic.Diagnostics{},
	}
}

// Diagnostics returns the warnings collected so far.
func (d *Driver) Diagnostics() *diagnostic.Diagnostics {
	return d.diags
}

// LoadCatalog loads the catalog and its classification and rewrites the
// enum descriptions. Entries of round_trips.rst and then the configured
// additional entries override the catalog classification.
func LoadCatalog(cfg Config) (*catalog.Catalog, *catalog.Classifier, error) {
	c, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, nil, err
	}

	extra := make(map[string]catalog.RoundTrips)

	if cfg.RoundTripsRST != "" {
		rst, err := catalog.LoadRoundTripsRST(cfg.RoundTripsRST)
		if err != nil {
			return nil, nil, err
		}

		maps.Copy(extra, rst)
	}

	maps.Copy(extra, cfg.AdditionalRoundTrips)

	c.RewriteEnumDescriptions()

	return c, catalog.NewClassifier(c, extra), nil
}

// Run loads the catalog, generates and writes every artifact. Any failure
// stops the run; files written by earlier passes are kept.
func (d *Driver) Run() (*Result, error) {
	if err := d.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c, cls, err := LoadCatalog(d.cfg)
	if err != nil {
		return nil, err
	}

	d.logger.Info().
		Int("types", len(c.DataTypes)).
		Int("functions", cls.Len()).
		Msg("Catalog loaded")

	res := &Result{Catalog: c, Classifier: cls, Diagnostics: d.diags}
	ann := annotate.New(c, d.diags)

	for _, p := range d.passes(c, cls) {
		file, err := d.runPass(p, ann)
		if err != nil {
			return res, fmt.Errorf("%s pass: %w", p.name, err)
		}

		res.Files = append(res.Files, file)

		if p.gate {
			if err := d.checkUndocumented(); err != nil {
				return res, err
			}
		}
	}

	loaders, err := d.loaders(res.Files)
	if err != nil {
		return res, err
	}

	if err := WriteFiles(loaders, d.cfg.OutputDir); err != nil {
		return res, err
	}

	res.Files = append(res.Files, loaders...)

	return res, nil
}

func (d *Driver) checkUndocumented() error {
	if !d.cfg.FailOnUndocumented {
		return nil
	}

	if n := d.diags.Count(diagnostic.CodeUndocumentedFunction); n > 0 {
		return fmt.Errorf("%w: %d function(s) missing from the catalog", ErrUndocumented, n)
	}

	return nil
}

// passes builds the generator options of the public, blocking and
// internal passes. The blocking pass is left out when no function may
// block.
func (d *Driver) passes(c *catalog.Catalog, cls *catalog.Classifier) []pass {
	cb := newDocCallbacks(c, cls, d.diags)

	_, blocked := FunctionFilters(cls, catalog.RoundTripsNo)
	blocking, _ := FunctionFilters(cls, catalog.RoundTripsYes, catalog.RoundTripsMaybe)

	public := d.baseOptions(d.cfg.Package)
	public.PackageDoc = fmt.Sprintf("Package %s provides low-level bindings for ODPI-C.", d.cfg.Package)
	public.Headers = []string{d.cfg.Header}
	public.AllowTypes = []string{d.cfg.TypePattern}
	public.AllowFunctions = []string{d.cfg.FunctionPattern}
	public.AllowVars = []string{d.cfg.VarPattern}
	public.BlockFunctions = exactPatterns(blocked)
	public.BitfieldEnums = d.bitfieldEnums(c)
	public.Callbacks = cb

	if d.cfg.ExtraHeader != "" {
		public.HeaderContents = []bindgen.InlineHeader{{Name: "dpi_additional.h", Contents: d.cfg.ExtraHeader}}
	}

	passes := []pass{{name: "public", filename: publicFile, opts: public, annotate: true}}

	if len(blocking) > 0 {
		opts := d.baseOptions(d.cfg.Package)
		opts.Headers = []string{d.cfg.Header}
		opts.AllowRecursively = false
		opts.AllowFunctions = exactPatterns(blocking)
		opts.Callbacks = cb

		filename := blockingFile

		if d.cfg.SeparateBlocking {
			opts.PackageName = d.cfg.BlockingPackage
			opts.PackageDoc = fmt.Sprintf("Package %s contains the ODPI-C functions which may be blocked by network round-trips.", d.cfg.BlockingPackage)
			opts.TypesPackage = &bindgen.TypesPackage{Name: d.cfg.Package, Path: d.cfg.ModulePath}
			filename = path.Join(d.cfg.BlockingPackage, blockingFile)
		} else {
			opts.LoaderFunc = "loadBlockingFuncs"
		}

		passes = append(passes, pass{name: "blocking", filename: filename, opts: opts, annotate: true})
	} else {
		d.logger.Info().Msg("No function may block, skipping the blocking pass")
	}

	passes[len(passes)-1].gate = true

	if d.cfg.ImplHeader != "" {
		opts := d.baseOptions(d.cfg.ImplPackage)
		opts.PackageDoc = implHeaderDoc
		opts.Headers = []string{d.cfg.ImplHeader}
		opts.IncludeDirs = d.includeDirs()
		opts.AllowVars = []string{d.cfg.VarPattern}

		passes = append(passes, pass{
			name:     "impl",
			filename: path.Join(d.cfg.ImplPackage, implFile),
			opts:     opts,
		})
	}

	return passes
}

func (d *Driver) baseOptions(pkg string) bindgen.Options {
	opts := bindgen.DefaultOptions()
	opts.PackageName = pkg
	opts.GoVersion = d.cfg.GoVersion

	return opts
}

// includeDirs points the internal header at the public header directory.
func (d *Driver) includeDirs() []string {
	return []string{filepath.Dir(d.cfg.Header)}
}

func (d *Driver) bitfieldEnums(c *catalog.Catalog) []string {
	names := slices.Clone(d.cfg.BitfieldEnums)

	if d.cfg.BitflagsFromHints {
		names = append(names, c.BitflagTypes()...)
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// runPass generates, annotates and writes the artifact of one pass.
func (d *Driver) runPass(p pass, ann *annotate.Annotator) (GeneratedFile, error) {
	logger := d.logger.With().Str("pass", p.name).Logger()
	logger.Debug().Str("package", p.opts.PackageName).Msg("Generating bindings")

	b, err := bindgen.Generate(p.opts)
	if err != nil {
		return GeneratedFile{}, err
	}

	for _, msg := range b.Skipped {
		d.diags.AddInfo(diagnostic.CodeSkippedDeclaration, msg, "")
	}

	src := b.Source

	if p.annotate {
		src, err = ann.Annotate(src)
		if err != nil {
			return GeneratedFile{}, err
		}
	}

	file := GeneratedFile{
		Filename:  p.filename,
		Content:   src,
		Functions: b.Functions,
	}

	if err := WriteFile(file, d.cfg.OutputDir); err != nil {
		return GeneratedFile{}, err
	}

	logger.Info().
		Str("file", p.filename).
		Int("functions", len(b.Functions)).
		Int("types", len(b.Types)).
		Int("constants", len(b.Constants)).
		Msg("Bindings written")

	return file, nil
}
