package driver

import (
	"bytes"
	"fmt"
	"go/format"
	"path"
	"text/template"
)

// loaderData holds the data of a loader.go stub.
type loaderData struct {
	PackageName string
	GoVersion   string
	LibName     string
	// Loaders are the generated functions resolving the symbols.
	Loaders []string
}

var rootLoaderTemplate = template.Must(template.New("loader").Parse(`// Code generated by odpic-bindgen. DO NOT EDIT.
{{if .GoVersion}}
//go:build {{.GoVersion}}
{{end}}
package {{.PackageName}}

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/jupiterrider/ffi"
)

var lib ffi.Lib

// Load opens the ODPI-C library found in dir and resolves the functions of
// this package.
func Load(dir string) error {
	var err error

	lib, err = ffi.Load(LibraryPath(dir))
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}
{{range .Loaders}}
	if err := {{.}}(lib); err != nil {
		return err
	}
{{end}}
	return nil
}

// Library returns the library opened by Load.
func Library() ffi.Lib {
	return lib
}

// LibraryPath returns the path of the shared library inside dir.
func LibraryPath(dir string) string {
	var filename string

	switch runtime.GOOS {
	case "darwin":
		filename = "lib{{.LibName}}.dylib"
	case "windows":
		filename = "{{.LibName}}.dll"
	default:
		filename = "lib{{.LibName}}.so"
	}

	return filepath.Join(dir, filename)
}
`))

var subLoaderTemplate = template.Must(template.New("sub_loader").Parse(`// Code generated by odpic-bindgen. DO NOT EDIT.
{{if .GoVersion}}
//go:build {{.GoVersion}}
{{end}}
package {{.PackageName}}

import "github.com/jupiterrider/ffi"

// Load resolves the functions of this package from a library opened by the
// parent package.
func Load(lib ffi.Lib) error {
{{- range .Loaders}}
	if err := {{.}}(lib); err != nil {
		return err
	}
{{- end}}

	return nil
}
`))

// loaders renders the loader stubs of the packages that bind functions.
func (d *Driver) loaders(files []GeneratedFile) ([]GeneratedFile, error) {
	root := loaderData{
		PackageName: d.cfg.Package,
		GoVersion:   d.cfg.GoVersion,
		LibName:     d.cfg.LibName,
	}

	var out []GeneratedFile

	for _, f := range files {
		if len(f.Functions) == 0 {
			continue
		}

		switch f.Filename {
		case publicFile:
			root.Loaders = append(root.Loaders, "loadFuncs")
		case blockingFile:
			root.Loaders = append(root.Loaders, "loadBlockingFuncs")
		default:
			sub := loaderData{
				PackageName: path.Base(path.Dir(f.Filename)),
				GoVersion:   d.cfg.GoVersion,
				Loaders:     []string{"loadFuncs"},
			}

			file, err := d.renderLoader(subLoaderTemplate, sub, path.Join(path.Dir(f.Filename), loaderFile))
			if err != nil {
				return nil, err
			}

			out = append(out, file)
		}
	}

	file, err := d.renderLoader(rootLoaderTemplate, root, loaderFile)
	if err != nil {
		return nil, err
	}

	return append([]GeneratedFile{file}, out...), nil
}

func (d *Driver) renderLoader(tmpl *template.Template, data loaderData, filename string) (GeneratedFile, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return GeneratedFile{}, fmt.Errorf("executing template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		// Best-effort: keep the unformatted code to aid debugging.
		_ = writeDebugUnformatted(d.cfg.OutputDir, filename, buf.Bytes())

		return GeneratedFile{}, fmt.Errorf("formatting %s: %w", filename, err)
	}

	return GeneratedFile{Filename: filename, Content: formatted}, nil
}
