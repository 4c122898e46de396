package parser

import (
	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
)

// Result is a component source with its import and export syntax removed.
type Result struct {
	// ImportErr is set when import extraction stopped early. The source
	// after the failing statement is left as written.
	ImportErr error
	// Source is the remaining component body.
	Source string
	// Export is the exported identifier, empty for body-style components.
	Export  string
	Imports []ModuleImport
}

// BoundaryImports returns the imports that reference other components.
func (r *Result) BoundaryImports() []ModuleImport {
	var out []ModuleImport
	for _, imp := range r.Imports {
		if imp.IsBoundaryComponent {
			out = append(out, imp)
		}
	}
	return out
}

// PackageImports returns the imports of shared packages.
func (r *Result) PackageImports() []ModuleImport {
	var out []ModuleImport
	for _, imp := range r.Imports {
		if !imp.IsBoundaryComponent {
			out = append(out, imp)
		}
	}
	return out
}

// Parse strips imports and the export from the source of the component at
// path. A malformed import only stops import extraction; a malformed or
// repeated export fails.
func Parse(src string, path component.Path) (*Result, error) {
	body, imports, importErr := ParseImports(src, path)
	export, body, detail := parseExport(body)
	if detail != "" {
		return nil, errors.ParseFailed(string(path), detail)
	}
	return &Result{
		Source:    body,
		Export:    export,
		Imports:   imports,
		ImportErr: importErr,
	}, nil
}
