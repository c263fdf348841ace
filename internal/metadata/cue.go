package metadata

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
)

// A CUE schema declares resources under a top-level "resource" struct:
//
//	resource: Products: {
//		keys: ["ProductID"]
//		properties: {
//			ProductID:   "Edm.Int32"
//			ProductName: {type: "Edm.String", nullable: true}
//		}
//		navigations: {
//			Category: {target: "Categories"}
//		}
//	}
//
//	resource: Ships: {
//		base: "Transport"
//		properties: ShipName: "Edm.String"
//	}
//
// Field order is significant: keys, properties and navigations keep the
// order they are declared in.

// LoadCUE loads every CUE file in dir as one instance and compiles its
// resources.
func LoadCUE(dir string) (*Static, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan schema directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := ctx.BuildInstance(inst)
	return CompileCUE(value)
}

// CompileCUEString compiles CUE source text. filename is only used in error
// positions.
func CompileCUEString(filename, src string) (*Static, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	return CompileCUE(value)
}

// CompileCUE compiles the "resource" struct of a CUE value.
func CompileCUE(v cue.Value) (*Static, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	resourcesVal := v.LookupPath(cue.ParsePath("resource"))
	if !resourcesVal.Exists() {
		return nil, &SchemaError{Field: "resource", Message: "no resources declared", Pos: v.Pos()}
	}

	iter, err := resourcesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var resources []*Resource
	for iter.Next() {
		r, err := compileResource(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}

	return NewStatic(resources...)
}

func compileResource(name string, v cue.Value) (*Resource, error) {
	r := &Resource{Name: name}

	var err error
	if r.Keys, err = stringList(v, "keys"); err != nil {
		return nil, err
	}
	if r.Base, err = optionalString(v, "base"); err != nil {
		return nil, err
	}
	if r.Cast, err = optionalString(v, "cast"); err != nil {
		return nil, err
	}

	if complexVal := v.LookupPath(cue.ParsePath("complex")); complexVal.Exists() {
		if r.Complex, err = complexVal.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	if r.Properties, err = compileProperties(name, v); err != nil {
		return nil, err
	}
	if r.Navigations, err = compileNavigations(name, v); err != nil {
		return nil, err
	}
	return r, nil
}

// compileProperties accepts either a type name or {type, nullable} per
// property.
func compileProperties(resource string, v cue.Value) ([]Property, error) {
	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return nil, nil
	}

	iter, err := propsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var props []Property
	for iter.Next() {
		p := Property{Name: iter.Label()}
		pv := iter.Value()

		if typeName, err := pv.String(); err == nil {
			p.Type = typeName
			props = append(props, p)
			continue
		}

		typeVal := pv.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return nil, &SchemaError{
				Resource: resource,
				Field:    p.Name,
				Message:  "property must be a type name or a struct with a type field",
				Pos:      pv.Pos(),
			}
		}
		if p.Type, err = typeVal.String(); err != nil {
			return nil, formatCUEError(err)
		}
		if nullVal := pv.LookupPath(cue.ParsePath("nullable")); nullVal.Exists() {
			if p.Nullable, err = nullVal.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		props = append(props, p)
	}
	return props, nil
}

func compileNavigations(resource string, v cue.Value) ([]Navigation, error) {
	navsVal := v.LookupPath(cue.ParsePath("navigations"))
	if !navsVal.Exists() {
		return nil, nil
	}

	iter, err := navsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var navs []Navigation
	for iter.Next() {
		n := Navigation{Name: iter.Label()}
		nv := iter.Value()

		targetVal := nv.LookupPath(cue.ParsePath("target"))
		if !targetVal.Exists() {
			return nil, &SchemaError{
				Resource: resource,
				Field:    n.Name,
				Message:  "navigation target is required",
				Pos:      nv.Pos(),
			}
		}
		if n.Target, err = targetVal.String(); err != nil {
			return nil, formatCUEError(err)
		}
		if collVal := nv.LookupPath(cue.ParsePath("collection")); collVal.Exists() {
			if n.Collection, err = collVal.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		navs = append(navs, n)
	}
	return navs, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(field))
	if !sv.Exists() {
		return "", nil
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &SchemaError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
