// Package source resolves services from Go source files.
//
// An identifier such as "users/UserService" names the file
// users/UserService.go below one of the service folders. The service is the
// type declared in that package whose name matches the file's base name,
// ignoring case, underscores and dashes, so "users/user_service" also finds
// UserService.
//
// The service's methods are the exported methods declared on the type, in
// source order. A parameter's declared type is reported only when it is a
// named type or a pointer to one; predeclared and unnamed types are left for
// doc comment hints.
package source

import (
	"fmt"
	"go/ast"
	"go/types"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/broady/gateway/discovery"
	"golang.org/x/tools/go/packages"
)

// DefaultSuffix is the file suffix appended to identifiers.
const DefaultSuffix = ".go"

// Instantiator loads services from Go source. The zero value is ready to use.
type Instantiator struct {
	// Suffix is appended to identifiers to find service files.
	// Defaults to DefaultSuffix.
	Suffix string

	// BuildFlags are passed to the build system when loading packages.
	BuildFlags []string
}

// Resolve implements discovery.Instantiator.
//
// An explicit registration with a Path takes precedence over the folders.
// Its Type, if set, names the service type; a package qualifier such as
// "users.UserService" is ignored.
func (in *Instantiator) Resolve(id string, folders []string, regs []discovery.Registration) (discovery.Service, error) {
	file, typeName, err := in.locate(id, folders, regs)
	if err != nil {
		return nil, &discovery.ResolutionError{Identifier: id, Err: err}
	}
	svc, err := in.Load(file, typeName)
	if err != nil {
		return nil, &discovery.ResolutionError{Identifier: id, Err: err}
	}
	return svc, nil
}

func (in *Instantiator) suffix() string {
	if in.Suffix != "" {
		return in.Suffix
	}
	return DefaultSuffix
}

func (in *Instantiator) locate(id string, folders []string, regs []discovery.Registration) (file, typeName string, err error) {
	if reg, ok := discovery.LookupRegistration(regs, id); ok && reg.Path != "" {
		typeName = reg.Type
		if i := strings.LastIndex(typeName, "."); i >= 0 {
			typeName = typeName[i+1:]
		}
		if typeName == "" {
			typeName = strings.TrimSuffix(filepath.Base(reg.Path), in.suffix())
		}
		return reg.Path, typeName, nil
	}

	for _, folder := range folders {
		candidate := filepath.Join(folder, filepath.FromSlash(id)+in.suffix())
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, path.Base(id), nil
		}
	}
	return "", "", discovery.ErrNotFound
}

// Load loads the package containing file and describes the type named
// typeName.
func (in *Instantiator) Load(file, typeName string) (discovery.Static, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return discovery.Static{}, fmt.Errorf("resolve path: %w", err)
	}

	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo,
		Dir:        filepath.Dir(abs),
		BuildFlags: in.BuildFlags,
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return discovery.Static{}, fmt.Errorf("load package: %w", err)
	}
	if len(pkgs) != 1 {
		return discovery.Static{}, fmt.Errorf("expected one package in %s, found %d", cfg.Dir, len(pkgs))
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return discovery.Static{}, fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors[0])
	}

	obj := lookupType(pkg.Types.Scope(), typeName)
	if obj == nil {
		return discovery.Static{}, fmt.Errorf("type %s not found in package %s", typeName, pkg.PkgPath)
	}

	return discovery.Static{
		Description: typeDoc(pkg.Syntax, obj.Name()),
		Contract:    methods(pkg, obj.Name()),
	}, nil
}

// lookupType finds a type by exact name, falling back to a loose match.
func lookupType(scope *types.Scope, name string) *types.TypeName {
	if tn, ok := scope.Lookup(name).(*types.TypeName); ok {
		return tn
	}
	want := normalize(name)
	for _, n := range scope.Names() {
		if tn, ok := scope.Lookup(n).(*types.TypeName); ok && normalize(n) == want {
			return tn
		}
	}
	return nil
}

func normalize(name string) string {
	name = strings.ToLower(name)
	return strings.NewReplacer("_", "", "-", "").Replace(name)
}

// typeDoc returns the raw doc comment of the named type declaration.
func typeDoc(files []*ast.File, name string) string {
	for _, f := range files {
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || ts.Name.Name != name {
					continue
				}
				if ts.Doc != nil {
					return rawComment(ts.Doc)
				}
				if len(gd.Specs) == 1 {
					return rawComment(gd.Doc)
				}
				return ""
			}
		}
	}
	return ""
}

// methods lists the exported methods declared on the named type.
func methods(pkg *packages.Package, name string) []discovery.Method {
	qualifier := types.RelativeTo(pkg.Types)

	var out []discovery.Method
	for _, f := range pkg.Syntax {
		for _, decl := range f.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Recv == nil || len(fd.Recv.List) != 1 {
				continue
			}
			if receiverName(fd.Recv.List[0].Type) != name || !fd.Name.IsExported() {
				continue
			}
			fn, ok := pkg.TypesInfo.Defs[fd.Name].(*types.Func)
			if !ok {
				continue
			}
			sig := fn.Type().(*types.Signature)

			params := make([]discovery.Param, 0, sig.Params().Len())
			for i := 0; i < sig.Params().Len(); i++ {
				v := sig.Params().At(i)
				params = append(params, discovery.Param{
					Name: v.Name(),
					Type: structuralType(v.Type(), qualifier),
				})
			}
			out = append(out, discovery.Method{
				Name:   fd.Name.Name,
				Params: params,
				Doc:    rawComment(fd.Doc),
			})
		}
	}
	return out
}

func receiverName(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

// structuralType returns the declared type of a parameter if it is a named
// type, or a pointer to one, declared in some package.
func structuralType(t types.Type, q types.Qualifier) string {
	t = types.Unalias(t)
	target := t
	if ptr, ok := t.(*types.Pointer); ok {
		target = types.Unalias(ptr.Elem())
	}
	named, ok := target.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return ""
	}
	return types.TypeString(t, q)
}

// rawComment reassembles a comment group with its delimiters intact.
func rawComment(cg *ast.CommentGroup) string {
	if cg == nil {
		return ""
	}
	lines := make([]string, 0, len(cg.List))
	for _, c := range cg.List {
		lines = append(lines, c.Text)
	}
	return strings.Join(lines, "\n")
}

var _ discovery.Instantiator = (*Instantiator)(nil)
