// Package load extracts entity declarations from annotated Go structs.
// It is the build-time half of the registry: a struct that opts in with
// a scopegen directive must declare every scope dimension explicitly,
// and the loader fails the build on missing or conflicting declarations
// instead of deferring them to runtime.
//
// A registered entity looks like:
//
//	//scopegen:entity
//	//scopegen:absent owner,type
//	type Order struct {
//		ID        uuid.UUID `scope:"resource" filter:"id,unique"`
//		TenantID  uuid.UUID `scope:"tenant"`
//		Status    string    `filter:"status"`
//		CreatedAt time.Time `filter:"created_at"`
//	}
//
// Dimensions are declared present with a scope tag on the carrying
// field, or absent with the absent directive. The unrestricted
// directive replaces all four declarations and conflicts with any
// scope tag.
package load

import (
	"context"
	"fmt"
	"go/ast"
	"go/types"
	"sort"
	"strings"
	"sync"

	"github.com/go-openapi/inflect"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"
)

// Directives recognized on entity type declarations.
const (
	directiveEntity       = "//scopegen:entity"
	directiveUnrestricted = "//scopegen:unrestricted"
	directiveAbsent       = "//scopegen:absent"
)

var dimensions = []string{"tenant", "resource", "owner", "type"}

// Kind names emitted into generated field maps. They mirror the
// entity.FieldKind constants.
const (
	KindString    = "String"
	KindInt64     = "Int64"
	KindFloat64   = "Float64"
	KindBool      = "Bool"
	KindUUID      = "UUID"
	KindTime      = "Time"
	KindDate      = "Date"
	KindTimeOfDay = "TimeOfDay"
	KindDecimal   = "Decimal"
)

// Field is one filterable field of a loaded entity.
type Field struct {
	// Name is the exposed filter/order name.
	Name string
	// Column is the storage column.
	Column string
	// Kind is the entity.Kind* constant name.
	Kind string
	// Unique marks tiebreaker-eligible fields.
	Unique bool
}

// Entity is one registered record type.
type Entity struct {
	// Name is the Go type name.
	Name string
	// Package is the import path the type was loaded from.
	Package string
	// Table is the storage table, derived from the type name.
	Table string
	// Unrestricted marks entities exempt from scoping.
	Unrestricted bool
	// Columns maps declared-present dimensions to their columns.
	Columns map[string]string
	// Absent lists dimensions declared explicitly absent.
	Absent []string
	// Fields are the filterable fields in declaration order.
	Fields []Field
}

// Config configures a load.
type Config struct {
	// Patterns are package patterns in the go/packages sense.
	Patterns []string
	// Dir is the working directory for the load.
	Dir string
	// BuildFlags are extra flags forwarded to the build system.
	BuildFlags []string
}

// Load parses the configured packages and returns the registered
// entities. Any malformed declaration is an error; the caller is
// expected to abort code generation, failing the build.
func Load(ctx context.Context, cfg Config) ([]*Entity, error) {
	if len(cfg.Patterns) == 0 {
		return nil, fmt.Errorf("load: no package patterns")
	}
	pkgs, err := packages.Load(&packages.Config{
		Context:    ctx,
		Dir:        cfg.Dir,
		BuildFlags: cfg.BuildFlags,
		Mode: packages.NeedName | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
	}, cfg.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("load: loading packages: %w", err)
	}
	if n := packages.PrintErrors(pkgs); n > 0 {
		return nil, fmt.Errorf("load: %d package errors", n)
	}
	var (
		mu       sync.Mutex
		entities []*Entity
	)
	g, _ := errgroup.WithContext(ctx)
	for _, pkg := range pkgs {
		pkg := pkg
		g.Go(func() error {
			found, err := loadPackage(pkg)
			if err != nil {
				return err
			}
			mu.Lock()
			entities = append(entities, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })
	return entities, nil
}

func loadPackage(pkg *packages.Package) ([]*Entity, error) {
	var entities []*Entity
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Doc == nil {
				continue
			}
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				st, ok := ts.Type.(*ast.StructType)
				if !ok {
					continue
				}
				e, err := loadEntity(pkg, ts.Name.Name, gd.Doc, st)
				if err != nil {
					return nil, err
				}
				if e != nil {
					entities = append(entities, e)
				}
			}
		}
	}
	return entities, nil
}

func loadEntity(pkg *packages.Package, name string, doc *ast.CommentGroup, st *ast.StructType) (*Entity, error) {
	var (
		registered   bool
		unrestricted bool
		absent       []string
	)
	for _, c := range doc.List {
		text := strings.TrimSpace(c.Text)
		switch {
		case text == directiveEntity:
			registered = true
		case text == directiveUnrestricted:
			registered = true
			unrestricted = true
		case strings.HasPrefix(text, directiveAbsent):
			registered = true
			for _, dim := range strings.Split(strings.TrimSpace(strings.TrimPrefix(text, directiveAbsent)), ",") {
				absent = append(absent, strings.TrimSpace(dim))
			}
		}
	}
	if !registered {
		return nil, nil
	}
	e := &Entity{
		Name:         name,
		Package:      pkg.PkgPath,
		Table:        inflect.Pluralize(inflect.Underscore(name)),
		Unrestricted: unrestricted,
		Columns:      make(map[string]string),
		Absent:       absent,
	}
	for _, dim := range absent {
		if !validDimension(dim) {
			return nil, fmt.Errorf("load: %s.%s: unknown dimension %q in absent directive", pkg.PkgPath, name, dim)
		}
	}
	seen := make(map[string]struct{})
	for _, f := range st.Fields.List {
		if f.Tag == nil || len(f.Names) == 0 {
			continue
		}
		tag := parseTag(f.Tag.Value)
		fieldName := f.Names[0].Name
		column := tag["db"]
		if column == "" {
			column = inflect.Underscore(fieldName)
		}
		if dim, ok := tag["scope"]; ok {
			if !validDimension(dim) {
				return nil, fmt.Errorf("load: %s.%s.%s: unknown scope dimension %q", pkg.PkgPath, name, fieldName, dim)
			}
			if unrestricted {
				return nil, fmt.Errorf("load: %s.%s: unrestricted entity declares %s dimension on field %s", pkg.PkgPath, name, dim, fieldName)
			}
			if prev, dup := e.Columns[dim]; dup {
				return nil, fmt.Errorf("load: %s.%s: %s dimension declared twice (%s, %s)", pkg.PkgPath, name, dim, prev, column)
			}
			e.Columns[dim] = column
		}
		if spec, ok := tag["filter"]; ok {
			ff, err := parseFilterTag(spec, fieldName, column)
			if err != nil {
				return nil, fmt.Errorf("load: %s.%s.%s: %w", pkg.PkgPath, name, fieldName, err)
			}
			if ff.Kind == "" {
				kind, err := fieldKind(pkg, f)
				if err != nil {
					return nil, fmt.Errorf("load: %s.%s.%s: %w", pkg.PkgPath, name, fieldName, err)
				}
				ff.Kind = kind
			}
			key := strings.ToLower(ff.Name)
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("load: %s.%s: duplicate filter field %q", pkg.PkgPath, name, ff.Name)
			}
			seen[key] = struct{}{}
			e.Fields = append(e.Fields, ff)
		}
	}
	return e, validateEntity(e)
}

// validateEntity enforces the explicit-declaration rule: every
// dimension of a restricted entity is either present (scope tag) or
// absent (directive), never both and never neither.
func validateEntity(e *Entity) error {
	if e.Unrestricted {
		if len(e.Absent) > 0 {
			return fmt.Errorf("load: %s: unrestricted entity also carries an absent directive", e.Name)
		}
		return nil
	}
	declared := make(map[string]string, 4)
	for dim, col := range e.Columns {
		declared[dim] = col
	}
	for _, dim := range e.Absent {
		if _, both := declared[dim]; both {
			return fmt.Errorf("load: %s: dimension %q declared both present and absent", e.Name, dim)
		}
		declared[dim] = ""
	}
	for _, dim := range dimensions {
		if _, ok := declared[dim]; !ok {
			return fmt.Errorf("load: %s: dimension %q is not declared; add a scope tag or an absent directive", e.Name, dim)
		}
	}
	return nil
}

func validDimension(dim string) bool {
	for _, d := range dimensions {
		if d == dim {
			return true
		}
	}
	return false
}

// parseFilterTag parses a filter tag: the exposed name (defaults to the
// snake form of the field name) followed by options. "unique" marks
// tiebreaker-eligible fields; "date", "timeofday" and "decimal" override
// the kind, since Go carries those values in time.Time or string.
func parseFilterTag(spec, fieldName, column string) (Field, error) {
	parts := strings.Split(spec, ",")
	name := parts[0]
	if name == "" {
		name = inflect.Underscore(fieldName)
	}
	f := Field{Name: name, Column: column}
	for _, opt := range parts[1:] {
		switch opt {
		case "unique":
			f.Unique = true
		case "date":
			f.Kind = KindDate
		case "timeofday":
			f.Kind = KindTimeOfDay
		case "decimal":
			f.Kind = KindDecimal
		default:
			return Field{}, fmt.Errorf("unknown filter option %q", opt)
		}
	}
	return f, nil
}

// fieldKind maps the field's Go type onto a field kind name.
func fieldKind(pkg *packages.Package, f *ast.Field) (string, error) {
	tv, ok := pkg.TypesInfo.Types[f.Type]
	if !ok {
		return "", fmt.Errorf("unresolved type")
	}
	switch t := tv.Type.String(); t {
	case "string":
		return KindString, nil
	case "int", "int32", "int64":
		return KindInt64, nil
	case "float32", "float64":
		return KindFloat64, nil
	case "bool":
		return KindBool, nil
	case "github.com/google/uuid.UUID":
		return KindUUID, nil
	case "time.Time":
		return KindTime, nil
	default:
		if b, ok := tv.Type.Underlying().(*types.Basic); ok {
			switch b.Kind() {
			case types.String:
				return KindString, nil
			case types.Int, types.Int32, types.Int64:
				return KindInt64, nil
			case types.Float32, types.Float64:
				return KindFloat64, nil
			case types.Bool:
				return KindBool, nil
			}
		}
		return "", fmt.Errorf("unsupported filter field type %s", t)
	}
}

// parseTag parses a raw struct tag literal into key/value pairs.
func parseTag(raw string) map[string]string {
	raw = strings.Trim(raw, "`")
	out := make(map[string]string)
	for raw != "" {
		i := 0
		for i < len(raw) && raw[i] == ' ' {
			i++
		}
		raw = raw[i:]
		if raw == "" {
			break
		}
		i = strings.IndexByte(raw, ':')
		if i < 0 || i+1 >= len(raw) || raw[i+1] != '"' {
			break
		}
		key := raw[:i]
		rest := raw[i+2:]
		j := strings.IndexByte(rest, '"')
		if j < 0 {
			break
		}
		out[key] = rest[:j]
		raw = rest[j+1:]
	}
	return out
}
