// Package gen emits the per-entity registry code: scope declarations,
// filterable field maps and typed filter refs, generated from the
// entities the load package extracted. Output is written next to the
// entity types, one file per entity.
package gen

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hypernetix/hyperspot-sub000/compiler/load"
)

const (
	entityPkg = "github.com/hypernetix/hyperspot-sub000/entity"
	filterPkg = "github.com/hypernetix/hyperspot-sub000/filter"

	header = "Code generated by scopegen. DO NOT EDIT."
)

// Config configures generation.
type Config struct {
	// OutDir is the directory generated files are written to.
	OutDir string
	// Package is the package name of the generated files.
	Package string
	// Workers bounds parallel file writes. Zero means one per entity.
	Workers int
}

// Generate writes one <entity>_scope.go file per entity.
func Generate(ctx context.Context, cfg Config, entities []*load.Entity) error {
	if cfg.OutDir == "" {
		return fmt.Errorf("gen: no output directory")
	}
	if cfg.Package == "" {
		cfg.Package = filepath.Base(cfg.OutDir)
	}
	g, _ := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for _, e := range entities {
		e := e
		g.Go(func() error {
			f, err := entityFile(cfg.Package, e)
			if err != nil {
				return err
			}
			name := filepath.Join(cfg.OutDir, strings.ToLower(e.Name)+"_scope.go")
			if err := f.Save(name); err != nil {
				return fmt.Errorf("gen: writing %s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func entityFile(pkg string, e *load.Entity) (*jen.File, error) {
	f := jen.NewFile(pkg)
	f.HeaderComment(header)

	f.Commentf("%sScope declares how %s participates in access scoping.", e.Name, e.Name)
	f.Var().Id(e.Name + "Scope").Op("=").Add(scopeExpr(e))

	f.Commentf("%sTable is the storage table of %s.", e.Name, e.Name)
	f.Const().Id(e.Name + "Table").Op("=").Lit(e.Table)

	if len(e.Fields) > 0 {
		fields := make([]jen.Code, 0, len(e.Fields))
		for _, fd := range e.Fields {
			fields = append(fields, jen.Qual(entityPkg, "Field").Values(jen.Dict{
				jen.Id("Name"):   jen.Lit(fd.Name),
				jen.Id("Column"): jen.Lit(fd.Column),
				jen.Id("Kind"):   jen.Qual(entityPkg, "Kind"+fd.Kind),
				jen.Id("Unique"): jen.Lit(fd.Unique),
			}))
		}
		f.Commentf("%sFields is the closed filterable field set of %s.", e.Name, e.Name)
		f.Var().Id(e.Name + "Fields").Op("=").Qual(entityPkg, "MustFieldMap").Call(fields...)

		refFields := make([]jen.Code, 0, len(e.Fields))
		refValues := jen.Dict{}
		for _, fd := range e.Fields {
			refType, err := refTypeName(fd.Kind)
			if err != nil {
				return nil, fmt.Errorf("gen: %s.%s: %w", e.Name, fd.Name, err)
			}
			goName := exportedName(fd.Name)
			refFields = append(refFields, jen.Id(goName).Qual(filterPkg, refType).Index(jen.Id(e.Name)))
			refValues[jen.Id(goName)] = jen.Lit(fd.Name)
		}
		f.Commentf("%sFilter holds the typed filter field refs of %s.", e.Name, e.Name)
		f.Var().Id(e.Name + "Filter").Op("=").Struct(refFields...).Values(refValues)
	}
	return f, nil
}

func scopeExpr(e *load.Entity) jen.Code {
	if e.Unrestricted {
		return jen.Qual(entityPkg, "Unrestricted").Call()
	}
	dims := make([]jen.Code, 0, 4)
	for _, dim := range []string{"tenant", "resource", "owner", "type"} {
		if col, ok := e.Columns[dim]; ok {
			dims = append(dims, jen.Qual(entityPkg, "Column").Call(jen.Lit(col)))
		} else {
			dims = append(dims, jen.Qual(entityPkg, "Absent").Call())
		}
	}
	return jen.Qual(entityPkg, "Restricted").Call(dims...)
}

func refTypeName(kind string) (string, error) {
	switch kind {
	case load.KindString:
		return "StringRef", nil
	case load.KindInt64:
		return "Int64Ref", nil
	case load.KindFloat64:
		return "Float64Ref", nil
	case load.KindBool:
		return "BoolRef", nil
	case load.KindUUID:
		return "UUIDRef", nil
	case load.KindTime:
		return "TimeRef", nil
	case load.KindDate:
		return "DateRef", nil
	case load.KindTimeOfDay:
		return "TimeOfDayRef", nil
	case load.KindDecimal:
		return "DecimalRef", nil
	default:
		return "", fmt.Errorf("unknown kind %q", kind)
	}
}

var initialisms = map[string]string{
	"id":   "ID",
	"uuid": "UUID",
	"url":  "URL",
	"api":  "API",
}

var titler = cases.Title(language.English, cases.NoLower)

// exportedName converts a snake_case filter name into an exported Go
// identifier ("created_at" to "CreatedAt", "id" to "ID").
func exportedName(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if up, ok := initialisms[strings.ToLower(p)]; ok {
			parts[i] = up
			continue
		}
		parts[i] = titler.String(strings.ToLower(p))
	}
	return strings.Join(parts, "")
}
