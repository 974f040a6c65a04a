// scopegen generates entity scope registrations, field maps and typed
// filter refs for annotated structs.
//
// Run: go run ./compiler/cmd/scopegen -out ./internal/model ./internal/model
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/hypernetix/hyperspot-sub000/compiler/gen"
	"github.com/hypernetix/hyperspot-sub000/compiler/load"
)

func main() {
	var (
		out     = flag.String("out", ".", "directory generated files are written to")
		pkg     = flag.String("pkg", "", "package name of generated files (defaults to the out directory name)")
		dir     = flag.String("dir", ".", "working directory for package loading")
		workers = flag.Int("workers", 0, "bound on parallel file writes (0 means one per entity)")
	)
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "scopegen: no package patterns; usage: scopegen [flags] <patterns...>")
		os.Exit(2)
	}
	ctx := context.Background()
	entities, err := load.Load(ctx, load.Config{
		Patterns: flag.Args(),
		Dir:      *dir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "scopegen: %v\n", err)
		os.Exit(1)
	}
	if len(entities) == 0 {
		fmt.Fprintln(os.Stderr, "scopegen: no registered entities found")
		os.Exit(1)
	}
	if err := gen.Generate(ctx, gen.Config{OutDir: *out, Package: *pkg, Workers: *workers}, entities); err != nil {
		fmt.Fprintf(os.Stderr, "scopegen: %v\n", err)
		os.Exit(1)
	}
	for _, e := range entities {
		fmt.Printf("scopegen: %s -> %s\n", e.Name, e.Table)
	}
}
