package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/atlas/internal/catalog"
	"github.com/mesh-intelligence/atlas/internal/sqlite"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every table to <dir> as JSONL files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCatalog(func(b *sqlite.Backend, _ *catalog.Service) error {
				if err := b.Export(cmd.Context(), args[0]); err != nil {
					return err
				}
				a.log.Info("catalog exported", "dir", args[0])
				fmt.Fprintf(out(cmd), "Exported catalog to %s\n", args[0])
				return nil
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Replace the catalog with the JSONL snapshot in <dir>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("snapshot dir: %w: %w", err, errUsage)
			}
			return a.withCatalog(func(b *sqlite.Backend, _ *catalog.Service) error {
				report, err := b.Import(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				a.log.Info("catalog imported", "dir", args[0], "loaded", report.Loaded, "skipped", report.Skipped)
				if a.flags.jsonMode {
					return printJSON(cmd, report)
				}
				tables := make([]string, 0, len(report.Loaded))
				for t := range report.Loaded {
					tables = append(tables, t)
				}
				sort.Strings(tables)
				rows := make([][]string, 0, len(tables))
				for _, t := range tables {
					rows = append(rows, []string{t, fmt.Sprint(report.Loaded[t]), fmt.Sprint(report.Skipped[t])})
				}
				return printTable(out(cmd), []string{"TABLE", "LOADED", "SKIPPED"}, rows)
			})
		},
	}
}

func newProjectCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Write the full projection of every resource as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCatalog(func(_ *sqlite.Backend, svc *catalog.Service) error {
				var w io.Writer = out(cmd)
				if outPath != "" {
					f, err := os.Create(outPath)
					if err != nil {
						return fmt.Errorf("create %s: %w", outPath, err)
					}
					defer f.Close()
					w = f
				}
				n, err := svc.ExportProjections(cmd.Context(), w)
				if err != nil {
					return err
				}
				if outPath != "" {
					fmt.Fprintf(out(cmd), "Wrote %d projections to %s\n", n, outPath)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Create the descriptors defined in a YAML seed file",
		Long: "Create every descriptor listed in the seed file whose name is not defined\n" +
			"yet. Running the same seed twice changes nothing.\n\n" +
			"descriptors:\n  - name: Categories\n    values: [Food, Housing]\n    searchable: true\n  - name: Phone Number",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := sqlite.LoadSeedFile(args[0])
			if err != nil {
				return err
			}
			return a.withCatalog(func(b *sqlite.Backend, _ *catalog.Service) error {
				n, err := b.Seed(cmd.Context(), sf.Descriptors)
				if err != nil {
					return err
				}
				a.log.Info("descriptors seeded", "file", args[0], "created", n)
				fmt.Fprintf(out(cmd), "Created %d of %d descriptors\n", n, len(sf.Descriptors))
				return nil
			})
		},
	}
}
