package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/atlas/internal/catalog"
	"github.com/mesh-intelligence/atlas/internal/sqlite"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

func newDescriptorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "descriptor",
		Aliases: []string{"descriptors"},
		Short:   "Manage descriptors (attribute types)",
	}
	cmd.AddCommand(
		newDescriptorAddCmd(a),
		newDescriptorListCmd(a),
		newDescriptorShowCmd(a),
		newDescriptorUpdateCmd(a),
		newDescriptorDeleteCmd(a),
	)
	return cmd
}

func newDescriptorAddCmd(a *app) *cobra.Command {
	var (
		values     []string
		searchable bool
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Define a descriptor",
		Long: "Define a text descriptor, or an option descriptor when --value is given.\n\n" +
			"Example:\n  atlas descriptor add \"Has Showers\" --value No --value Yes",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCatalog(func(_ *sqlite.Backend, svc *catalog.Service) error {
				d := &types.Descriptor{Name: strings.TrimSpace(args[0]), Values: values, IsSearchable: searchable}
				if err := svc.CreateDescriptor(cmd.Context(), d); err != nil {
					return err
				}
				return printDescriptor(cmd, a, d)
			})
		},
	}
	cmd.Flags().StringArrayVar(&values, "value", nil, "option value (repeat for each option, in order)")
	cmd.Flags().BoolVar(&searchable, "searchable", false, "mark the descriptor as searchable")
	return cmd
}

func newDescriptorListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List descriptors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCatalog(func(b *sqlite.Backend, _ *catalog.Service) error {
				ds, err := b.Descriptors().ListAll(cmd.Context())
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, ds)
				}
				rows := make([][]string, 0, len(ds))
				for _, d := range ds {
					rows = append(rows, []string{
						strconv.FormatInt(d.ID, 10), d.Name, d.Kind(), strings.Join(d.Values, ", "), strconv.FormatBool(d.IsSearchable),
					})
				}
				return printTable(out(cmd), []string{"ID", "NAME", "KIND", "VALUES", "SEARCHABLE"}, rows)
			})
		},
	}
}

func newDescriptorShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withCatalog(func(b *sqlite.Backend, _ *catalog.Service) error {
				d, err := b.Descriptors().GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printDescriptor(cmd, a, d)
			})
		},
	}
}

func newDescriptorUpdateCmd(a *app) *cobra.Command {
	var (
		name        string
		values      []string
		clearValues bool
		searchable  bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a descriptor or change its values",
		Long: "Only the flags given are changed. --value replaces the whole value list;\n" +
			"--clear-values turns an option descriptor into a text descriptor.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withCatalog(func(_ *sqlite.Backend, svc *catalog.Service) error {
				d, err := svc.UpdateDescriptor(cmd.Context(), id, func(d *types.Descriptor) {
					if cmd.Flags().Changed("name") {
						d.Name = strings.TrimSpace(name)
					}
					if cmd.Flags().Changed("value") {
						d.Values = values
					}
					if clearValues {
						d.Values = nil
					}
					if cmd.Flags().Changed("searchable") {
						d.IsSearchable = searchable
					}
				})
				if err != nil {
					return err
				}
				return printDescriptor(cmd, a, d)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringArrayVar(&values, "value", nil, "replacement option value (repeat, in order)")
	cmd.Flags().BoolVar(&clearValues, "clear-values", false, "remove every option value")
	cmd.Flags().BoolVar(&searchable, "searchable", false, "searchable flag")
	cmd.MarkFlagsMutuallyExclusive("value", "clear-values")
	return cmd
}

func newDescriptorDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a descriptor and every association using it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withCatalog(func(_ *sqlite.Backend, svc *catalog.Service) error {
				if err := svc.DeleteDescriptor(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "Deleted descriptor %d\n", id)
				return nil
			})
		},
	}
}

func printDescriptor(cmd *cobra.Command, a *app, d *types.Descriptor) error {
	if a.flags.jsonMode {
		return printJSON(cmd, d)
	}
	w := out(cmd)
	fmt.Fprintf(w, "ID:         %d\n", d.ID)
	fmt.Fprintf(w, "Name:       %s\n", d.Name)
	fmt.Fprintf(w, "Kind:       %s\n", d.Kind())
	for i, v := range d.Values {
		fmt.Fprintf(w, "  [%d] %s\n", i, v)
	}
	fmt.Fprintf(w, "Searchable: %t\n", d.IsSearchable)
	return nil
}
