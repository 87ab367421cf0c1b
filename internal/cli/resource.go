package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/atlas/internal/catalog"
	"github.com/mesh-intelligence/atlas/internal/projection"
	"github.com/mesh-intelligence/atlas/internal/sqlite"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

func newResourceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resource",
		Aliases: []string{"resources"},
		Short:   "Manage resources",
	}
	cmd.AddCommand(
		newResourceListCmd(a),
		newResourceShowCmd(a),
		newResourceAssociationsCmd(a),
		newResourceFormCmd(a),
		newResourceSaveCmd(a),
		newResourceDeleteCmd(a),
	)
	return cmd
}

func newResourceListCmd(a *app) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCatalog(func(_ *sqlite.Backend, svc *catalog.Service) error {
				var (
					records []projection.Record
					err     error
				)
				if query != "" {
					records, err = svc.Search(cmd.Context(), query)
				} else {
					records, err = svc.List(cmd.Context())
				}
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, records)
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						fmt.Sprint(rec[projection.KeyID]),
						fmt.Sprint(rec[projection.KeyName]),
						fmt.Sprint(rec[projection.KeyAddress]),
						formatFloat(rec[projection.KeyLatitude].(float64)),
						formatFloat(rec[projection.KeyLongitude].(float64)),
					})
				}
				return printTable(out(cmd), []string{"ID", "NAME", "ADDRESS", "LATITUDE", "LONGITUDE"}, rows)
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "only resources whose name contains this text")
	return cmd
}

func newResourceShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the full projection of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withCatalog(func(_ *sqlite.Backend, svc *catalog.Service) error {
				rec, err := svc.Detail(cmd.Context(), id)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, rec)
				}
				if len(rec) == 0 {
					return fmt.Errorf("resource %d: %w", id, types.ErrNotFound)
				}
				printRecord(out(cmd), rec)
				return nil
			})
		},
	}
}

func newResourceAssociationsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "associations <id>",
		Short: "Show the attribute values of a resource by descriptor name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withCatalog(func(_ *sqlite.Backend, svc *catalog.Service) error {
				attrs, err := svc.Associations(cmd.Context(), id)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, attrs)
				}
				printRecord(out(cmd), attrs)
				return nil
			})
		},
	}
}

func newResourceFormCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "form [id]",
		Short: "Show the editable fields of a resource with their current values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
			}
			return a.withCatalog(func(_ *sqlite.Backend, svc *catalog.Service) error {
				form, err := svc.EditForm(cmd.Context(), id)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, form)
				}
				rows := make([][]string, 0, len(form.Fields))
				for _, f := range form.Fields {
					choices := make([]string, len(f.Choices))
					for i, c := range f.Choices {
						choices[i] = fmt.Sprintf("%d=%s", i, c)
					}
					rows = append(rows, []string{strconv.FormatInt(f.DescriptorID, 10), f.Label, f.Kind, f.Value, strings.Join(choices, " ")})
				}
				return printTable(out(cmd), []string{"ID", "FIELD", "KIND", "VALUE", "CHOICES"}, rows)
			})
		},
	}
}

func newResourceSaveCmd(a *app) *cobra.Command {
	var (
		req  catalog.SaveRequest
		sets []string
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a resource and its attribute values",
		Long: "Create a resource, or update the one named by --id. Attribute values are\n" +
			"given as --set <descriptor-id>=<value>; option descriptors take the option\n" +
			"index. Descriptors not named keep their current values.\n\n" +
			"Example:\n  atlas resource save --name \"Food Bank A\" --lat 47.6 --long -122.3 --set 2=1",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseSets(sets)
			if err != nil {
				return err
			}
			req.Values = values
			return a.withCatalog(func(b *sqlite.Backend, svc *catalog.Service) error {
				ctx := cmd.Context()
				if req.ResourceID != 0 {
					existing, err := b.Resources().GetByID(ctx, req.ResourceID)
					if err != nil {
						return err
					}
					overlayUnchanged(cmd, &req, existing.Name, existing.Address, existing.Latitude, existing.Longitude)
				}
				id, err := svc.Save(ctx, req)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, map[string]int64{"id": id})
				}
				fmt.Fprintf(out(cmd), "Saved resource %d\n", id)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&req.ResourceID, "id", 0, "resource to update (omit to create)")
	cmd.Flags().StringVar(&req.Name, "name", "", "resource name")
	cmd.Flags().StringVar(&req.Address, "address", "", "street address")
	cmd.Flags().Float64Var(&req.Latitude, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&req.Longitude, "long", 0, "longitude in degrees")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "attribute value as <descriptor-id>=<value> (repeatable)")
	return cmd
}

// overlayUnchanged fills the fixed fields the user did not pass from the
// stored resource.
func overlayUnchanged(cmd *cobra.Command, req *catalog.SaveRequest, name, address string, lat, long float64) {
	f := cmd.Flags()
	if !f.Changed("name") {
		req.Name = name
	}
	if !f.Changed("address") {
		req.Address = address
	}
	if !f.Changed("lat") {
		req.Latitude = lat
	}
	if !f.Changed("long") {
		req.Longitude = long
	}
}

// parseSets turns "id=value" arguments into a submission map.
func parseSets(sets []string) (map[int64]string, error) {
	values := make(map[int64]string, len(sets))
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q (expected <descriptor-id>=<value>): %w", s, errUsage)
		}
		id, err := parseID(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", s, err)
		}
		values[id] = value
	}
	return values, nil
}

func newResourceDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a resource with its attribute values and suggestions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withCatalog(func(_ *sqlite.Backend, svc *catalog.Service) error {
				if err := svc.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "Deleted resource %d\n", id)
				return nil
			})
		},
	}
}
