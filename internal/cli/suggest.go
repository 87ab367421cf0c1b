package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/atlas/internal/catalog"
	"github.com/mesh-intelligence/atlas/internal/sqlite"
)

func newSuggestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Record and review edit suggestions for resources",
	}

	var submitter string
	add := &cobra.Command{
		Use:   "add <resource-id> <text>",
		Short: "Record a suggestion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withCatalog(func(_ *sqlite.Backend, svc *catalog.Service) error {
				sg, err := svc.Suggest(cmd.Context(), id, args[1], submitter)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, sg)
				}
				fmt.Fprintf(out(cmd), "Added suggestion %s\n", sg.SuggestionID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&submitter, "submitter", "", "contact of the person suggesting the change")

	list := &cobra.Command{
		Use:   "list <resource-id>",
		Short: "List suggestions for a resource, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withCatalog(func(_ *sqlite.Backend, svc *catalog.Service) error {
				suggestions, err := svc.Suggestions(cmd.Context(), id)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd, suggestions)
				}
				rows := make([][]string, 0, len(suggestions))
				for _, sg := range suggestions {
					rows = append(rows, []string{sg.SuggestionID, sg.CreatedAt.Format(time.RFC3339), sg.Submitter, sg.Text})
				}
				return printTable(out(cmd), []string{"ID", "CREATED", "SUBMITTER", "TEXT"}, rows)
			})
		},
	}

	dismiss := &cobra.Command{
		Use:   "dismiss <suggestion-id>",
		Short: "Delete a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCatalog(func(_ *sqlite.Backend, svc *catalog.Service) error {
				if err := svc.DismissSuggestion(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out(cmd), "Dismissed suggestion %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, dismiss)
	return cmd
}
