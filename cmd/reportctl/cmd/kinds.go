package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newKindsCmd() *cobra.Command {
	kinds := &cobra.Command{
		Use:   "kinds",
		Short: "List, add and delete report kinds.",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered kinds.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			kinds, err := client.ListKinds(ctx)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(kinds)
			}
			if len(kinds) == 0 {
				console.Warn("No kinds registered.")
				return nil
			}

			tw := tabwriter.NewWriter(console.Out(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, console.Bold.Sprint("NAME")+"\t"+console.Bold.Sprint("DESCRIPTION"))
			for _, k := range kinds {
				fmt.Fprintf(tw, "%s\t%s\n", k.Name, k.Description)
			}
			return tw.Flush()
		},
	}

	var description string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a new kind.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			id, err := client.CreateKind(ctx, args[0], description)
			if err != nil {
				return err
			}
			console.Success("Kind %s created.", console.Bold.Sprint(args[0]))
			console.Field("id", id)
			return nil
		},
	}
	add.Flags().StringVarP(&description, "description", "d", "", "What the kind covers")

	del := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a kind that no post uses.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			id, err := client.DeleteKind(ctx, args[0])
			if err != nil {
				return err
			}
			console.Success("Kind %s deleted.", console.Bold.Sprint(args[0]))
			console.Field("id", id)
			return nil
		},
	}

	kinds.AddCommand(list, add, del)
	return kinds
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(console.Out(), string(b))
	return err
}
