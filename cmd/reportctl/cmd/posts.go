package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPostsCmd() *cobra.Command {
	posts := &cobra.Command{
		Use:   "posts",
		Short: "Inspect and upvote posts.",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all posts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			posts, err := client.ListPosts(ctx)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(posts)
			}
			if len(posts) == 0 {
				console.Warn("No posts yet.")
				return nil
			}

			tw := tabwriter.NewWriter(console.Out(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, console.Bold.Sprint("ID\tSCORE\tKIND\tLOCATION\tTITLE"))
			for _, p := range posts {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%.5f,%.5f\t%s\n", p.ID, p.Score, p.Kind, p.Latitude, p.Longitude, p.Title)
			}
			return tw.Flush()
		},
	}

	upvote := &cobra.Command{
		Use:   "upvote <id>",
		Short: "Add one to a post's score.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()

			score, err := client.Upvote(ctx, id)
			if err != nil {
				return err
			}
			console.Success("Post %d upvoted.", id)
			console.Field("score", score)
			return nil
		},
	}

	var output string
	image := &cobra.Command{
		Use:   "image <id>",
		Short: "Download a post's image.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()

			data, err := client.PostImage(ctx, id)
			if err != nil {
				return err
			}

			if output == "" {
				output = fmt.Sprintf("post-%d.jpg", id)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write image: %w", err)
			}
			console.Success("Saved %d bytes to %s.", len(data), console.Bold.Sprint(output))
			return nil
		},
	}
	image.Flags().StringVarP(&output, "output", "o", "", "File to write (default post-<id>.jpg)")

	posts.AddCommand(list, upvote, image)
	return posts
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid post id %q", s)
	}
	return id, nil
}
