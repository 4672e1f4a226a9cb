package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackmichael/spotreport/internal/domain"
)

func newSubmitCmd() *cobra.Command {
	var post domain.NewPost

	submit := &cobra.Command{
		Use:   "submit <image>",
		Short: "Submit a photo report.",
		Long: `Submit a photo report. The server asks its classifier whether the image
shows the given kind before storing it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			post.Image = data

			ctx, cancel := requestContext(cmd)
			defer cancel()

			console.Info("Submitting %s as %s...", args[0], console.Bold.Sprint(post.Kind))
			id, err := client.SubmitPost(ctx, &post)
			if err != nil {
				return err
			}
			console.Success("Post created.")
			console.Field("id", id)
			return nil
		},
	}

	f := submit.Flags()
	f.StringVarP(&post.Kind, "kind", "k", "", "Kind of report (required)")
	f.Float64Var(&post.Latitude, "lat", 0, "Latitude (required)")
	f.Float64Var(&post.Longitude, "lon", 0, "Longitude (required)")
	f.StringVarP(&post.Title, "title", "t", "", "Short title")
	f.StringVar(&post.Text, "text", "", "Description")
	f.StringVarP(&post.Address, "address", "a", "", "Street address")
	_ = submit.MarkFlagRequired("kind")
	_ = submit.MarkFlagRequired("lat")
	_ = submit.MarkFlagRequired("lon")

	return submit
}

func newAnnotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "annotate <image>",
		Short: "Ask the server to suggest a title, text and kind for a photo.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()

			ann, err := client.Annotate(ctx, data)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(ann)
			}
			if ann.Title == "" && ann.Text == "" {
				console.Warn("The classifier gave no suggestion; showing the default kind.")
			}
			console.Field("title", ann.Title)
			console.Field("text", ann.Text)
			console.Field("kind", ann.Kind)
			return nil
		},
	}
}
