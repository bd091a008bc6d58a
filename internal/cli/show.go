package cli

import (
	"github.com/spf13/cobra"

	"github.com/klass-lk/postboot/internal/service"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show published posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withService(ctx, func(svc *service.PostService) error {
				posts, err := svc.ShowPublished(ctx)
				if err != nil {
					return err
				}

				a.printer.Printf("Displaying %d posts\n", len(posts))
				for _, post := range posts {
					a.printer.Printf("%s\n-----------\n\n%s\n", post.Title, post.Body)
				}
				return nil
			})
		},
	}
}
