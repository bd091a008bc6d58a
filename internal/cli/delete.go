package cli

import (
	"github.com/spf13/cobra"

	"github.com/klass-lk/postboot/internal/service"
)

func newDeleteCmd(a *app) *cobra.Command {
	var like bool

	cmd := &cobra.Command{
		Use:   "delete <POST_TITLE>",
		Short: "Delete a post",
		Long: `Delete every post whose title contains POST_TITLE.

POST_TITLE is matched as plain text. With --like, % and _ keep their SQL
LIKE meaning.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := service.MatchLiteral
			if like {
				mode = service.MatchWildcard
			}

			ctx := cmd.Context()
			return a.withService(ctx, func(svc *service.PostService) error {
				deleted, err := svc.Delete(ctx, args[0], mode)
				if err != nil {
					return err
				}
				a.printer.Printf("Deleted %d posts\n", deleted)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&like, "like", false, "treat % and _ in POST_TITLE as wildcards")
	return cmd
}
