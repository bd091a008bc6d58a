package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/klass-lk/postboot"
	"github.com/klass-lk/postboot/internal/service"
)

func newPublishCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <POST_ID>",
		Short: "Publish a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePostID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return a.withService(ctx, func(svc *service.PostService) error {
				post, err := svc.Publish(ctx, id)
				if err != nil {
					return err
				}
				a.printer.Printf("Published post %s\n", post.Title)
				return nil
			})
		},
	}
}

func parsePostID(s string) (int32, error) {
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, postboot.ErrInvalidArgument.Wrap(err, fmt.Sprintf("invalid POST_ID %q: must be a 32-bit integer", s))
	}
	return int32(id), nil
}
