package cli

import (
	"bufio"
	"errors"
	"io"
	"runtime"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/klass-lk/postboot"
	"github.com/klass-lk/postboot/internal/service"
)

func newWriteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "write",
		Short: "Create a new post",
		Long: `Create a draft post.

The first line read from standard input is the title. Everything after it,
up to end of input, is the body.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withService(ctx, func(svc *service.PostService) error {
				in := bufio.NewReader(cmd.InOrStdin())

				a.printer.Println("What would you like your title to be?")
				title, err := in.ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return postboot.ErrReadFailed.Wrap(err, "title", err.Error())
				}
				title = strings.TrimRightFunc(title, unicode.IsSpace)
				if title == "" {
					a.printer.Warning("saving a draft with an empty title")
				}

				a.printer.Printf("\nOk! Let's write %s (Press %s when finished)\n\n", title, eofKey())
				body, err := io.ReadAll(in)
				if err != nil {
					return postboot.ErrReadFailed.Wrap(err, "body", err.Error())
				}

				post, err := svc.WriteDraft(ctx, title, string(body))
				if err != nil {
					return err
				}
				a.printer.Printf("\nSaved draft %s with id %d\n", title, post.ID)
				return nil
			})
		},
	}
}

// eofKey names the key combination that ends terminal input.
func eofKey() string {
	if runtime.GOOS == "windows" {
		return "CTRL+Z"
	}
	return "CTRL+D"
}
