package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/pahedl/internal/output"
	"github.com/tanq16/pahedl/internal/resolver"
	"github.com/tanq16/pahedl/internal/utils"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [MIRROR_PAGE_URL]",
		Short: "Resolve a mirror page into its direct media URL without downloading",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			utils.InitLogger(debug)
			res, err := resolver.NewResolver(resolver.Config{
				CookieHeader:     cookieHeader,
				HTTPClientConfig: buildHTTPClientConfig(),
			})
			if err != nil {
				output.PrintError(fmt.Sprintf("Failed to initialize resolver: %v", err))
				os.Exit(1)
			}
			output.PrintPending(fmt.Sprintf("Resolving %s", args[0]))
			link, err := res.Resolve(context.Background(), args[0])
			if err != nil {
				output.PrintError(fmt.Sprintf("Resolution failed: %v", err))
				os.Exit(1)
			}
			output.PrintDetail(fmt.Sprintf("Referer:     %s", link.Referer))
			output.PrintSuccess(fmt.Sprintf("Direct link: %s", link.DirectLink))
		},
	}
}
