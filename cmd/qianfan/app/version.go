package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	qianfan "github.com/baidubce/bce-qianfan-sdk-go"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qianfan %s (%s %s/%s)\n",
				qianfan.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
