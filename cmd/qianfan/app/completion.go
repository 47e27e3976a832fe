package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// CompletionOptions holds options for the completion command.
type CompletionOptions struct {
	*GlobalOptions

	Model    string
	Endpoint string
}

// NewCompletionCommand creates the one-shot completion command.
//
// Usage:
//
//	qianfan completion "续写这段话" [--model ...]
//	echo "prompt" | qianfan completion -
func NewCompletionCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &CompletionOptions{GlobalOptions: globalOpts}

	cmd := &cobra.Command{
		Use:   "completion PROMPT",
		Short: "One-shot prompt completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := args[0]
			if prompt == "-" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				prompt = strings.TrimSpace(string(data))
			}

			c, err := opts.BuildClient()
			if err != nil {
				return err
			}
			resp, err := c.Completion(cmd.Context(), opts.Model, opts.Endpoint, &types.CompletionRequest{
				Prompt: prompt,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "model name")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "explicit service endpoint (wins over --model)")
	return cmd
}
