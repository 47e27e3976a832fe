package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// EmbeddingOptions holds options for the embedding command.
type EmbeddingOptions struct {
	*GlobalOptions

	Model    string
	Endpoint string
	Full     bool
}

// NewEmbeddingCommand creates the embedding command.
//
// Usage:
//
//	qianfan embedding "文本一" "文本二"
func NewEmbeddingCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &EmbeddingOptions{GlobalOptions: globalOpts}

	cmd := &cobra.Command{
		Use:   "embedding TEXT...",
		Short: "Compute embedding vectors for texts",
		Args:  cobra.RangeArgs(1, 16),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.BuildClient()
			if err != nil {
				return err
			}
			resp, err := c.Embedding(cmd.Context(), opts.Model, opts.Endpoint, &types.EmbeddingRequest{
				Input: args,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, d := range resp.Data {
				if opts.Full {
					fmt.Fprintf(out, "%d\t%v\n", d.Index, d.Embedding)
					continue
				}
				fmt.Fprintf(out, "%d\tdim=%d\n", d.Index, len(d.Embedding))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "embedding model name")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "explicit service endpoint (wins over --model)")
	cmd.Flags().BoolVar(&opts.Full, "full", false, "print the full vectors instead of dimensions")
	return cmd
}
