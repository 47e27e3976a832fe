package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baidubce/bce-qianfan-sdk-go/batch"
	"github.com/baidubce/bce-qianfan-sdk-go/dataset"
	"github.com/baidubce/bce-qianfan-sdk-go/tokenizer"
)

// DatasetOptions holds options shared by dataset subcommands.
type DatasetOptions struct {
	*GlobalOptions
}

// NewDatasetCommand creates the dataset command group:
// save / upload / download / view / predict.
func NewDatasetCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &DatasetOptions{GlobalOptions: globalOpts}

	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Local dataset table and console dataset operations",
	}
	cmd.AddCommand(
		newDatasetSaveCommand(opts),
		newDatasetUploadCommand(opts),
		newDatasetDownloadCommand(opts),
		newDatasetViewCommand(opts),
		newDatasetPredictCommand(opts),
	)
	return cmd
}

// save 在本地格式之间转换（.jsonl ↔ .csv）。
func newDatasetSaveCommand(opts *DatasetOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save SRC DST",
		Short: "Convert a local dataset file between .jsonl and .csv",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tb, err := dataset.LoadFile(args[0])
			if err != nil {
				return err
			}
			if err := tb.SaveFile(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已保存 %d 行到 %s\n", tb.Len(), args[1])
			return nil
		},
	}
}

func newDatasetUploadCommand(opts *DatasetOptions) *cobra.Command {
	var (
		name       string
		importFrom string
		annotated  bool
	)
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Create a console dataset and import entities into it",
		Long: `Create a dataset on the console and start importing entities from a
BOS path or shared link, then wait for the import to finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.BuildClient()
			if err != nil {
				return err
			}
			svc := dataset.NewService(c)
			ctx := cmd.Context()

			info, err := svc.Create(ctx, &dataset.CreateRequest{Name: name})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "数据集已创建: %s\n", info.ID)

			if err := svc.Import(ctx, info.ID, importFrom, annotated); err != nil {
				return err
			}
			if err := svc.WaitImport(ctx, info.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "导入完成")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "dataset name")
	cmd.Flags().StringVar(&importFrom, "from", "", "BOS path or shared link to import from")
	cmd.Flags().BoolVar(&annotated, "annotated", true, "entities carry annotations")
	cobra.CheckErr(cmd.MarkFlagRequired("name"))
	cobra.CheckErr(cmd.MarkFlagRequired("from"))
	return cmd
}

func newDatasetDownloadCommand(opts *DatasetOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download DATASET_ID",
		Short: "Export a console dataset to its storage",
		Long: `Start a console-side export of the dataset and wait until it finishes.
The exported file lands in the dataset's BOS storage.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.BuildClient()
			if err != nil {
				return err
			}
			svc := dataset.NewService(c)
			ctx := cmd.Context()

			if err := svc.Export(ctx, args[0]); err != nil {
				return err
			}
			if err := svc.WaitExport(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "导出完成")
			return nil
		},
	}
	return cmd
}

func newDatasetViewCommand(opts *DatasetOptions) *cobra.Command {
	var (
		rows     int
		statsCol string
		statsTok string
	)
	cmd := &cobra.Command{
		Use:   "view FILE",
		Short: "Print rows and token statistics of a local dataset file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tb, err := dataset.LoadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d 行, 列: %v\n", tb.Len(), tb.Columns())

			n := rows
			if n > tb.Len() {
				n = tb.Len()
			}
			for i := 0; i < n; i++ {
				row, _ := tb.Row(i)
				fmt.Fprintf(out, "%d\t%v\n", i, row)
			}

			if statsCol != "" {
				stats, err := tb.TokenStats(tokenizer.ForModel(statsTok), statsCol)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "token 统计(%s): total=%d mean=%.1f min=%d max=%d\n",
					statsCol, stats.Total, stats.Mean, stats.Min, stats.Max)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 5, "number of rows to print")
	cmd.Flags().StringVar(&statsCol, "stats", "", "column to compute token statistics for")
	cmd.Flags().StringVar(&statsTok, "stats-model", "ERNIE-4.0-8K", "model whose tokenizer to use for stats")
	return cmd
}

func newDatasetPredictCommand(opts *DatasetOptions) *cobra.Command {
	var (
		model    string
		endpoint string
		inCol    string
		outCol   string
		workers  int
		output   string
	)
	cmd := &cobra.Command{
		Use:   "predict FILE",
		Short: "Run batch inference over a local dataset file",
		Long: `Read prompts from a column of the dataset file, run them through the
model with bounded concurrency, and write the table with the answer
column appended.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tb, err := dataset.LoadFile(args[0])
			if err != nil {
				return err
			}
			c, err := opts.BuildClient()
			if err != nil {
				return err
			}

			runner := batch.NewRunner(c, batch.WithWorkers(workers))
			results, err := dataset.Predict(cmd.Context(), tb, runner, model, endpoint, inCol, outCol)
			if err != nil {
				return err
			}

			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
				}
			}

			dst := output
			if dst == "" {
				dst = args[0]
			}
			if err := tb.SaveFile(dst); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "完成 %d 条（失败 %d），结果已写入 %s\n",
				len(results), failed, dst)
			return nil
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "explicit service endpoint")
	cmd.Flags().StringVar(&inCol, "input-column", "prompt", "column holding the prompts")
	cmd.Flags().StringVar(&outCol, "output-column", "response", "column to write answers into")
	cmd.Flags().IntVar(&workers, "workers", batch.DefaultWorkers, "concurrent requests")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	return cmd
}
