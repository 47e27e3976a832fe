package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baidubce/bce-qianfan-sdk-go/client"
	"github.com/baidubce/bce-qianfan-sdk-go/dataset"
	"github.com/baidubce/bce-qianfan-sdk-go/trainer"
)

// TrainerOptions holds options shared by trainer subcommands.
type TrainerOptions struct {
	*GlobalOptions

	DatasetID string
	TaskName  string
	ModelName string
	Service   string
	URISuffix string
	Evaluate  bool
	Resume    string
}

// NewTrainerCommand creates the trainer command group:
// finetune / postpretrain.
func NewTrainerCommand(globalOpts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trainer",
		Short: "Run training pipelines on the console",
	}
	cmd.AddCommand(
		newTrainerRunCommand(globalOpts, "finetune", "SFT",
			"Run a fine-tune pipeline: load data, train, publish, deploy"),
		newTrainerRunCommand(globalOpts, "postpretrain", "PostPretrain",
			"Run a post-pretrain pipeline: load data, train, publish"),
	)
	return cmd
}

func newTrainerRunCommand(globalOpts *GlobalOptions, use, trainMode, short string) *cobra.Command {
	opts := &TrainerOptions{GlobalOptions: globalOpts}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.BuildClient()
			if err != nil {
				return err
			}
			return runTrainerPipeline(cmd, c, opts, trainMode)
		},
	}

	cmd.Flags().StringVar(&opts.DatasetID, "dataset", "", "console dataset id")
	cmd.Flags().StringVar(&opts.TaskName, "task", "", "train task name")
	cmd.Flags().StringVar(&opts.ModelName, "model-name", "", "name to publish the model under")
	cmd.Flags().StringVar(&opts.Service, "service", "", "deploy a service with this name (finetune only)")
	cmd.Flags().StringVar(&opts.URISuffix, "uri", "", "service URI suffix")
	cmd.Flags().BoolVar(&opts.Evaluate, "evaluate", false, "evaluate the published model on the dataset")
	cmd.Flags().StringVar(&opts.Resume, "resume", "", "resume a previous run by its run id")
	return cmd
}

func runTrainerPipeline(cmd *cobra.Command, c *client.Client, opts *TrainerOptions, trainMode string) error {
	svc := dataset.NewService(c)

	actions := []trainer.Action{
		&trainer.LoadDatasetAction{Service: svc, DatasetID: opts.DatasetID},
		&trainer.TrainAction{
			Client:   c,
			TaskName: opts.TaskName,
			Params:   map[string]any{"trainMode": trainMode},
		},
		&trainer.PublishAction{Client: c, ModelName: opts.ModelName},
	}
	if opts.Service != "" {
		actions = append(actions, &trainer.DeployAction{
			Client:      c,
			ServiceName: opts.Service,
			URISuffix:   opts.URISuffix,
		})
	}
	if opts.Evaluate {
		actions = append(actions, &trainer.EvaluateAction{
			Client:        c,
			EvalDatasetID: opts.DatasetID,
		})
	}

	var (
		p   *trainer.Pipeline
		err error
	)
	if opts.Resume != "" {
		p, err = trainer.Resume(trainer.DefaultRunDir(), opts.Resume, actions)
		if err != nil {
			return err
		}
	} else {
		p = trainer.NewPipeline(actions)
	}

	out := cmd.OutOrStdout()
	p.OnEvent(func(ev trainer.Event) {
		switch ev.Type {
		case trainer.EventRunning:
			fmt.Fprintf(out, "[%s] 开始\n", ev.Action)
		case trainer.EventDone:
			fmt.Fprintf(out, "[%s] 完成\n", ev.Action)
		case trainer.EventError:
			fmt.Fprintf(out, "[%s] 失败: %v\n", ev.Action, ev.Err)
		}
	})

	fmt.Fprintf(out, "运行 ID: %s（--resume %s 可恢复）\n", p.RunID(), p.RunID())
	return p.Run(cmd.Context())
}
