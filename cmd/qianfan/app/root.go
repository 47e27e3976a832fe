// Package app contains the qianfan CLI commands. Commands are organized
// hierarchically with cobra: a root command with chat / completion /
// embedding / dataset / trainer subcommands. Output is plain text.
package app

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/baidubce/bce-qianfan-sdk-go/client"
	"github.com/baidubce/bce-qianfan-sdk-go/config"
)

const (
	cliName        = "qianfan"
	cliDescription = "qianfan - CLI for the Qianfan LLM platform"
)

// GlobalOptions holds options common to all commands.
type GlobalOptions struct {
	// ConfigPath is an optional YAML config file; env vars still win.
	ConfigPath string

	// Verbose enables debug logging.
	Verbose bool
}

// BuildClient loads the configuration chain and creates the SDK client.
func (o *GlobalOptions) BuildClient() (*client.Client, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := cfg.Log.BuildLogger()
	if err != nil {
		logger = zap.NewNop()
	}
	return client.New(cfg, client.WithLogger(logger))
}

// NewQianfanCommand creates the root command with all subcommands.
func NewQianfanCommand() *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:   cliName,
		Short: cliDescription,
		Long: `qianfan is a command-line client for the Qianfan hosted LLM platform.

Credentials come from QIANFAN_ACCESS_KEY and QIANFAN_SECRET_KEY (or a
YAML config file passed with --config).`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "",
		"path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"verbose output")

	cmd.AddCommand(
		NewChatCommand(opts),
		NewCompletionCommand(opts),
		NewEmbeddingCommand(opts),
		NewDatasetCommand(opts),
		NewTrainerCommand(opts),
		NewVersionCommand(),
	)
	return cmd
}
