package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baidubce/bce-qianfan-sdk-go/types"
)

// ChatOptions holds options for the chat command.
type ChatOptions struct {
	*GlobalOptions

	Model    string
	Endpoint string
	System   string
	NoStream bool
}

// NewChatCommand creates the interactive chat command.
//
// Usage:
//
//	qianfan chat [--model ERNIE-4.0-8K] [--endpoint my_ep]
func NewChatCommand(globalOpts *GlobalOptions) *cobra.Command {
	opts := &ChatOptions{GlobalOptions: globalOpts}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with a model",
		Long: `Start an interactive chat session. Type a message and press enter;
the answer streams back. Commands inside the session:

  /reset   clear the conversation history
  /exit    quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "model name")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "explicit service endpoint (wins over --model)")
	cmd.Flags().StringVar(&opts.System, "system", "", "system prompt")
	cmd.Flags().BoolVar(&opts.NoStream, "no-stream", false, "wait for the full answer instead of streaming")
	return cmd
}

func runChat(cmd *cobra.Command, opts *ChatOptions) error {
	c, err := opts.BuildClient()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(os.Stdin)
	var history []types.Message

	fmt.Fprintln(out, "进入对话，/exit 退出，/reset 清空上下文")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/exit":
			return nil
		case line == "/reset":
			history = nil
			fmt.Fprintln(out, "上下文已清空")
			continue
		}

		history = append(history, types.Message{Role: types.RoleUser, Content: line})
		req := &types.ChatRequest{Messages: history, System: opts.System}

		answer, err := chatOnce(cmd.Context(), c, opts, req, out)
		if err != nil {
			// 保留用户输入之前的历史，失败的轮次不入栈
			history = history[:len(history)-1]
			fmt.Fprintf(cmd.ErrOrStderr(), "错误: %v\n", err)
			continue
		}
		history = append(history, types.Message{Role: types.RoleAssistant, Content: answer})
	}
}

func chatOnce(ctx context.Context, c chatClient, opts *ChatOptions, req *types.ChatRequest, out io.Writer) (string, error) {
	if opts.NoStream {
		resp, err := c.ChatCompletion(ctx, opts.Model, opts.Endpoint, req)
		if err != nil {
			return "", err
		}
		fmt.Fprintln(out, resp.Result)
		return resp.Result, nil
	}

	ch, err := c.ChatCompletionStream(ctx, opts.Model, opts.Endpoint, req)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			return "", chunk.Err
		}
		sb.WriteString(chunk.Response.Result)
		fmt.Fprint(out, chunk.Response.Result)
	}
	fmt.Fprintln(out)
	return sb.String(), nil
}

// chatClient 抽出命令用到的客户端方法，便于测试替换。
type chatClient interface {
	ChatCompletion(ctx context.Context, model, endpoint string, req *types.ChatRequest) (*types.ModelResponse, error)
	ChatCompletionStream(ctx context.Context, model, endpoint string, req *types.ChatRequest) (<-chan types.StreamChunk, error)
}
