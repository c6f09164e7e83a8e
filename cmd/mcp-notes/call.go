package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/brbranch/mcp-notes/internal/bootstrap"
	"github.com/brbranch/mcp-notes/internal/dispatch"
	"github.com/brbranch/mcp-notes/internal/model"
)

// errToolFailed はツールが isError 結果を返したことを示す
var errToolFailed = errors.New("tool reported an error")

func newToolsCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools the server declares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, cleanup, err := bootstrap.Initialize(cmd.Context(), opts.ConfigPath)
			if err != nil {
				return err
			}
			defer cleanup()

			printTools(cmd.OutOrStdout(), services.Registry.ListTools())
			return nil
		},
	}
}

func newCallCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-args]",
		Short: "Invoke a single tool and print its result",
		Example: `  mcp-notes call list_notes
  mcp-notes call create_note '{"name":"Todo","content":"buy milk"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 2 {
				raw = args[1]
			}
			arguments, err := parseArguments(raw)
			if err != nil {
				return err
			}

			services, cleanup, err := bootstrap.Initialize(cmd.Context(), opts.ConfigPath)
			if err != nil {
				return err
			}
			defer cleanup()

			return runCall(cmd.Context(), services.Engine, args[0], arguments, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// parseArguments はJSONオブジェクト文字列を引数マップにする（空なら空マップ）
func parseArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if args == nil {
		return map[string]any{}, nil
	}
	return args, nil
}

// runCall はツールを1回呼び出し、テキスト結果を出力する
func runCall(ctx context.Context, engine *dispatch.Engine, tool string, args map[string]any, stdout, stderr io.Writer) error {
	result, err := engine.Dispatch(ctx, &dispatch.Request{
		Kind:      dispatch.KindCallTool,
		Name:      tool,
		Arguments: args,
	})
	if err != nil {
		var capErr *model.CapabilityError
		if errors.As(err, &capErr) {
			return fmt.Errorf("%s: %w", capErr.Kind, err)
		}
		return err
	}

	callResult, ok := result.(*model.ToolsCallResult)
	if !ok {
		return fmt.Errorf("unexpected result type %T", result)
	}

	if callResult.IsError {
		red := color.New(color.FgRed)
		for _, item := range callResult.Content {
			red.Fprintln(stderr, item.Text)
		}
		return errToolFailed
	}

	for _, item := range callResult.Content {
		fmt.Fprintln(stdout, item.Text)
	}
	return nil
}

// printTools はツール名と説明を一覧表示する
func printTools(w io.Writer, tools []model.Tool) {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	for _, tool := range tools {
		cyan.Fprint(w, tool.Name)
		if tool.Description != "" {
			gray.Fprintf(w, "  %s", tool.Description)
		}
		fmt.Fprintln(w)
	}
}
