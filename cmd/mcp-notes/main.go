package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/brbranch/mcp-notes/internal/jsonrpc"
)

// ビルド時変数（-ldflags で変更可能）
var (
	defaultTransport = "stdio"
	version          = "dev"
)

// envFile はカレントディレクトリから読み込む環境変数ファイル
const envFile = ".env"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd はサブコマンドを登録したルートコマンドを返す
// 引数なしの場合はserveと同じ動作
func newRootCmd() *cobra.Command {
	serveOpts := &Options{}

	root := &cobra.Command{
		Use:           "mcp-notes",
		Short:         "mcp-notes - minimal MCP server for plain-text notes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeCmd(cmd, serveOpts)
		},
	}
	root.PersistentFlags().StringVarP(&serveOpts.ConfigPath, "config", "c", "", "Config file path")
	bindServeFlags(root, serveOpts)

	root.AddCommand(
		newServeCmd(serveOpts),
		newToolsCmd(serveOpts),
		newCallCmd(serveOpts),
		newVersionCmd(),
	)
	return root
}

// loadEnvFile は .env があれば読み込む（既存の環境変数は上書きしない）
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcp-notes version %s\n", version)
		},
	}
}

// setupSignalHandler はSIGINT/SIGTERMを受けてcontextをキャンセルする
func setupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func init() {
	if version != "dev" {
		jsonrpc.ServerVersion = version
	}
}
