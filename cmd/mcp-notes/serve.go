package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brbranch/mcp-notes/internal/bootstrap"
	"github.com/brbranch/mcp-notes/internal/model"
	"github.com/brbranch/mcp-notes/internal/transport/http"
	"github.com/brbranch/mcp-notes/internal/transport/stdio"
)

// Options はserveのCLI引数オプション
type Options struct {
	Transport  string
	Host       string
	Port       int
	ConfigPath string
}

func newServeCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio or HTTP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeCmd(cmd, opts)
		},
	}
	bindServeFlags(cmd, opts)
	return cmd
}

func bindServeFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Transport, "transport", "t", defaultTransport, "Transport type: stdio, http")
	cmd.Flags().StringVar(&opts.Host, "host", "127.0.0.1", "HTTP host")
	cmd.Flags().IntVarP(&opts.Port, "port", "p", 8765, "HTTP port")
}

func runServeCmd(cmd *cobra.Command, opts *Options) error {
	ctx, cancel := setupSignalHandler(cmd.Context())
	defer cancel()

	services, cleanup, err := bootstrap.Initialize(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	defer cleanup()

	// 明示指定されなかったフラグは設定ファイルの値を使う
	resolved := mergeOptions(opts, services.Config, func(name string) bool {
		return cmd.Flags().Changed(name)
	})
	if err := validateOptions(resolved); err != nil {
		return err
	}

	return runServe(ctx, services, resolved)
}

// mergeOptions はフラグと設定ファイルを合成する（フラグ優先）
func mergeOptions(opts *Options, cfg *model.Config, changed func(string) bool) *Options {
	merged := *opts
	if !changed("transport") && cfg.Transport.Default != "" {
		merged.Transport = cfg.Transport.Default
	}
	if !changed("host") && cfg.Transport.Host != "" {
		merged.Host = cfg.Transport.Host
	}
	if !changed("port") && cfg.Transport.Port != 0 {
		merged.Port = cfg.Transport.Port
	}
	return &merged
}

// validateOptions はserveオプションを検証する
func validateOptions(opts *Options) error {
	if opts.Transport != model.TransportStdio && opts.Transport != model.TransportHTTP {
		return fmt.Errorf("invalid transport: %s (must be stdio or http)", opts.Transport)
	}
	if opts.Port < 1 || opts.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", opts.Port)
	}
	return nil
}

// runServe はtransportを起動し、contextがキャンセルされるまでブロックする
func runServe(ctx context.Context, services *bootstrap.Services, opts *Options) error {
	logger := services.Logger

	switch opts.Transport {
	case model.TransportStdio:
		logger.Info("serving", zap.String("transport", opts.Transport))
		server := stdio.New(services.Handler, stdio.WithLogger(logger))
		return server.Run(ctx)
	case model.TransportHTTP:
		httpConfig := http.Config{
			Addr:        net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
			CORSOrigins: services.Config.Transport.CORSOrigins,
			Metrics:     services.Metrics.Handler(),
			Logger:      logger,
		}
		logger.Info("serving", zap.String("transport", opts.Transport), zap.String("addr", httpConfig.Addr))
		server := http.New(services.Handler, httpConfig)
		return server.Run(ctx)
	default:
		return fmt.Errorf("unknown transport: %s", opts.Transport)
	}
}
