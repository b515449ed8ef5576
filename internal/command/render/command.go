// Package render 提供渲染命令：读取模板与数据，输出渲染结果。
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/lwmacct/251207-go-pkg-version/pkg/version"
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/261016-go-bin-tplr/internal/apperr"
	"github.com/lwmacct/261016-go-bin-tplr/internal/command"
	"github.com/lwmacct/261016-go-bin-tplr/internal/config"
	"github.com/lwmacct/261016-go-bin-tplr/internal/logging"
	"github.com/lwmacct/261016-go-bin-tplr/internal/output"
	"github.com/lwmacct/261016-go-bin-tplr/pkg/datasrc"
	"github.com/lwmacct/261016-go-bin-tplr/pkg/tmpl"
)

const description = `Simple templating tool.

TEMPLATE uses Jinja2 syntax, e.g. "Hello {{ name }}".
DATA is a YAML, JSON, TOML or dotenv file chosen by extension;
without DATA the process environment is used, e.g. "{{ HOME }}".
Flags may appear before or after the positional arguments.`

// NewCommand 创建渲染命令，每次调用返回独立实例。
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:            version.GetAppRawName(),
		Usage:           "渲染模板文件",
		Description:     description,
		ArgsUsage:       "TEMPLATE [DATA]",
		Writer:          os.Stdout,
		ErrWriter:       os.Stderr,
		HideHelpCommand: true,
		Commands:        []*cli.Command{version.Command},
		Action:          action,
		OnUsageError:    onUsageError,
		// 退出码由 main 统一决定
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "outfile",
				Value: command.Defaults.Outfile,
				Usage: "write rendered output to `PATH` (default: stdout)",
			},
			&cli.BoolFlag{
				Name:  "lazy",
				Value: command.Defaults.Lazy,
				Usage: "render undefined values as empty instead of failing",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Value: command.Defaults.Debug,
				Usage: "enable debug log level",
			},
			&cli.StringFlag{
				Name:  "log_cfg",
				Value: command.Defaults.LogCfg,
				Usage: "optional logging cfg in ini format",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "tool configuration file (YAML/JSON)",
			},
		},
	}
}

func onUsageError(_ context.Context, cmd *cli.Command, err error, _ bool) error {
	fmt.Fprintf(cmd.Root().ErrWriter, "Incorrect Usage: %v\n", err)
	return apperr.Usage(err)
}

func action(ctx context.Context, cmd *cli.Command) error {
	root := cmd.Root()

	cfg, err := config.Load(cmd, cmd.String("config"))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUsage {
			fmt.Fprintf(root.ErrWriter, "Incorrect Usage: %v\n", err)
			return err
		}
		return abort(ctx, logging.Fallback(root.ErrWriter), err)
	}

	logger, closeLog, err := logging.Init(cfg, root.Writer, root.ErrWriter)
	if err != nil {
		return abort(ctx, logging.Fallback(root.ErrWriter), apperr.Wrap("init logging", err))
	}
	defer func() { _ = closeLog() }()

	if err := run(cfg, root, logger); err != nil {
		return abort(ctx, logger, err)
	}

	return nil
}

// abort 以 CRITICAL 级别记录运行时错误及其调用栈。
func abort(ctx context.Context, logger *slog.Logger, err error) error {
	logger.Log(ctx, logging.LevelCritical, fmt.Sprintf("Abort, rc=%d", apperr.ExitRuntime), "error", err)
	return err
}

func run(cfg *config.Config, root *cli.Command, logger *slog.Logger) error {
	logger.Debug("Got setup", "template", cfg.Template, "data", cfg.Data, "outfile", cfg.Outfile, "lazy", cfg.Lazy)

	text, err := tmpl.LoadFile(cfg.Template)
	if err != nil {
		return apperr.New(apperr.KindTemplate, "load template", cfg.Template, err)
	}
	logger.Debug("Got template", "size", humanize.Bytes(uint64(len(text))))

	data, err := datasrc.Load(cfg.Data)
	if err != nil {
		return apperr.New(apperr.KindDataSource, "load data", cfg.Data, err)
	}
	logger.Debug("Got data", "format", datasrc.FormatFor(cfg.Data), "keys", len(data))

	rendered, err := tmpl.Render(text, data, tmpl.WithLazy(cfg.Lazy), tmpl.WithName(cfg.Template))
	if err != nil {
		return apperr.New(apperr.KindTemplate, "render", cfg.Template, err)
	}
	logger.Debug("Rendered template", "size", humanize.Bytes(uint64(len(rendered))))

	if err := output.Write(cfg.Outfile, rendered, root.Writer); err != nil {
		return apperr.New(apperr.KindOutput, "write output", cfg.Outfile, err)
	}

	return nil
}
