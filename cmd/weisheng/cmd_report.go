package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tangxiangong/weisheng/internal/config"
	"github.com/tangxiangong/weisheng/internal/notify"
	"github.com/tangxiangong/weisheng/internal/repository"
	"github.com/tangxiangong/weisheng/internal/service"
)

type reportOptions struct {
	input    string
	output   string
	reporter string
	date     string
	time     string
	rankMode string
	dryRun   bool
}

func newReportCmd(a *app) *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "根据检查表生成宿舍卫生验评通报（xlsx）",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("reporter") {
				a.cfg.Report.Reporter = opts.reporter
			}
			if flags.Changed("date") {
				a.cfg.Report.Date = opts.date
			}
			if flags.Changed("time") {
				a.cfg.Report.Time = opts.time
			}
			if flags.Changed("rank-mode") {
				a.cfg.Report.RankMode = opts.rankMode
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return runReport(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "检查表 CSV (required)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "输出 xlsx (default: input with .xlsx)")
	cmd.Flags().StringVarP(&opts.reporter, "reporter", "r", "", "汇报人")
	cmd.Flags().StringVarP(&opts.date, "date", "d", "", "日期，如 12月3日")
	cmd.Flags().StringVarP(&opts.time, "time", "t", "", "验评时间")
	cmd.Flags().StringVar(&opts.rankMode, "rank-mode", "", "排名方式: dense, competition")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "只在终端预览排版，不写文件")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runReport(cmd *cobra.Command, a *app, opts reportOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		archive   service.RunArchive
		notifiers []notify.Notifier
	)
	if !opts.dryRun {
		if db, repo := openArchive(ctx, &a.cfg.Database, a.logger); db != nil {
			defer db.Close()
			archive = repo
		}

		if a.cfg.Redis.Enabled {
			client := redis.NewClient(&redis.Options{
				Addr:     a.cfg.Redis.Addr,
				Password: a.cfg.Redis.Password,
				DB:       a.cfg.Redis.DB,
			})
			defer client.Close()
			notifiers = append(notifiers, notify.NewStreamNotifier(client, a.cfg.Redis.Stream, a.logger))
		}
		if a.cfg.Webhook.Enabled {
			notifiers = append(notifiers, notify.NewWebhookNotifier(a.cfg.Webhook.URL, a.cfg.Webhook.Timeout, a.logger))
		}
	}

	svc := service.NewReportService(a.cfg, archive, notifiers, a.logger)
	summary, err := svc.Generate(ctx, service.Request{
		Input:   opts.input,
		Output:  opts.output,
		DryRun:  opts.dryRun,
		Preview: cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	if !opts.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), summary.Output)
	}
	return nil
}

// openArchive connects the run archive when enabled. An unreachable database is
// logged and the report is still produced without archiving.
func openArchive(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*sql.DB, *repository.ReportRunRepository) {
	if !cfg.Enabled {
		return nil, nil
	}
	db, err := repository.NewPostgresDB(cfg)
	if err != nil {
		logger.Warn("Report archive unavailable", zap.Error(err))
		return nil, nil
	}
	repo := repository.NewReportRunRepository(db, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Warn("Report archive schema unavailable", zap.Error(err))
		db.Close()
		return nil, nil
	}
	return db, repo
}
