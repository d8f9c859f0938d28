package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tangxiangong/weisheng/internal/loader"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init <name>",
		Short: "创建空白检查表（年级,班级,公寓,宿舍,原因）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := loader.CreateViolationTemplate(args[0])
			if err != nil {
				return err
			}
			a.logger.Info("Violation template created", zap.String("path", path))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
