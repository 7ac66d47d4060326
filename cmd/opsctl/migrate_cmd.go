package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pharmacy-ops/backend/pkg/database"
)

func newMigrateCmd(env *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "执行全部未应用的迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.open(); err != nil {
				return err
			}
			defer env.close()
			sqlDB, err := env.db.DB()
			if err != nil {
				return err
			}
			return database.RunMigrations(sqlDB, env.logger)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "回滚迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps 必须大于 0")
			}
			if err := env.open(); err != nil {
				return err
			}
			defer env.close()
			sqlDB, err := env.db.DB()
			if err != nil {
				return err
			}
			return database.RollbackMigrations(sqlDB, steps, env.logger)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "回滚步数")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "查看当前迁移版本",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.open(); err != nil {
				return err
			}
			defer env.close()
			sqlDB, err := env.db.DB()
			if err != nil {
				return err
			}
			version, dirty, err := database.MigrationVersion(sqlDB)
			if err != nil {
				return err
			}
			return writeJSON(map[string]any{"version": version, "dirty": dirty})
		},
	})

	return cmd
}
