package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharmacy-ops/backend/config"
	"pharmacy-ops/backend/pkg/database"
	applogger "pharmacy-ops/backend/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "opsctl",
		Short:        "药房运营后台运维工具：迁移、权限策略、权限检查、测试令牌",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径（默认按 config.Load 搜索）")

	env := &cmdEnv{configPath: &configPath}
	cmd.AddCommand(newMigrateCmd(env))
	cmd.AddCommand(newPermissionsCmd(env))
	cmd.AddCommand(newCheckCmd(env))
	cmd.AddCommand(newTokenCmd(env))
	return cmd
}

// cmdEnv 子命令共享的配置、日志与数据库连接
type cmdEnv struct {
	configPath *string

	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

// loadConfig 仅加载配置，不连接数据库
func (e *cmdEnv) loadConfig() (*config.Config, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}
	cfg, err := config.Load(*e.configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	e.cfg = cfg
	return cfg, nil
}

func (e *cmdEnv) open() error {
	if e.db != nil {
		return nil
	}
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	e.cfg, e.logger, e.db = cfg, logger, db
	return nil
}

func (e *cmdEnv) close() {
	if e.db != nil {
		if sqlDB, err := e.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

func writeJSON(v any) error {
	return writeJSONTo(os.Stdout, v)
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
