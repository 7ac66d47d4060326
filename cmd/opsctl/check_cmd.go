package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pharmacy-ops/backend/internal/authz"
	"pharmacy-ops/backend/internal/repository"
)

func newCheckCmd(env *cmdEnv) *cobra.Command {
	var userID, key string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "按当前策略评估某用户是否拥有权限键",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !authz.ValidKey(key) {
				return fmt.Errorf("无效的权限键: %s", key)
			}
			if err := env.open(); err != nil {
				return err
			}
			defer env.close()

			repo := repository.NewRepository(env.db)
			// 始终按 enforce 评估，忽略配置中的 shadow/disabled
			e, err := authz.NewEvaluator(cmd.Context(), authz.ModeEnforce, repo.Permission, repo.Profile, env.logger)
			if err != nil {
				return err
			}
			roles, err := e.Roles(cmd.Context(), userID)
			if err != nil {
				return err
			}
			d, err := e.Require(cmd.Context(), userID, key)
			if err != nil {
				return err
			}
			return writeJSON(map[string]any{
				"user_id":  userID,
				"roles":    roles,
				"decision": d,
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "用户 ID（必填）")
	cmd.Flags().StringVar(&key, "key", "", "权限键（必填）")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
