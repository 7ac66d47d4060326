package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"pharmacy-ops/backend/internal/authz"
	"pharmacy-ops/backend/internal/model"
	"pharmacy-ops/backend/internal/repository"
)

func newPermissionsCmd(env *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "权限策略管理",
	}
	cmd.AddCommand(newPermissionsListCmd(env))
	cmd.AddCommand(newPermissionsSeedCmd(env))
	return cmd
}

func newPermissionsListCmd(env *cmdEnv) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "按角色列出权限策略",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.open(); err != nil {
				return err
			}
			defer env.close()

			repo := repository.NewPermissionRepo(env.db)
			var (
				rows []model.RolePermission
				err  error
			)
			if role != "" {
				rows, err = repo.ListPoliciesByRole(cmd.Context(), role)
			} else {
				rows, err = repo.ListPolicies(cmd.Context())
			}
			if err != nil {
				return err
			}
			return writeJSON(groupByRole(rows))
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "只列出该角色")
	return cmd
}

func newPermissionsSeedCmd(env *cmdEnv) *cobra.Command {
	var (
		role string
		keys []string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "为角色补充权限策略（已存在的跳过）",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range keys {
				if !authz.ValidPolicyKey(k) {
					return fmt.Errorf("无效的权限键: %s", k)
				}
			}
			if err := env.open(); err != nil {
				return err
			}
			defer env.close()

			repo := repository.NewPermissionRepo(env.db)
			existing, err := repo.ListPoliciesByRole(cmd.Context(), role)
			if err != nil {
				return err
			}
			added := missingKeys(existing, keys)
			for _, k := range added {
				if err := repo.CreatePolicy(cmd.Context(), &model.RolePermission{Role: role, PermissionKey: k}); err != nil {
					return fmt.Errorf("写入 %s/%s 失败: %w", role, k, err)
				}
			}
			return writeJSON(map[string]any{"role": role, "added": added})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "角色（必填）")
	cmd.Flags().StringArrayVar(&keys, "key", nil, "权限键，可重复；支持 module.* 通配")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

// groupByRole 角色 → 排序后的权限键
func groupByRole(rows []model.RolePermission) map[string][]string {
	out := make(map[string][]string)
	for _, r := range rows {
		out[r.Role] = append(out[r.Role], r.PermissionKey)
	}
	for role := range out {
		sort.Strings(out[role])
	}
	return out
}

// missingKeys 返回 keys 中尚未授予的权限键（去重，保持输入顺序）
func missingKeys(existing []model.RolePermission, keys []string) []string {
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[p.PermissionKey] = true
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if have[k] {
			continue
		}
		have[k] = true
		out = append(out, k)
	}
	return out
}
