package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"pharmacy-ops/backend/pkg/jwt"
)

// newTokenCmd 用共享密钥签发访问令牌，供本地联调与冒烟测试
func newTokenCmd(env *cmdEnv) *cobra.Command {
	var (
		userID, email string
		ttl           time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "签发测试用访问令牌（仅 auth.mode=jwt）",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 || ttl > 24*time.Hour {
				return errors.New("--ttl 必须在 (0, 24h] 之间")
			}
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.Mode != "jwt" {
				return errors.New("仅 auth.mode=jwt 时可签发令牌，remote 模式请通过认证服务登录")
			}

			token, err := jwt.NewManager(&cfg.Auth).Sign(userID, email, ttl)
			if err != nil {
				return err
			}
			return writeJSONTo(cmd.OutOrStdout(), map[string]any{
				"access_token": token,
				"token_type":   "Bearer",
				"expires_in":   int(ttl.Seconds()),
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "用户 ID（必填）")
	cmd.Flags().StringVar(&email, "email", "", "邮箱")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "有效期")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
