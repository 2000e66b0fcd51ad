package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"simagang/backend/config"
)

// ErrNotFound 键不存在或已过期
var ErrNotFound = errors.New("记录不存在或已过期")

// Client Redis 客户端封装
// 当前用于 Token 黑名单、OTP / 重置令牌（带 TTL，进程重启不丢失）与限流
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── OTP 存储（注册验证 / 管理员登录）──
//
// OTP 以带 TTL 的键持久化在 Redis 中，过期即失效（惰性检查由 Redis 完成）。
// 相比进程内缓存，重启不会丢失未完成的注册流程。

const otpPrefix = "otp:"

// SetOTP 保存邮箱对应的 OTP，覆盖旧值
func (c *Client) SetOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	return c.rdb.Set(ctx, otpPrefix+email, code, ttl).Err()
}

// GetOTP 读取邮箱对应的 OTP；不存在或已过期返回 ErrNotFound
func (c *Client) GetOTP(ctx context.Context, email string) (string, error) {
	code, err := c.rdb.Get(ctx, otpPrefix+email).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return code, nil
}

// DeleteOTP 删除邮箱对应的 OTP（验证成功后调用，幂等）
func (c *Client) DeleteOTP(ctx context.Context, email string) error {
	return c.rdb.Del(ctx, otpPrefix+email).Err()
}

// ── 密码重置令牌 ──

const resetTokenPrefix = "reset_token:"

// SetResetToken 保存重置令牌 → 用户 ID 的映射
func (c *Client) SetResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, resetTokenPrefix+token, userID, ttl).Err()
}

// GetResetToken 读取重置令牌对应的用户 ID；不存在或已过期返回 ErrNotFound
func (c *Client) GetResetToken(ctx context.Context, token string) (string, error) {
	userID, err := c.rdb.Get(ctx, resetTokenPrefix+token).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return userID, nil
}

// DeleteResetToken 删除重置令牌（单次使用，成功后调用）
func (c *Client) DeleteResetToken(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, resetTokenPrefix+token).Err()
}

// ── 限流 ──

// CheckRateLimit 固定窗口计数限流
// 返回 true 表示放行；窗口内第一次请求设置过期时间
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
