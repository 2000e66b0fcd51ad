package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"simagang/backend/config"
	"simagang/backend/internal/model"
	"simagang/backend/internal/repository"
	"simagang/backend/pkg/database"
	applogger "simagang/backend/pkg/logger"
)

// createadmin 创建初始管理员账号，幂等：邮箱已存在时直接退出
func main() {
	var (
		email    = flag.String("email", "", "管理员邮箱")
		password = flag.String("password", "", "管理员密码（至少 8 位）")
		name     = flag.String("name", "Administrator", "管理员姓名")
	)
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "用法: createadmin -email admin@example.com -password <密码> [-name 姓名]")
		os.Exit(1)
	}
	if len(*password) < 8 {
		fmt.Fprintln(os.Stderr, "密码长度不能少于 8 位")
		os.Exit(1)
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo := repository.NewRepository(db)

	if existing, err := repo.User.GetByEmail(ctx, *email); err == nil && existing != nil {
		logger.Info("管理员已存在，跳过创建", zap.String("email", *email))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal("密码加密失败", zap.Error(err))
	}

	admin := &model.User{
		Name:         *name,
		Email:        *email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		IsVerified:   true,
	}
	if err := repo.User.Create(ctx, admin); err != nil {
		logger.Fatal("创建管理员失败", zap.Error(err))
	}

	logger.Info("管理员创建成功",
		zap.String("email", *email),
		zap.String("user_id", admin.UserID),
	)
}
