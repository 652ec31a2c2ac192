// create-admin 创建首个管理员账号
//
//	go run ./cmd/create-admin -email admin@example.com -name 管理员
//
// 终端下交互式输入密码；非终端环境从 EASYPRO_ADMIN_PASSWORD 读取。
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
	"gorm.io/gorm"

	"easypro/backend/config"
	"easypro/backend/internal/model"
	"easypro/backend/internal/repository"
	"easypro/backend/pkg/database"
	applogger "easypro/backend/pkg/logger"
)

const minPasswordLen = 8

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	email := flag.String("email", "", "管理员邮箱")
	name := flag.String("name", "Administrator", "管理员姓名")
	flag.Parse()

	if err := run(*configPath, strings.ToLower(strings.TrimSpace(*email)), strings.TrimSpace(*name)); err != nil {
		fmt.Fprintf(os.Stderr, "创建管理员失败: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, email, name string) error {
	if email == "" {
		return errors.New("必须通过 -email 指定邮箱")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	password, err := readPassword()
	if err != nil {
		return err
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("密码长度不能少于 %d 位", minPasswordLen)
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := repository.NewRepository(db)
	if _, err := repo.User.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("邮箱 %s 已存在", email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		IsApproved:   true,
		IsActive:     true,
	}
	if err := repo.User.Create(ctx, admin); err != nil {
		return err
	}

	logger.Info("管理员创建成功", zap.String("user_id", admin.UserID), zap.String("email", email))
	return nil
}

// readPassword 终端下两次输入确认，否则读取环境变量或标准输入首行
func readPassword() (string, error) {
	if v := os.Getenv("EASYPRO_ADMIN_PASSWORD"); v != "" {
		return v, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", errors.New("未提供密码")
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "密码: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "确认密码: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("两次输入的密码不一致")
	}
	return string(first), nil
}
