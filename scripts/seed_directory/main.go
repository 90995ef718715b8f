// 导入外部目录数据（组、公司、用户）
//
// 配信创建时会读取目录中的人数和名称，首次部署或外部系统数据批量变更后用此脚本同步。
//
// 用法: go run ./scripts/seed_directory -file configs/directory.yaml

package main

import (
	"context"
	"flag"
	"log"
	"os"

	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/repository"
	"edu_admin_backend/internal/service"
	"edu_admin_backend/pkg/database"
	"edu_admin_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Groups []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		MemberCount int    `yaml:"member_count"`
	} `yaml:"groups"`
	Companies []struct {
		ID            string `yaml:"id"`
		Name          string `yaml:"name"`
		EmployeeCount int    `yaml:"employee_count"`
	} `yaml:"companies"`
	Users []struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
	} `yaml:"users"`
}

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	file := flag.String("file", "configs/directory.yaml", "目录数据文件")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}
	logger.InitLogger(cfg)

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("无法读取目录数据: %v", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("解析目录数据失败: %v", err)
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, false)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Redis 连接失败: %v", err)
	}

	policies := service.NewPolicies(cfg.Content, cfg.Delivery)
	directory := service.NewDirectoryService(repository.NewDirectoryRepository(db, rdb), policies)
	ctx := context.Background()

	for _, g := range seed.Groups {
		if _, err := directory.UpsertGroup(ctx, g.ID, service.GroupRequest{Name: g.Name, MemberCount: g.MemberCount}); err != nil {
			log.Fatalf("导入组 %s 失败: %v", g.ID, err)
		}
	}
	for _, c := range seed.Companies {
		if _, err := directory.UpsertCompany(ctx, c.ID, service.CompanyRequest{Name: c.Name, EmployeeCount: c.EmployeeCount}); err != nil {
			log.Fatalf("导入公司 %s 失败: %v", c.ID, err)
		}
	}
	for _, u := range seed.Users {
		if _, err := directory.UpsertUser(ctx, u.ID, service.UserRequest{Name: u.Name, Email: u.Email}); err != nil {
			log.Fatalf("导入用户 %s 失败: %v", u.ID, err)
		}
	}

	log.Printf("完成！组 %d 个，公司 %d 个，用户 %d 个", len(seed.Groups), len(seed.Companies), len(seed.Users))
}
