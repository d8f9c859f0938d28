package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// 验评细则默认文本
const DefaultRules = "宿舍卫生:宿舍卫生验评满分10分\n" +
	"1.宿舍床铺被子叠放整齐(此项不合格每人扣1分)\n" +
	"2.床单平整(此项不合格每人扣1分)\n" +
	"3.无多余杂物(如衣物、书本、零食)此项不合格每人扣1分)\n" +
	"4.簸箕内清理干净(此项不合格每人扣1分)"

// AssetsConfig 参考表与图片路径
type AssetsConfig struct {
	ClassroomRoster  string  `yaml:"classroom_roster"`
	ManagerRoster    string  `yaml:"manager_roster"`
	DepartmentRoster string  `yaml:"department_roster"`
	Logo             string  `yaml:"logo"`
	LogoScale        float64 `yaml:"logo_scale"`
}

// DualApartmentConfig 跨公寓级部（默认高二A部，无记录时占位在一号公寓）
type DualApartmentConfig struct {
	Grade            int    `yaml:"grade"`
	Department       string `yaml:"department"`
	DefaultApartment int    `yaml:"default_apartment"`
}

// ReportConfig 报表表头文本与排名方式
type ReportConfig struct {
	Title          string              `yaml:"title"`
	Audience       string              `yaml:"audience"`
	InspectingDept string              `yaml:"inspecting_dept"`
	Project        string              `yaml:"project"`
	Rules          string              `yaml:"rules"`
	Reporter       string              `yaml:"reporter"`
	Date           string              `yaml:"date"`
	Time           string              `yaml:"time"`
	RankMode       string              `yaml:"rank_mode"`
	SheetName      string              `yaml:"sheet_name"`
	DualApartment  DualApartmentConfig `yaml:"dual_apartment"`
}

// DatabaseConfig 数据库配置（归档每次生成的报表）
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MaxIdle  int    `yaml:"max_idle"`
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置（报表生成通知）
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
}

// WebhookConfig Webhook 通知配置
type WebhookConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config 宿舍卫生通报工具配置
type Config struct {
	Assets   AssetsConfig   `yaml:"assets"`
	Report   ReportConfig   `yaml:"report"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Log      LogConfig      `yaml:"log"`
}

// Default 默认配置
func Default() *Config {
	cfg := &Config{}

	cfg.Assets.ClassroomRoster = "assets/nianji.csv"
	cfg.Assets.ManagerRoster = "assets/sushe.csv"
	cfg.Assets.DepartmentRoster = "assets/jibu.csv"
	cfg.Assets.Logo = "assets/logo.png"
	cfg.Assets.LogoScale = 0.3

	cfg.Report.Title = "高中部宿舍卫生验评通报总结"
	cfg.Report.Audience = "高一、高二、高三"
	cfg.Report.InspectingDept = "校办公室"
	cfg.Report.Project = "高一高二高三男生宿舍卫生"
	cfg.Report.Rules = DefaultRules
	cfg.Report.Reporter = "侯英敏、杨超超、郭静、赵冰、申淑玲"
	cfg.Report.Date = "12月3日"
	cfg.Report.Time = "下午: 15:20-15:50"
	cfg.Report.RankMode = "dense"
	cfg.Report.SheetName = "Sheet1"
	cfg.Report.DualApartment = DualApartmentConfig{Grade: 2, Department: "A", DefaultApartment: 1}

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "weisheng"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 5
	cfg.Database.MaxIdle = 2

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.Stream = "weisheng:reports"

	cfg.Webhook.Timeout = 10 * time.Second

	cfg.Log.Level = "info"
	cfg.Log.Format = "console"

	return cfg
}

// Load 加载配置：默认值 -> YAML 文件（可选）-> 环境变量
// path 为空时不读文件；文件不存在视为错误。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Assets.ClassroomRoster = getEnv("WEISHENG_CLASSROOM_ROSTER", c.Assets.ClassroomRoster)
	c.Assets.ManagerRoster = getEnv("WEISHENG_MANAGER_ROSTER", c.Assets.ManagerRoster)
	c.Assets.DepartmentRoster = getEnv("WEISHENG_DEPARTMENT_ROSTER", c.Assets.DepartmentRoster)
	c.Assets.Logo = getEnv("WEISHENG_LOGO", c.Assets.Logo)
	c.Report.RankMode = getEnv("WEISHENG_RANK_MODE", c.Report.RankMode)

	c.Database.Enabled = getEnvBool("ARCHIVE_ENABLED", c.Database.Enabled)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	c.Redis.Enabled = getEnvBool("REDIS_NOTIFY_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)
	c.Redis.Stream = getEnv("REDIS_STREAM", c.Redis.Stream)

	c.Webhook.Enabled = getEnvBool("WEBHOOK_ENABLED", c.Webhook.Enabled)
	c.Webhook.URL = getEnv("WEBHOOK_URL", c.Webhook.URL)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Report.RankMode {
	case "", "dense", "competition":
	default:
		return fmt.Errorf("invalid report.rank_mode %q", c.Report.RankMode)
	}
	if c.Assets.LogoScale <= 0 {
		return errors.New("assets.logo_scale must be positive")
	}
	if c.Report.DualApartment.Department == "" {
		return errors.New("report.dual_apartment.department is required")
	}
	if c.Webhook.Enabled && c.Webhook.URL == "" {
		return errors.New("webhook.url is required when webhook is enabled")
	}
	if c.Redis.Enabled && c.Redis.Stream == "" {
		return errors.New("redis.stream is required when redis notify is enabled")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
