// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（数据库口令等）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
// AcquireTimeout 在文件中写为时长字符串（如 "10s"），解析后再落入 StorageConfig
type YAMLConfig struct {
	Server  ServerConfig `yaml:"server"`
	Storage struct {
		Driver         string `yaml:"driver"`
		DSN            string `yaml:"dsn"`
		MaxConns       int    `yaml:"max_conns"`
		AcquireTimeout string `yaml:"acquire_timeout"`
	} `yaml:"storage"`
	Mongo MongoConfig `yaml:"mongo"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// StorageConfig SQL 后端配置
type StorageConfig struct {
	// Driver 后端选择：postgres | sqlite | mongo
	Driver string
	// DSN 连接串：postgres URL 或 sqlite 文件路径
	DSN string
	// MaxConns 连接池上限，进程内唯一的背压机制
	MaxConns int
	// AcquireTimeout 单请求的存储操作期限（含连接获取排队时间），
	// 超时映射为 503
	AcquireTimeout time.Duration
}

// MongoConfig MongoDB 后端配置
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	MaxPool  uint64 `yaml:"max_pool"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env     Environment
	APIPort string
	Storage StorageConfig
	Mongo   MongoConfig
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
}

// Load 加载配置
//
// 缺失的配置文件不是错误：全部字段都有可运行的默认值，
// 保证 go run ./cmd/api-server 零配置可启动（sqlite 后端）。
func Load() Config {
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	env := Environment(getEnv("APP_ENV", string(EnvDevelopment)))

	cfg := Config{
		Env:     env,
		APIPort: "8080",
		Storage: StorageConfig{
			Driver:         "sqlite",
			DSN:            "file:catalog.db?cache=shared&mode=rwc",
			MaxConns:       10,
			AcquireTimeout: 10 * time.Second,
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "catalog_admin",
			MaxPool:  10,
		},
	}

	if yc, ok := loadYAML(env); ok {
		if yc.Server.Port != "" {
			cfg.APIPort = yc.Server.Port
		}
		if yc.Storage.Driver != "" {
			cfg.Storage.Driver = yc.Storage.Driver
		}
		if yc.Storage.DSN != "" {
			cfg.Storage.DSN = yc.Storage.DSN
		}
		if yc.Storage.MaxConns > 0 {
			cfg.Storage.MaxConns = yc.Storage.MaxConns
		}
		if yc.Storage.AcquireTimeout != "" {
			if d, err := time.ParseDuration(yc.Storage.AcquireTimeout); err == nil && d > 0 {
				cfg.Storage.AcquireTimeout = d
			}
		}
		if yc.Mongo.URI != "" {
			cfg.Mongo.URI = yc.Mongo.URI
		}
		if yc.Mongo.Database != "" {
			cfg.Mongo.Database = yc.Mongo.Database
		}
		if yc.Mongo.MaxPool > 0 {
			cfg.Mongo.MaxPool = yc.Mongo.MaxPool
		}
	}

	// 环境变量覆盖
	cfg.APIPort = getEnv("API_PORT", cfg.APIPort)
	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.DSN = getEnv("DATABASE_URL", cfg.Storage.DSN)
	cfg.Mongo.URI = getEnv("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.Database = getEnv("MONGO_DB", cfg.Mongo.Database)
	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Storage.MaxConns = n
			cfg.Mongo.MaxPool = uint64(n)
		}
	}

	return cfg
}

// loadYAML 按环境查找并解析 configs/{env}.yaml
func loadYAML(env Environment) (YAMLConfig, bool) {
	var yc YAMLConfig
	for _, dir := range configPaths {
		path := filepath.Join(dir, string(env)+".yaml")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &yc); err != nil {
			continue
		}
		return yc, true
	}
	return yc, false
}

// IsProduction 是否生产环境：非生产环境的错误响应附带详情
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// String 摘要输出，不包含敏感的连接串
func (c Config) String() string {
	return fmt.Sprintf("env=%s port=%s driver=%s max_conns=%d",
		c.Env, c.APIPort, c.Storage.Driver, c.Storage.MaxConns)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
