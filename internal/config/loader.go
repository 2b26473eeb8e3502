package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEnvPrefix 环境变量前缀
const DefaultEnvPrefix = "PATHFINDER"

// DefaultConfigDir 未指定路径时查找配置文件的目录
const DefaultConfigDir = "./configs"

// ConfigLoader 配置加载器
type ConfigLoader struct {
	configPath string // 配置目录或配置文件
	envPrefix  string
	optional   bool // 配置文件缺失时仅使用默认值
	env        *EnvManager
	viper      *viper.Viper
}

// NewConfigLoader 创建配置加载器
func NewConfigLoader(configPath, envPrefix string) *ConfigLoader {
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}
	return &ConfigLoader{
		configPath: configPath,
		envPrefix:  envPrefix,
		env:        NewEnvManager(envPrefix),
		viper:      viper.New(),
	}
}

// LoadConfig 加载配置
// 顺序：默认值 < 配置文件 < 环境变量
func (cl *ConfigLoader) LoadConfig() (*Config, error) {
	cl.viper.SetConfigType("yaml")

	cl.viper.SetEnvPrefix(cl.envPrefix)
	cl.viper.AutomaticEnv()
	cl.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cl.bindEnvVars()
	cl.setDefaults()

	if err := cl.loadConfigFile(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !(cl.optional && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist))) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	var config Config
	if err := cl.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cl.validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadConfigFile 加载配置文件
// configPath 指向文件时直接读取，否则按 config.<env> -> config 的顺序查找
func (cl *ConfigLoader) loadConfigFile() error {
	if cl.configPath == "" {
		cl.configPath = cl.env.GetString("CONFIG_PATH", DefaultConfigDir)
	}

	if ext := filepath.Ext(cl.configPath); ext == ".yaml" || ext == ".yml" {
		cl.viper.SetConfigFile(cl.configPath)
		return cl.viper.ReadInConfig()
	}

	cl.viper.AddConfigPath(cl.configPath)
	cl.viper.AddConfigPath("./configs")
	cl.viper.AddConfigPath(".")

	cl.viper.SetConfigName(fmt.Sprintf("config.%s", cl.getEnvironment()))
	if err := cl.viper.ReadInConfig(); err != nil {
		cl.viper.SetConfigName("config")
		if err := cl.viper.ReadInConfig(); err != nil {
			return err
		}
	}
	return nil
}

// getEnvironment 获取运行环境
func (cl *ConfigLoader) getEnvironment() string {
	env := cl.env.GetString("ENV", os.Getenv("GO_ENV"))
	if env == "" {
		env = "development"
	}
	return env
}

// bindEnvVars 绑定常用环境变量
func (cl *ConfigLoader) bindEnvVars() {
	p := cl.envPrefix
	_ = cl.viper.BindEnv("log.level", p+"_LOG_LEVEL")
	_ = cl.viper.BindEnv("log.format", p+"_LOG_FORMAT")
	_ = cl.viper.BindEnv("log.output", p+"_LOG_OUTPUT")
	_ = cl.viper.BindEnv("log.file_path", p+"_LOG_FILE_PATH")

	_ = cl.viper.BindEnv("scan.workers", p+"_SCAN_WORKERS")
	_ = cl.viper.BindEnv("scan.ports", p+"_SCAN_PORTS")

	_ = cl.viper.BindEnv("history.enabled", p+"_HISTORY_ENABLED")
	_ = cl.viper.BindEnv("history.driver", p+"_HISTORY_DRIVER")
	_ = cl.viper.BindEnv("history.dsn", p+"_HISTORY_DSN")

	_ = cl.viper.BindEnv("proxy.url", p+"_PROXY_URL")
}

// setDefaults 设置默认值
func (cl *ConfigLoader) setDefaults() {
	cl.viper.SetDefault("app.name", "PathFinder")
	cl.viper.SetDefault("app.environment", "development")
	cl.viper.SetDefault("app.user_agent", "PathFinder/1.0")

	cl.viper.SetDefault("log.level", "info")
	cl.viper.SetDefault("log.format", "text")
	cl.viper.SetDefault("log.output", "stdout")
	cl.viper.SetDefault("log.file_path", "./logs/pathfinder.log")
	cl.viper.SetDefault("log.max_size", 100)
	cl.viper.SetDefault("log.max_backups", 3)
	cl.viper.SetDefault("log.max_age", 28)
	cl.viper.SetDefault("log.compress", true)
	cl.viper.SetDefault("log.caller", false)

	cl.viper.SetDefault("scan.workers", 200)
	cl.viper.SetDefault("scan.ports", "")
	cl.viper.SetDefault("scan.port_timeout", "800ms")
	cl.viper.SetDefault("scan.banner_timeout", "1s")
	cl.viper.SetDefault("scan.host_timeout", "60s")
	cl.viper.SetDefault("scan.socket_budget.initial", 500)
	cl.viper.SetDefault("scan.socket_budget.min", 50)
	cl.viper.SetDefault("scan.socket_budget.max", 1000)

	cl.viper.SetDefault("discovery.icmp_timeout", "1s")
	cl.viper.SetDefault("discovery.arp_timeout", "500ms")
	cl.viper.SetDefault("discovery.tcp_timeout", "500ms")
	cl.viper.SetDefault("discovery.tcp_ports", []int{80, 443, 8080, 5353, 62078})
	cl.viper.SetDefault("discovery.resolve_hostname", true)
	cl.viper.SetDefault("discovery.hostname_tool_timeout", "2s")

	cl.viper.SetDefault("analyzer.cve.enabled", true)
	cl.viper.SetDefault("analyzer.cve.catalog_path", "")
	cl.viper.SetDefault("analyzer.cve.cache_size", 1024)
	cl.viper.SetDefault("analyzer.dir.enabled", true)
	cl.viper.SetDefault("analyzer.dir.level", "quick")
	cl.viper.SetDefault("analyzer.dir.workers", 10)
	cl.viper.SetDefault("analyzer.dir.timeout", "2s")
	cl.viper.SetDefault("analyzer.dir.rate_per_second", 0)
	cl.viper.SetDefault("analyzer.brute.max_attempts", 10)
	cl.viper.SetDefault("analyzer.brute.delay", "500ms")
	cl.viper.SetDefault("analyzer.brute.timeout", "3s")
	cl.viper.SetDefault("analyzer.brute.concurrency", 50)

	cl.viper.SetDefault("history.enabled", true)
	cl.viper.SetDefault("history.driver", "sqlite")
	cl.viper.SetDefault("history.dsn", "./data/pathfinder.db")
	cl.viper.SetDefault("history.log_level", "silent")

	cl.viper.SetDefault("proxy.url", "")
	cl.viper.SetDefault("proxy.timeout", "5s")
}

// validateConfig 验证配置
func (cl *ConfigLoader) validateConfig(config *Config) error {
	if config.Scan.Workers <= 0 {
		return fmt.Errorf("invalid scan workers: %d", config.Scan.Workers)
	}
	if config.Scan.PortTimeout <= 0 {
		return fmt.Errorf("invalid port timeout: %s", config.Scan.PortTimeout)
	}

	b := config.Scan.SocketBudget
	if b.Min <= 0 || b.Max < b.Min {
		return fmt.Errorf("invalid socket budget: min=%d max=%d", b.Min, b.Max)
	}

	switch strings.ToLower(config.Analyzer.Dir.Level) {
	case "quick", "medium":
	default:
		return fmt.Errorf("invalid directory level: %s", config.Analyzer.Dir.Level)
	}

	switch strings.ToLower(config.History.Driver) {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported history driver: %s", config.History.Driver)
	}
	if config.History.Enabled && config.History.DSN == "" {
		return fmt.Errorf("history dsn is required when history is enabled")
	}

	if config.Proxy.URL != "" && !strings.HasPrefix(config.Proxy.URL, "socks5://") {
		return fmt.Errorf("unsupported proxy url: %s (only socks5 is supported)", config.Proxy.URL)
	}

	return nil
}

// GetConfigPath 获取实际使用的配置文件
func (cl *ConfigLoader) GetConfigPath() string {
	return cl.viper.ConfigFileUsed()
}

// LoadConfigFromFile 从指定文件加载配置
func LoadConfigFromFile(configFile string) (*Config, error) {
	return NewConfigLoader(configFile, DefaultEnvPrefix).LoadConfig()
}

// LoadConfigOrDefault 加载配置，找不到配置文件时使用默认值
func LoadConfigOrDefault(configPath string) (*Config, error) {
	loader := NewConfigLoader(configPath, DefaultEnvPrefix)
	loader.optional = true
	return loader.LoadConfig()
}
