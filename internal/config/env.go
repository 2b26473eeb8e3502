package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvManager 带前缀的环境变量读取
type EnvManager struct {
	prefix string
}

// NewEnvManager 创建环境变量管理器
func NewEnvManager(prefix string) *EnvManager {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return &EnvManager{prefix: prefix}
}

// GetString 获取字符串
func (em *EnvManager) GetString(key, defaultValue string) string {
	if value := os.Getenv(em.buildEnvKey(key)); value != "" {
		return value
	}
	return defaultValue
}

// GetBool 获取布尔值
func (em *EnvManager) GetBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(em.buildEnvKey(key)))
	if err != nil {
		return defaultValue
	}
	return value
}

func (em *EnvManager) buildEnvKey(key string) string {
	return fmt.Sprintf("%s_%s", em.prefix, key)
}

// EnvLoader 从 .env 文件加载环境变量，已存在的变量不会被覆盖
type EnvLoader struct {
	envFiles []string
	loaded   bool
}

// NewEnvLoader 创建加载器，默认读取 .env
func NewEnvLoader(envFiles ...string) *EnvLoader {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	return &EnvLoader{envFiles: envFiles}
}

// Load 加载所有 .env 文件，文件不存在不算错误
func (e *EnvLoader) Load() error {
	if e.loaded {
		return nil
	}
	for _, envFile := range e.envFiles {
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	e.loaded = true
	return nil
}
