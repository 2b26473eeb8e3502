package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher 配置文件热加载
// 文件写入后延迟 reloadDelay 重新加载，并依次通知回调
type ConfigWatcher struct {
	loader      *ConfigLoader
	config      *Config
	watcher     *fsnotify.Watcher
	callbacks   []ConfigChangeCallback
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	reloadDelay time.Duration
	lastReload  time.Time
	onError     func(error)
}

// ConfigChangeCallback 配置变更回调
type ConfigChangeCallback func(oldConfig, newConfig *Config) error

// NewConfigWatcher 创建配置监听器，configPath 为配置目录或文件
func NewConfigWatcher(configPath string) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ConfigWatcher{
		loader:      NewConfigLoader(configPath, DefaultEnvPrefix),
		watcher:     watcher,
		ctx:         ctx,
		cancel:      cancel,
		reloadDelay: 1 * time.Second,
		onError:     func(err error) { fmt.Printf("[!] Config watcher: %v\n", err) },
	}, nil
}

// Start 首次加载并开始监听
func (cw *ConfigWatcher) Start() error {
	config, err := cw.loader.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load initial config: %w", err)
	}

	cw.mu.Lock()
	cw.config = config
	cw.mu.Unlock()

	configFile := cw.loader.GetConfigPath()
	if configFile == "" {
		return fmt.Errorf("config file path is empty")
	}
	if err := cw.watcher.Add(configFile); err != nil {
		return fmt.Errorf("failed to watch config file %s: %w", configFile, err)
	}

	go cw.watchLoop()
	return nil
}

// Stop 停止监听
func (cw *ConfigWatcher) Stop() error {
	cw.cancel()
	return cw.watcher.Close()
}

// GetConfig 当前配置
func (cw *ConfigWatcher) GetConfig() *Config {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.config
}

// AddCallback 注册回调
func (cw *ConfigWatcher) AddCallback(callback ConfigChangeCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

func (cw *ConfigWatcher) watchLoop() {
	for {
		select {
		case <-cw.ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleFileEvent(event)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.onError(err)
		}
	}
}

func (cw *ConfigWatcher) handleFileEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	now := time.Now()
	if now.Sub(cw.lastReload) < cw.reloadDelay {
		return
	}
	cw.lastReload = now

	time.AfterFunc(cw.reloadDelay, func() {
		if err := cw.reloadConfig(); err != nil {
			cw.onError(err)
		}
	})
}

// reloadConfig 重新加载，任一回调失败则保留旧配置
func (cw *ConfigWatcher) reloadConfig() error {
	newConfig, err := NewConfigLoader(cw.loader.GetConfigPath(), cw.loader.envPrefix).LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load new config: %w", err)
	}

	cw.mu.RLock()
	oldConfig := cw.config
	callbacks := append([]ConfigChangeCallback(nil), cw.callbacks...)
	cw.mu.RUnlock()

	for _, callback := range callbacks {
		if err := callback(oldConfig, newConfig); err != nil {
			return fmt.Errorf("config change callback failed: %w", err)
		}
	}

	cw.mu.Lock()
	cw.config = newConfig
	cw.mu.Unlock()
	return nil
}

// WatchConfig 创建并启动监听器
func WatchConfig(configPath string, callback ConfigChangeCallback) (*ConfigWatcher, error) {
	watcher, err := NewConfigWatcher(configPath)
	if err != nil {
		return nil, err
	}
	if callback != nil {
		watcher.AddCallback(callback)
	}
	if err := watcher.Start(); err != nil {
		_ = watcher.Stop()
		return nil, err
	}
	return watcher, nil
}
