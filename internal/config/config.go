package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"thread-worker/internal/logger"
	"thread-worker/internal/pool"
	"thread-worker/internal/worker"

	"gopkg.in/yaml.v3"
)

// DefaultJobs は合成ジョブのデフォルト件数
const DefaultJobs = 20

// DefaultWorkDelay は1ジョブあたりの擬似処理時間のデフォルト
const DefaultWorkDelay = 100 * time.Millisecond

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Pool   PoolConfig   `yaml:"pool" json:"pool"`
	Log    LogConfig    `yaml:"log" json:"log"`
	Server ServerConfig `yaml:"server" json:"server"`
}

// PoolConfig はワーカープールの設定
type PoolConfig struct {
	Workers     int    `yaml:"workers" json:"workers"`           // 0で物理コア数
	QueueFactor int    `yaml:"queue_factor" json:"queue_factor"` // キュー容量 = workers * queue_factor
	Jobs        int    `yaml:"jobs" json:"jobs"`
	WorkDelay   string `yaml:"work_delay" json:"work_delay"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// ServerConfig は API サーバー設定
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Default はデフォルト値で埋めた設定を返す
func Default() *FileConfig {
	return &FileConfig{
		Pool: PoolConfig{
			Workers:     0,
			QueueFactor: 100,
			Jobs:        DefaultJobs,
			WorkDelay:   DefaultWorkDelay.String(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// LoadFile は設定ファイルを読み込む。書かれていない項目はデフォルト値のまま
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return config, nil
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	p := f.Pool

	if p.Workers < 0 {
		return fmt.Errorf("pool.workers must be non-negative")
	}
	if p.QueueFactor < 0 {
		return fmt.Errorf("pool.queue_factor must be non-negative")
	}
	if p.Jobs < 0 {
		return fmt.Errorf("pool.jobs must be non-negative")
	}
	if _, err := f.WorkDelay(); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(f.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// WorkDelay は pool.work_delay を Duration として返す
func (f *FileConfig) WorkDelay() (time.Duration, error) {
	if f.Pool.WorkDelay == "" {
		return DefaultWorkDelay, nil
	}
	d, err := time.ParseDuration(f.Pool.WorkDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid work delay: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("pool.work_delay must be non-negative")
	}
	return d, nil
}

// LogLevel は log.level を logger.Level として返す
func (f *FileConfig) LogLevel() (logger.Level, error) {
	return logger.ParseLevel(f.Log.Level)
}

// ToPoolConfig は FileConfig を pool.Config に変換する
func (f *FileConfig) ToPoolConfig() (pool.Config, error) {
	config := pool.DefaultConfig()

	if f.Pool.Workers > 0 {
		config.Workers = f.Pool.Workers
	}
	if f.Pool.QueueFactor > 0 {
		config.QueueFactor = f.Pool.QueueFactor
	}

	d, err := f.WorkDelay()
	if err != nil {
		return config, err
	}
	config.Task = worker.Sleep(d)

	return config, nil
}
