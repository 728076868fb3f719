// Package main is the entry point for thread-worker.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thread-worker/internal/api"
	"thread-worker/internal/config"
	"thread-worker/internal/job"
	"thread-worker/internal/logger"
	"thread-worker/internal/pool"
)

var (
	version = "dev"
)

// options はコマンドラインで指定された値
type options struct {
	configFile string
	workers    int
	jobs       int
	delay      time.Duration
	logLevel   string
	addr       string
	set        map[string]bool
}

func main() {
	var (
		configFile  = flag.String("config", "", "設定ファイルパス (YAML/JSON)")
		workers     = flag.Int("workers", 0, "ワーカー数 (0で物理コア数)")
		jobs        = flag.Int("jobs", config.DefaultJobs, "投入するジョブ数")
		delay       = flag.Duration("delay", config.DefaultWorkDelay, "1ジョブあたりの擬似処理時間")
		logLevel    = flag.String("log-level", "info", "ログレベル (debug, info, warn, error)")
		serverMode  = flag.Bool("server", false, "API サーバーモードで起動")
		serverAddr  = flag.String("addr", ":8080", "サーバーアドレス (例: :8080)")
		showVersion = flag.Bool("version", false, "バージョンを表示")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `thread-worker - one worker per physical core, pulling jobs from a shared queue

Usage:
  thread-worker [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # 物理コア数のワーカーで20件処理
  thread-worker

  # ワーカー数とジョブ数を指定
  thread-worker --workers 4 --jobs 100 --delay 10ms

  # 設定ファイルから実行
  thread-worker --config pool.yaml

  # API サーバーモード
  thread-worker --server --addr :3000
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("thread-worker version %s\n", version)
		return
	}

	opts := options{
		configFile: *configFile,
		workers:    *workers,
		jobs:       *jobs,
		delay:      *delay,
		logLevel:   *logLevel,
		addr:       *serverAddr,
		set:        make(map[string]bool),
	}
	flag.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	fileConfig, err := buildConfig(opts)
	if err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}

	level, _ := fileConfig.LogLevel()
	logger.Default.SetLevel(level)

	poolConfig, err := fileConfig.ToPoolConfig()
	if err != nil {
		logger.Error("", "設定変換エラー: %v", err)
		os.Exit(1)
	}

	if *serverMode {
		if err := runServer(fileConfig.Server.Addr, poolConfig, fileConfig.Pool.Jobs); err != nil {
			logger.Error("", "サーバーエラー: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := runPool(poolConfig, fileConfig.Pool.Jobs); err != nil {
		logger.Error("", "実行エラー: %v", err)
		os.Exit(1)
	}
}

// buildConfig は設定ファイルを読み、明示されたフラグで上書きする
func buildConfig(opts options) (*config.FileConfig, error) {
	cfg := config.Default()

	if opts.configFile != "" {
		loaded, err := config.LoadFile(opts.configFile)
		if err != nil {
			return nil, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
		}
		cfg = loaded
	}

	if opts.set["workers"] {
		cfg.Pool.Workers = opts.workers
	}
	if opts.set["jobs"] {
		cfg.Pool.Jobs = opts.jobs
	}
	if opts.set["delay"] {
		cfg.Pool.WorkDelay = opts.delay.String()
	}
	if opts.set["log-level"] {
		cfg.Log.Level = opts.logLevel
	}
	if opts.set["addr"] {
		cfg.Server.Addr = opts.addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定検証エラー: %w", err)
	}
	return cfg, nil
}

// runPool はジョブを一通り処理してレポートを表示する
func runPool(cfg pool.Config, jobs int) error {
	p := pool.New(cfg)

	report, err := p.Run(job.Synthetic{Count: jobs}, job.LogSink{Scope: "pool"})
	if err != nil {
		return err
	}

	fmt.Println(report)
	return nil
}

// runServer は API サーバーを起動する
func runServer(addr string, cfg pool.Config, jobs int) error {
	fmt.Println("thread-worker - API Server")
	fmt.Println("==========================")
	fmt.Printf("Starting server on http://%s\n", addr)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n中断シグナルを受信、サーバーを終了中...")
		cancel()
	}()

	server := api.NewServer(addr, cfg, jobs)
	return server.Start(ctx)
}
