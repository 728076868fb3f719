package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level はログの重要度
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel は設定ファイルのレベル名を Level に変換する
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

// Logger は複数のゴルーチンから同時に使えるロガー
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
}

// Default はパッケージ関数が使うロガー
var Default = New(os.Stdout, LevelInfo)

// New は out に minLevel 以上を書き出すロガーを作る
func New(out io.Writer, minLevel Level) *Logger {
	return &Logger{
		out:      out,
		minLevel: minLevel,
	}
}

// SetLevel は出力する最低レベルを変更する
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// SetOutput は出力先を差し替える
func (l *Logger) SetOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = out
}

// Enabled は level が出力対象かどうかを返す
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.minLevel
}

func (l *Logger) log(level Level, scope string, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.minLevel {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)

	if scope != "" {
		_, _ = fmt.Fprintf(l.out, "[%s] [%s] [%s] %s\n", timestamp, level, scope, msg)
	} else {
		_, _ = fmt.Fprintf(l.out, "[%s] [%s] %s\n", timestamp, level, msg)
	}
}

func (l *Logger) Debug(scope string, format string, args ...any) {
	l.log(LevelDebug, scope, format, args...)
}

func (l *Logger) Info(scope string, format string, args ...any) {
	l.log(LevelInfo, scope, format, args...)
}

func (l *Logger) Warn(scope string, format string, args ...any) {
	l.log(LevelWarn, scope, format, args...)
}

func (l *Logger) Error(scope string, format string, args ...any) {
	l.log(LevelError, scope, format, args...)
}

// Default ロガーへのショートカット

func Debug(scope string, format string, args ...any) {
	Default.Debug(scope, format, args...)
}

func Info(scope string, format string, args ...any) {
	Default.Info(scope, format, args...)
}

func Warn(scope string, format string, args ...any) {
	Default.Warn(scope, format, args...)
}

func Error(scope string, format string, args ...any) {
	Default.Error(scope, format, args...)
}
