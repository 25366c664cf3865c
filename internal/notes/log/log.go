package log

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	contextx "github.com/blueplan/notes-go/internal/notes/context"
)

// Level 日志级别
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
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel 解析日志级别，未知值回落到 INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger 日志记录器
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	config *LogConfig
	level  Level
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // "text" or "json"
}

// LogEntry 日志条目
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// Field 日志字段（键值对）
type Field struct {
	Key   string
	Value interface{}
}

// New 创建写入 w 的日志记录器
func New(w io.Writer, config *LogConfig) *Logger {
	if config == nil {
		config = &LogConfig{Level: "INFO", Format: "text"}
	}
	return &Logger{
		out:    w,
		config: config,
		level:  ParseLevel(config.Level),
	}
}

// NewWithFileRotation 创建按日期轮转写文件的日志记录器
func NewWithFileRotation(config *LogConfig, filename string) (*Logger, error) {
	w := newDateRotateWriter(filename)
	// 立即打开一次，尽早暴露权限/路径错误
	if err := w.rotate(time.Now()); err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	l := New(w, config)
	l.closer = w
	return l, nil
}

// Nop 丢弃所有输出，测试用
func Nop() *Logger {
	return New(io.Discard, &LogConfig{Level: "ERROR", Format: "text"})
}

// Info 记录信息日志
func (l *Logger) Info(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, LevelInfo, message, fields...)
}

// Error 记录错误日志
func (l *Logger) Error(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, LevelError, message, fields...)
}

// Warn 记录警告日志
func (l *Logger) Warn(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, LevelWarn, message, fields...)
}

// Debug 记录调试日志
func (l *Logger) Debug(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, LevelDebug, message, fields...)
}

// Enabled 报告该级别是否会输出
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

func (l *Logger) log(ctx context.Context, level Level, message string, fields ...Field) {
	if !l.Enabled(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   message,
	}
	if id, ok := contextx.GetRequestID(ctx); ok {
		entry.RequestID = id
	}
	if len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(fields))
		for _, field := range fields {
			if err, ok := field.Value.(error); ok {
				entry.Fields[field.Key] = err.Error()
				continue
			}
			entry.Fields[field.Key] = field.Value
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var line string
	if l.config.Format == "json" {
		b, err := json.Marshal(entry)
		if err != nil {
			line = fmt.Sprintf("日志序列化失败: %v", err)
		} else {
			line = string(b)
		}
	} else {
		line = formatTextLog(entry)
	}
	_, _ = io.WriteString(l.out, line+"\n")
}

// formatTextLog 格式化文本日志，字段按键排序保证输出稳定
func formatTextLog(entry LogEntry) string {
	var b strings.Builder
	b.WriteString(entry.Timestamp.Format("2006-01-02 15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(entry.Level)
	b.WriteString("] ")
	if entry.RequestID != "" {
		fmt.Fprintf(&b, "[%s] ", entry.RequestID)
	}
	b.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
		}
	}
	return b.String()
}

// KV 创建键值对
func KV(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// SetConfig 设置日志配置
func (l *Logger) SetConfig(config *LogConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config = config
	l.level = ParseLevel(config.Level)
}

// GetConfig 获取日志配置
func (l *Logger) GetConfig() *LogConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.config
}

// Close 关闭底层文件（如有）
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Writer 以指定级别把每次写入作为一条日志，供 gin 等库的输出重定向
func (l *Logger) Writer(level Level) io.Writer {
	return &levelWriter{logger: l, level: level}
}

type levelWriter struct {
	logger *Logger
	level  Level
}

func (w *levelWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg != "" {
		w.logger.log(context.Background(), w.level, msg)
	}
	return len(p), nil
}

// dateRotateWriter 日期轮转写入器
type dateRotateWriter struct {
	filename string
	file     *os.File
	lastDate string
	mu       sync.Mutex
}

// newDateRotateWriter 创建日期轮转写入器
func newDateRotateWriter(filename string) *dateRotateWriter {
	return &dateRotateWriter{
		filename: filename,
	}
}

// Write 实现io.Writer接口
func (drw *dateRotateWriter) Write(p []byte) (n int, err error) {
	drw.mu.Lock()
	defer drw.mu.Unlock()

	if err := drw.rotateLocked(time.Now()); err != nil {
		return 0, err
	}
	return drw.file.Write(p)
}

func (drw *dateRotateWriter) rotate(now time.Time) error {
	drw.mu.Lock()
	defer drw.mu.Unlock()
	return drw.rotateLocked(now)
}

func (drw *dateRotateWriter) rotateLocked(now time.Time) error {
	currentDate := now.Format("2006-01-02")
	if drw.lastDate == currentDate && drw.file != nil {
		return nil
	}

	if drw.file != nil {
		drw.file.Close()
	}

	newFilename := fmt.Sprintf("%s.%s", drw.filename, currentDate)
	f, err := os.OpenFile(newFilename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		drw.file = nil
		return err
	}
	drw.file = f
	drw.lastDate = currentDate
	return nil
}

// Close 关闭写入器
func (drw *dateRotateWriter) Close() error {
	drw.mu.Lock()
	defer drw.mu.Unlock()

	if drw.file != nil {
		err := drw.file.Close()
		drw.file = nil
		return err
	}
	return nil
}
