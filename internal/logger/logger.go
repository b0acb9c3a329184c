package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "request_id"
	LoggerKey    ctxKey = "logger"
	RunIDKey     ctxKey = "run_id"
	TraceIDKey   ctxKey = "trace_id"
)

// ServiceName is attached to every log line
const ServiceName = "trello-weekly-lists"

// Options configura o logger da aplicação
type Options struct {
	Level string
	JSON  bool
	// Dir, quando preenchido, recebe um arquivo diário além do stdout
	Dir    string
	Stdout io.Writer
	Now    func() time.Time
}

var disabled = zerolog.Nop()

// New builds the application logger. The returned closer releases the daily
// log file and is never nil.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var console io.Writer = stdout
	if !opts.JSON {
		console = zerolog.ConsoleWriter{
			Out:        stdout,
			TimeFormat: time.RFC3339,
		}
	}

	var closer io.Closer = nopCloser{}
	output := console
	if opts.Dir != "" {
		f, err := openDailyFile(opts.Dir, now())
		if err != nil {
			return zerolog.Logger{}, closer, err
		}
		closer = f
		output = zerolog.MultiLevelWriter(console, f)
	}

	l := zerolog.New(output).
		Level(lvl).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
	return l, closer, nil
}

// DailyFileName is the name of the log file written on day t
func DailyFileName(t time.Time) string {
	return fmt.Sprintf("trello_automation_%s.log", t.Format("20060102"))
}

func openDailyFile(dir string, t time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, DailyFileName(t)), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// WithContext stores l in ctx
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, &l)
}

// Get retorna logger do contexto ou um logger desabilitado
func Get(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &disabled
	}
	if l, ok := ctx.Value(LoggerKey).(*zerolog.Logger); ok {
		return l
	}
	return &disabled
}

// WithRequestID adiciona request_id ao logger e contexto
func WithRequestID(ctx context.Context, requestID string) context.Context {
	l := Get(ctx).With().Str("request_id", requestID).Logger()
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	ctx = context.WithValue(ctx, LoggerKey, &l)
	return ctx
}

// WithTraceID adiciona um trace ID para rastreamento distribuído
func WithTraceID(ctx context.Context, traceID string) context.Context {
	l := Get(ctx).With().Str("trace_id", traceID).Logger()
	ctx = context.WithValue(ctx, TraceIDKey, traceID)
	ctx = context.WithValue(ctx, LoggerKey, &l)
	return ctx
}

// WithRunID tags every line logged during one weekly run
func WithRunID(ctx context.Context, runID string) context.Context {
	l := Get(ctx).With().Str("run_id", runID).Logger()
	ctx = context.WithValue(ctx, RunIDKey, runID)
	ctx = context.WithValue(ctx, LoggerKey, &l)
	return ctx
}

// GetRequestID extrai request_id do contexto
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetRunID extrai run_id do contexto
func GetRunID(ctx context.Context) string {
	return stringValue(ctx, RunIDKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
