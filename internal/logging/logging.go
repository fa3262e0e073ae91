package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	encoderConfig = zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	output  = &switchSyncer{w: zapcore.AddSync(os.Stdout)}
	leveler = &levelSetter{
		defaultLevel: zap.InfoLevel,
		levelers:     make(map[string]zap.AtomicLevel),
	}
)

type Leveler interface {
	SetLevel(name string, level zapcore.Level)
	GetLevel(name string) zapcore.Level
	SetAll(level zapcore.Level)
}

type levelSetter struct {
	defaultLevel zapcore.Level
	levelers     map[string]zap.AtomicLevel
	mu           sync.RWMutex
}

var _ Leveler = (*levelSetter)(nil)

func GetLeveler() Leveler {
	return leveler
}

func (lw *levelSetter) SetLevel(name string, level zapcore.Level) {
	_ = lw.setLevel(name, level)
}

func (lw *levelSetter) GetLevel(name string) zapcore.Level {
	lw.mu.RLock()
	defer lw.mu.RUnlock()

	if l, ok := lw.levelers[name]; ok {
		return l.Level()
	}

	return lw.defaultLevel
}

// SetAll changes the level of every existing logger and of loggers created later.
func (lw *levelSetter) SetAll(level zapcore.Level) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	lw.defaultLevel = level
	for _, l := range lw.levelers {
		l.SetLevel(level)
	}
}

func (lw *levelSetter) register(name string) zap.AtomicLevel {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if l, ok := lw.levelers[name]; ok {
		return l
	}
	l := zap.NewAtomicLevelAt(lw.defaultLevel)
	lw.levelers[name] = l
	return l
}

func (lw *levelSetter) setLevel(name string, level zapcore.Level) zap.AtomicLevel {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if _, ok := lw.levelers[name]; !ok {
		lw.levelers[name] = zap.NewAtomicLevelAt(level)
	}

	lw.levelers[name].SetLevel(level)

	return lw.levelers[name]
}

// switchSyncer lets the process move log output after package level loggers
// have been built. The terminal UI owns stdout while a game is running.
type switchSyncer struct {
	mu sync.Mutex
	w  zapcore.WriteSyncer
	c  io.Closer
}

func (s *switchSyncer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchSyncer) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Sync()
}

func (s *switchSyncer) swap(w zapcore.WriteSyncer, c io.Closer) io.Closer {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.w.Sync()
	prev := s.c
	s.w = w
	s.c = c
	return prev
}

// SetOutput redirects every logger to w.
func SetOutput(w io.Writer) {
	if prev := output.swap(zapcore.AddSync(w), nil); prev != nil {
		_ = prev.Close()
	}
}

// SetOutputFile appends every logger's output to the file at path.
// An empty path or "stdout" restores standard output; "discard" drops logs.
func SetOutputFile(path string) error {
	switch path {
	case "", "stdout":
		SetOutput(os.Stdout)
		return nil
	case "stderr":
		SetOutput(os.Stderr)
		return nil
	case "discard":
		SetOutput(io.Discard)
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if prev := output.swap(zapcore.AddSync(f), f); prev != nil {
		_ = prev.Close()
	}
	return nil
}

// ParseLevel accepts zap level names, case insensitive.
func ParseLevel(s string) (zapcore.Level, error) {
	return zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
}

func New(name string) *zap.SugaredLogger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), output, leveler.register(name))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.PanicLevel)).Named(name).Sugar()
}
