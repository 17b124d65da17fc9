// Package logging provides NatShell's rotating file logger: a
// lumberjack-backed *log.Logger singleton with a JSON mode toggle and
// redaction at the logging boundary so sudo and API-key material never
// reaches a log line.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a rotating file writer. Every message passes through
// Redact before it reaches the underlying *log.Logger.
type Logger struct {
	mu       sync.Mutex
	out      *log.Logger
	file     *lumberjack.Logger
	jsonMode bool
	verbose  bool
}

var (
	global     *Logger
	globalOnce sync.Once
)

// Options configures Get.
type Options struct {
	Filename string // default ".natshell/natshell.log"
	JSONMode bool
	Verbose  bool
}

// Get returns the process-wide Logger singleton, constructing it on first
// use with opts. Subsequent calls update the mutable verbose/jsonMode
// flags without reopening the log file: construct once, always update.
func Get(opts Options) *Logger {
	globalOnce.Do(func() {
		if opts.Filename == "" {
			opts.Filename = ".natshell/natshell.log"
		}
		file := &lumberjack.Logger{
			Filename:   opts.Filename,
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		global = &Logger{
			out:  log.New(file, "", log.LstdFlags),
			file: file,
		}
	})
	global.mu.Lock()
	global.jsonMode = opts.JSONMode
	global.verbose = opts.Verbose
	global.mu.Unlock()
	return global
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	return l.file.Close()
}

type entry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

func (l *Logger) write(level, format string, args ...interface{}) {
	msg := Redact(fmt.Sprintf(format, args...))

	l.mu.Lock()
	jsonMode := l.jsonMode
	l.mu.Unlock()

	if jsonMode {
		b, err := json.Marshal(entry{Time: time.Now().UTC().Format(time.RFC3339), Level: level, Message: msg})
		if err == nil {
			l.out.Print(string(b))
			return
		}
	}
	l.out.Printf("[%s] %s", level, msg)
}

// Info logs a message unconditionally.
func (l *Logger) Info(format string, args ...interface{}) { l.write("INFO", format, args...) }

// Error logs a message unconditionally.
func (l *Logger) Error(format string, args ...interface{}) { l.write("ERROR", format, args...) }

// Debug logs a message only when --verbose was set.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.mu.Lock()
	verbose := l.verbose
	l.mu.Unlock()
	if !verbose {
		return
	}
	l.write("DEBUG", format, args...)
}

// redactionRules mirror the secret-shape families worth scrubbing from a
// log line. Sudo passwords never enter a log line in the first place (the
// tool runtime never logs command stdin), so this focuses on API keys,
// bearer tokens, and generic key=value secrets that might leak into a
// formatted message via %v/%s of an error or request dump.
var redactionRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sk-[a-zA-Z0-9_-]{10,}`),
	regexp.MustCompile(`(?i)Bearer\s+[a-zA-Z0-9._-]{10,}`),
	regexp.MustCompile(`(?i)((?:api[_-]?key|token|secret|password)\s*[:=]\s*)\S+`),
}

// Redact replaces recognizable secret shapes in s with "[REDACTED]",
// applied at the logging boundary so no caller needs to remember to scrub
// its own messages.
func Redact(s string) string {
	for _, re := range redactionRules {
		s = re.ReplaceAllStringFunc(s, func(match string) string {
			if loc := re.FindStringSubmatchIndex(match); len(loc) >= 4 && loc[2] >= 0 {
				return match[:loc[3]] + "[REDACTED]"
			}
			return "[REDACTED]"
		})
	}
	return s
}
