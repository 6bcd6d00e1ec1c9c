package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvLogLevel overrides the configured level when set.
const EnvLogLevel = "DOGBREEDS_LOG"

// InitLogger installs a LineHandler on the global apex logger writing to w.
// The level comes from DOGBREEDS_LOG when set, else from level, else "error".
func InitLogger(w io.Writer, level string) error {
	if env := os.Getenv(EnvLogLevel); env != "" {
		level = env
	}
	if level == "" {
		level = "error"
	}

	parsed, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	log.SetHandler(NewLineHandler(w))
	log.SetLevel(parsed)
	return nil
}

// LineHandler writes one line per entry: timestamp, level initial, message,
// then the entry fields as sorted key=value pairs.
type LineHandler struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func NewLineHandler(w io.Writer) *LineHandler {
	return &LineHandler{w: w, now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *LineHandler) HandleLog(e *log.Entry) error {
	var b strings.Builder

	timestamp := h.now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)

	names := e.Fields.Names()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.w, b.String())
	return err
}
