// Package output renders log entries and delivers them to stdout or a file.
package output

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	cliErrors "gcloud-logs/internal/errors"
	intlog "gcloud-logs/internal/logging"
	"gcloud-logs/internal/models"
)

// Formatter renders one entry as a single output line (without newline).
type Formatter interface {
	Format(entry *models.Entry) (string, error)
}

// displayTimeLayout matches the timestamp shape of the API JSON form, which
// is what the tool has always shown between the brackets.
const displayTimeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// LineFormatter renders entries as colored human-readable lines:
//
//	instance [timestamp] (SEVERITY): payload
type LineFormatter struct {
	instanceStyle  lipgloss.Style
	timestampStyle lipgloss.Style
	severityStyle  lipgloss.Style
	color          bool
}

// NewLineFormatter creates a line formatter. With color disabled the styles
// are pass-through, which is what files and pipes get.
func NewLineFormatter(color bool) *LineFormatter {
	f := &LineFormatter{color: color}
	if color {
		f.instanceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))  // bright green
		f.timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // bright cyan
		f.severityStyle = lipgloss.NewStyle().Bold(true)
	}
	return f
}

// Format implements Formatter.
func (f *LineFormatter) Format(entry *models.Entry) (string, error) {
	instance := entry.InstanceID()
	if instance == "" {
		instance = "-"
	}
	timestamp := entry.Timestamp.Format(displayTimeLayout)
	severity := entry.Severity
	if severity == "" {
		severity = "DEFAULT"
	}

	if !f.color {
		return fmt.Sprintf("%s [%s] (%s): %s", instance, timestamp, severity, entry.PayloadString()), nil
	}

	return fmt.Sprintf("%s %s %s %s",
		f.instanceStyle.Render(instance),
		f.timestampStyle.Render("["+timestamp+"]"),
		f.severityStyle.Render("("+severity+"):"),
		entry.PayloadString(),
	), nil
}

// APIFormatter renders entries as their API JSON representation, one object
// per line. Its output is what the replay command reads back.
type APIFormatter struct{}

// NewAPIFormatter creates an API formatter.
func NewAPIFormatter() *APIFormatter {
	return &APIFormatter{}
}

// Format implements Formatter.
func (f *APIFormatter) Format(entry *models.Entry) (string, error) {
	data, err := entry.ToJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Printer writes formatted entries to a destination and counts them. It is
// the sink both the one-shot fetch and the tailer emit into.
type Printer struct {
	w         io.Writer
	closer    io.Closer
	path      string
	formatter Formatter
	logger    *zap.Logger
	count     atomic.Int64
}

// NewPrinter creates a printer for dest. An empty dest means stdout;
// anything else is created (truncated) as a file.
func NewPrinter(dest string, formatter Formatter, logger *zap.Logger) (*Printer, error) {
	if logger == nil {
		logger = intlog.L()
	}

	p := &Printer{
		formatter: formatter,
		logger:    logger.With(zap.String("component", "printer")),
	}

	if dest == "" {
		p.w = os.Stdout
		p.path = "stdout"
		return p, nil
	}

	file, err := os.Create(dest)
	if err != nil {
		return nil, cliErrors.NewOutputWriteError(dest, err)
	}
	p.w = file
	p.closer = file
	p.path = dest
	return p, nil
}

// StdoutIsTerminal reports whether stdout is attached to a terminal, which
// decides whether line output gets color.
func StdoutIsTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Emit formats and writes one entry.
func (p *Printer) Emit(entry *models.Entry) error {
	line, err := p.formatter.Format(entry)
	if err != nil {
		return cliErrors.NewOutputWriteError(p.path, err)
	}
	if _, err := fmt.Fprintln(p.w, line); err != nil {
		return cliErrors.NewOutputWriteError(p.path, err)
	}
	p.count.Add(1)
	return nil
}

// Count returns the number of entries emitted so far.
func (p *Printer) Count() int64 {
	return p.count.Load()
}

// Close closes the destination file, if any. Closing twice is fine.
func (p *Printer) Close() error {
	if p.closer == nil {
		return nil
	}
	closer := p.closer
	p.closer = nil
	if err := closer.Close(); err != nil {
		p.logger.Error("output_close_error", intlog.Path(p.path), zap.Error(err))
		return cliErrors.NewOutputWriteError(p.path, err)
	}
	return nil
}
