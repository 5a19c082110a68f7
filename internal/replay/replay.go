// Package replay re-reads capture files written by --api output and pushes
// the decoded entries back through a sink. With follow enabled it keeps
// reading as another process appends, like tail -f on the capture.
package replay

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/nxadm/tail"
	"go.uber.org/zap"

	cliErrors "gcloud-logs/internal/errors"
	intlog "gcloud-logs/internal/logging"
	"gcloud-logs/internal/models"
)

// Sink receives decoded entries in file order.
type Sink interface {
	Emit(entry *models.Entry) error
}

// Reader reads a JSONL capture file.
type Reader struct {
	path   string
	follow bool
	logger *zap.Logger
}

// New creates a reader for the capture at path.
func New(path string, follow bool, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = intlog.L()
	}
	return &Reader{
		path:   path,
		follow: follow,
		logger: logger.With(zap.String("component", "replay"), intlog.Path(path)),
	}
}

// Read decodes the capture and emits each entry. Malformed lines are logged
// and skipped; a capture interleaved with other output should not abort the
// replay.
func (r *Reader) Read(ctx context.Context, sink Sink) error {
	if r.follow {
		return r.readFollow(ctx, sink)
	}
	return r.readBatch(ctx, sink)
}

// readBatch reads the entire capture once.
func (r *Reader) readBatch(ctx context.Context, sink Sink) error {
	file, err := os.Open(r.path)
	if err != nil {
		return cliErrors.NewReplayOpenError(r.path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// structured payloads can be long
	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lineNum++
		if err := r.emitLine(scanner.Text(), lineNum, sink); err != nil {
			return err
		}
	}

	return scanner.Err()
}

// readFollow keeps reading appended lines until ctx is cancelled.
func (r *Reader) readFollow(ctx context.Context, sink Sink) error {
	t, err := tail.TailFile(r.path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return cliErrors.NewReplayOpenError(r.path, err)
	}
	defer t.Stop()

	lineNum := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				r.logger.Warn("follow_read_error", zap.Error(line.Err))
				continue
			}
			lineNum++
			if err := r.emitLine(line.Text, lineNum, sink); err != nil {
				return err
			}
		}
	}
}

// emitLine decodes one capture line and forwards it. Blank and malformed
// lines are skipped.
func (r *Reader) emitLine(line string, lineNum int, sink Sink) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	entry, err := models.FromJSON([]byte(line))
	if err != nil {
		decodeErr := cliErrors.NewReplayDecodeError(lineNum, err.Error())
		r.logger.Warn("capture_line_skipped",
			intlog.ErrorCode(string(cliErrors.GetErrorCode(decodeErr))),
			zap.Int("line_number", lineNum),
		)
		return nil
	}

	return sink.Emit(entry)
}
