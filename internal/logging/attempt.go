package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/JakeFAU/crawler-notifier/internal/crawler"
)

const (
	// AttemptLogGenerations is the number of rotated attempt logs kept per job.
	AttemptLogGenerations = 60
	attemptLogMaxSizeMB   = 512
)

// AttemptLog is a crawler.LogSink writing one JSON object per HTTP attempt.
// Each object carries exactly req_headers, req_body, res_headers, res_body and error.
type AttemptLog struct {
	logger *zap.Logger
	file   *lumberjack.Logger
}

// AttemptLogPath returns the log file used by jobName under dir.
func AttemptLogPath(dir, jobName string) string {
	return filepath.Join(dir, "crawler", jobName, "log.log")
}

// NewAttemptLog opens the rotating attempt log for jobName. Files are rotated
// once per day (the first run of a new day in now's location rotates the
// previous day's file) and AttemptLogGenerations backups are retained.
func NewAttemptLog(dir, jobName string, now time.Time) (*AttemptLog, error) {
	path := AttemptLogPath(dir, jobName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create attempt log dir: %w", err)
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    attemptLogMaxSizeMB,
		MaxBackups: AttemptLogGenerations,
		LocalTime:  true,
	}
	if stale(path, now) {
		if err := file.Rotate(); err != nil {
			return nil, fmt.Errorf("rotate attempt log: %w", err)
		}
	}
	l := NewAttemptLogWriter(zapcore.AddSync(file))
	l.file = file
	return l, nil
}

// NewAttemptLogWriter builds an AttemptLog over an arbitrary writer.
func NewAttemptLogWriter(w zapcore.WriteSyncer) *AttemptLog {
	encCfg := zapcore.EncoderConfig{
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, zapcore.DebugLevel)
	return &AttemptLog{logger: zap.New(core)}
}

// Record writes rec as a single JSON line.
func (l *AttemptLog) Record(rec crawler.AttemptRecord) {
	l.logger.Info("",
		zap.String("req_headers", rec.ReqHeaders),
		zap.String("req_body", rec.ReqBody),
		zap.String("res_headers", rec.ResHeaders),
		zap.String("res_body", rec.ResBody),
		zap.String("error", rec.Error),
	)
}

// Close flushes and closes the underlying file.
func (l *AttemptLog) Close() error {
	_ = l.logger.Sync()
	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close attempt log: %w", err)
	}
	return nil
}

func stale(path string, now time.Time) bool {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return false
	}
	y1, m1, d1 := info.ModTime().In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}
