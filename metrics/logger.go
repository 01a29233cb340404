package metrics

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	humanize "github.com/dustin/go-humanize"
)

type Logger interface {
	Log(info *MetricsInfo)
}

type StdoutLogger struct{}

func NewStdoutLogger() *StdoutLogger {
	return &StdoutLogger{}
}

func (l *StdoutLogger) Log(info *MetricsInfo) {
	infoStr, err := info.ToJSON()
	if err == nil {
		log.Print(infoStr)
	} else {
		log.Printf("StdoutLogger: error: %v", err)
	}
}

const (
	defaultQueueSize      = 2000
	defaultLogWriters     = 2
	defaultMaxLogFileSize = 1024 * 1024 * 1024
	defaultMaxLogFiles    = 10
)

// FileLogger writes one JSON document per line into LogDir. Each writer
// goroutine owns a file named metrics<writer>.log which is rotated to
// metrics<writer>.log.<n> once it reaches MaxLogFileSize. At most
// MaxLogFiles rotated files are kept per writer, the oldest is overwritten.
type FileLogger struct {
	MetricsQueue   chan *MetricsInfo
	LogDir         string
	MaxLogFileSize int64
	MaxLogFiles    int
	Verbose        bool

	wg sync.WaitGroup
}

func NewFileLogger(logDir string, maxLogFileSize int64, maxLogFiles int, verbose bool) *FileLogger {
	if maxLogFileSize <= 0 {
		maxLogFileSize = defaultMaxLogFileSize
	}
	if maxLogFiles <= 0 {
		maxLogFiles = defaultMaxLogFiles
	}
	logger := &FileLogger{
		MetricsQueue:   make(chan *MetricsInfo, defaultQueueSize),
		LogDir:         logDir,
		MaxLogFileSize: maxLogFileSize,
		MaxLogFiles:    maxLogFiles,
		Verbose:        verbose,
	}

	for i := 0; i < defaultLogWriters; i++ {
		logger.wg.Add(1)
		go logger.startLogWriter(i)
	}

	return logger
}

func (l *FileLogger) Log(info *MetricsInfo) {
	l.MetricsQueue <- info
}

// Close drains the queue and waits for the writers to finish.
func (l *FileLogger) Close() {
	close(l.MetricsQueue)
	l.wg.Wait()
}

func (l *FileLogger) logFilePath(idx int) string {
	return filepath.Join(l.LogDir, fmt.Sprintf("metrics%d.log", idx))
}

func (l *FileLogger) startLogWriter(idx int) {
	defer l.wg.Done()

	f, err := l.openLogFile(idx)
	if err != nil {
		log.Printf("FileLogger%d: log open error: %v", idx, err)
	}

	for info := range l.MetricsQueue {
		infoStr, err := info.ToJSON()
		if err != nil {
			log.Printf("FileLogger%d: info.ToJSON() error: %v", idx, err)
			continue
		}

		if f != nil && l.needsRotation(f, idx) {
			f.Close()
			l.rotate(idx)
			f = nil
		}
		if f == nil {
			f, err = l.openLogFile(idx)
			if err != nil {
				log.Printf("FileLogger%d: log open error: %v", idx, err)
				continue
			}
		}

		if _, err := f.WriteString(infoStr); err != nil {
			log.Printf("FileLogger%d: write error: %v", idx, err)
			continue
		}
		f.Sync()
	}

	if f != nil {
		f.Close()
	}
}

func (l *FileLogger) openLogFile(idx int) (*os.File, error) {
	return os.OpenFile(l.logFilePath(idx), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func (l *FileLogger) needsRotation(f *os.File, idx int) bool {
	info, err := f.Stat()
	if err != nil {
		log.Printf("FileLogger%d: log rotation error: %v", idx, err)
		return false
	}
	return info.Size() >= l.MaxLogFileSize
}

func (l *FileLogger) rotate(idx int) {
	currPath := l.logFilePath(idx)
	target := l.rotationTarget(idx)
	if len(target) == 0 {
		return
	}

	if err := os.Rename(currPath, target); err != nil {
		log.Printf("FileLogger%d: log rotation error: %v", idx, err)
		return
	}
	if l.Verbose {
		log.Printf("FileLogger%d: log file rotated after %s: %v", idx, humanize.Bytes(uint64(l.MaxLogFileSize)), target)
	}
}

// rotationTarget returns the first free rotation slot, or the oldest
// rotated file once all MaxLogFiles slots are taken.
func (l *FileLogger) rotationTarget(idx int) string {
	for i := 0; i < l.MaxLogFiles; i++ {
		candidate := fmt.Sprintf("%s.%d", l.logFilePath(idx), i)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}

	files, err := ioutil.ReadDir(l.LogDir)
	if err != nil {
		log.Printf("FileLogger%d: log rotation error: %v", idx, err)
		return ""
	}

	prefix := filepath.Base(l.logFilePath(idx)) + "."
	var oldest os.FileInfo
	oldestTime := time.Now()
	for _, file := range files {
		if !file.Mode().IsRegular() || !strings.HasPrefix(file.Name(), prefix) {
			continue
		}
		if file.ModTime().Before(oldestTime) {
			oldest = file
			oldestTime = file.ModTime()
		}
	}

	target := fmt.Sprintf("%s.%d", l.logFilePath(idx), 0)
	if oldest != nil {
		target = filepath.Join(l.LogDir, oldest.Name())
	}
	if l.Verbose {
		log.Printf("FileLogger%d: maximum number of log files reached, overwriting %s", idx, target)
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		log.Printf("FileLogger%d: log rotation error: %v", idx, err)
		return ""
	}
	return target
}
