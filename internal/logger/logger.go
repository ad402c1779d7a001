// Package logger is the bracketed-tag, leveled logger grounded on the
// teacher's internal/logger: console output always, with an optional
// async GORM sink for non-debug levels when a database is attached.
package logger

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"
)

type Level string

const (
	DEBUG Level = "DEBUG"
	INFO  Level = "INFO"
	WARN  Level = "WARN"
	ERROR Level = "ERROR"
)

// Record is the row persisted to the database sink, mirroring the
// teacher's ad hoc eventData map with a named model instead.
type Record struct {
	ID        uint `gorm:"primaryKey"`
	Timestamp time.Time
	Level     string
	Service   string
	Message   string
	Fields    string
}

type Logger struct {
	db          *gorm.DB
	service     string
	enableDB    bool
	enableDebug bool
}

// New builds a console-only logger at the given level, for contexts
// (the REPL) that have no database attached.
func New(level string) *Logger {
	return &Logger{service: "lispirito", enableDebug: level == string(DEBUG)}
}

// NewWithDB builds a logger that also writes every non-debug entry to db
// as a Record, asynchronously. Both entry points in cmd/ use New.
func NewWithDB(service string, db *gorm.DB, level string) *Logger {
	return &Logger{db: db, service: service, enableDB: db != nil, enableDebug: level == string(DEBUG)}
}

func (l *Logger) Debug(message string, keyvals ...interface{}) {
	if !l.enableDebug {
		return
	}
	l.log(DEBUG, message, keyvals...)
}

func (l *Logger) Info(message string, keyvals ...interface{}) {
	l.log(INFO, message, keyvals...)
}

func (l *Logger) Warn(message string, keyvals ...interface{}) {
	l.log(WARN, message, keyvals...)
}

func (l *Logger) Error(message string, err error, keyvals ...interface{}) {
	if err != nil {
		keyvals = append(keyvals, "error", err.Error())
	}
	l.log(ERROR, message, keyvals...)
}

func (l *Logger) log(level Level, message string, keyvals ...interface{}) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s][%s][%s] %s", timestamp, l.service, level, message)
	if len(keyvals) > 0 {
		line = fmt.Sprintf("%s %s", line, formatKeyVals(keyvals...))
	}
	log.SetOutput(os.Stderr)
	log.Println(line)

	if l.enableDB && level != DEBUG {
		go l.writeDB(level, message, keyvals...)
	}
}

func (l *Logger) writeDB(level Level, message string, keyvals ...interface{}) {
	if l.db == nil {
		return
	}
	rec := Record{
		Timestamp: time.Now(),
		Level:     string(level),
		Service:   l.service,
		Message:   message,
		Fields:    formatKeyVals(keyvals...),
	}
	_ = l.db.Create(&rec).Error
}

func formatKeyVals(keyvals ...interface{}) string {
	s := ""
	for i := 0; i+1 < len(keyvals); i += 2 {
		s += fmt.Sprintf("%v=%v ", keyvals[i], keyvals[i+1])
	}
	return s
}
