// Package alert is the process-wide toast presenter.
package alert

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Severity string

const (
	Success Severity = "success"
	Info    Severity = "info"
	Error   Severity = "error"
)

type Notifier interface {
	Notify(severity Severity, text string)
}

type Alert struct {
	Severity Severity  `json:"severity"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// Feed keeps the most recent alerts for the view layer to poll.
type Feed struct {
	mu    sync.Mutex
	items []Alert
	size  int
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 50
	}
	return &Feed{size: size}
}

func (f *Feed) Notify(severity Severity, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, Alert{Severity: severity, Text: text, At: time.Now()})
	if over := len(f.items) - f.size; over > 0 {
		f.items = append(f.items[:0], f.items[over:]...)
	}
}

// Recent returns the buffered alerts, oldest first.
func (f *Feed) Recent() []Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Alert, len(f.items))
	copy(out, f.items)
	return out
}

// Log writes alerts to the structured log.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(severity Severity, text string) {
	l.logger.Info("alert", zap.String("severity", string(severity)), zap.String("text", text))
}

// Multi fans one alert out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(severity Severity, text string) {
	for _, n := range m {
		n.Notify(severity, text)
	}
}
