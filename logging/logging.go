// Package logging carries per-stage log entries out of a mapping run.
package logging

import (
	"fmt"
	"time"

	"github.com/medatechnology/goutil/simplelog"
)

// Stage names emitted by the mapper.
const (
	StageEmbed      = "embed"
	StageSimilarity = "similarity"
	StageProfile    = "profile"
	StageAggregate  = "aggregate"
)

// Entry describes one completed stage.
type Entry struct {
	Timestamp time.Time
	Stage     string
	Provider  string
	Rows      int
	Cols      int
	Duration  time.Duration
	Warnings  int
	Err       error
}

// Logger is a function that receives log entries
type Logger func(entry Entry)

// Discard drops every entry.
func Discard(Entry) {}

// Message renders an entry as a single line.
func (e Entry) Message() string {
	msg := fmt.Sprintf("%s %dx%d in %s", e.Stage, e.Rows, e.Cols, e.Duration)
	if e.Provider != "" {
		msg += " via " + e.Provider
	}
	if e.Warnings > 0 {
		msg += fmt.Sprintf(" (%d warnings)", e.Warnings)
	}
	return msg
}

// Simplelog logs entries through goutil/simplelog.
func Simplelog(debugLevel int) Logger {
	return func(entry Entry) {
		if entry.Err != nil {
			simplelog.LogErr(entry.Err, "semanticmap "+entry.Stage+" failed")
			return
		}
		simplelog.LogInfoStr("semanticmap", debugLevel, entry.Message())
	}
}

// Func adapts a plain log function, e.g. log.Println or t.Log.
func Func(logFn func(msg string)) Logger {
	return func(entry Entry) {
		if entry.Err != nil {
			logFn(entry.Stage + " failed: " + entry.Err.Error())
			return
		}
		logFn(entry.Message())
	}
}
