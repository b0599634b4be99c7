// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package logger

// This file adorns the logxi package with the host name and component
// name that every scheduler log line carries, the same way the studio
// runner's pkg/studio/log.go wraps logxi for its own components.

import (
	"os"
	"sync"

	logxi "github.com/karlmutch/logxi/v1"
)

var hostName string

func init() {
	hostName, _ = os.Hostname()
}

// Logger encapsulates a logxi logger and the mutex needed to serialize
// writes from goroutines that share one component logger.
type Logger struct {
	log logxi.Logger
	sync.Mutex
}

// New returns a logger labelled with component, e.g. "coordinator" or
// "wire".
func New(component string) (l *Logger) {
	logxi.DisableCallstack()

	return &Logger{
		log: logxi.New(component),
	}
}

func (l *Logger) withHost(args []interface{}) []interface{} {
	allArgs := append([]interface{}{}, args...)
	return append(allArgs, "host", hostName)
}

func (l *Logger) Trace(msg string, args ...interface{}) {
	l.Lock()
	defer l.Unlock()
	l.log.Trace(msg, l.withHost(args)...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.Lock()
	defer l.Unlock()
	l.log.Debug(msg, l.withHost(args)...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.Lock()
	defer l.Unlock()
	l.log.Info(msg, l.withHost(args)...)
}

func (l *Logger) Warn(msg string, args ...interface{}) error {
	l.Lock()
	defer l.Unlock()
	return l.log.Warn(msg, l.withHost(args)...)
}

func (l *Logger) Error(msg string, args ...interface{}) error {
	l.Lock()
	defer l.Unlock()
	return l.log.Error(msg, l.withHost(args)...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.Lock()
	defer l.Unlock()
	l.log.Fatal(msg, l.withHost(args)...)
}
