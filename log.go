package main

import (
	"fmt"
	"log"
	"os"
)

// Logger mirrors everything to stdout and, when the log directory
// is writable, to log/latest.txt
type Logger struct {
	f *os.File
}

func newLogger() *Logger {
	os.Mkdir("log", 0775)
	os.Rename("log/latest.txt", "log/last.txt")

	f, err := os.OpenFile("log/latest.txt", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		f = nil
	}

	return &Logger{f: f}
}

func (l *Logger) Write(p []byte) (int, error) {
	fmt.Print(string(p))

	if l.f != nil {
		l.f.Write(p)
	}

	return len(p), nil
}

func (l *Logger) Close() {
	if l.f != nil {
		l.f.Close()
	}
}

// InitLogger routes the stdlib log output through the file-backed
// logger; main calls this once before anything logs
func InitLogger() *Logger {
	l := newLogger()
	log.SetOutput(l)

	return l
}
