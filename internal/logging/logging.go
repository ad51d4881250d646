// Package logging wraps the standard library log package with the
// colour-tagged component loggers used throughout s4nat-dns-chord's main.go
// and node/node.go: every subsystem gets its own colour so a single-process
// log stream stays readable while several maintenance loops write to it
// concurrently.
package logging

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
)

// Logger is a component-scoped, colour-tagged logger. The zero value is not
// usable; construct with New.
type Logger struct {
	tag   string
	paint func(format string, a ...interface{}) string
	std   *log.Logger
}

var std = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)

// New returns a Logger for the named component, coloured per c.
func New(component string, c *color.Color) *Logger {
	return &Logger{tag: component, paint: c.SprintfFunc(), std: std}
}

// Component palette, one colour per subsystem, matching the teacher's
// system/systemcommsin/systemcommsout split but extended to every worker
// named in §5.
var (
	Ring        = New("ring", color.New(color.FgCyan))
	Transport   = New("transport", color.New(color.FgYellow))
	Stabilize   = New("stabilize", color.New(color.FgGreen))
	FixFingers  = New("fix-fingers", color.New(color.FgBlue))
	CheckPred   = New("check-predecessor", color.New(color.FgMagenta))
	Store       = New("store", color.New(color.FgHiGreen))
	CLI         = New("cli", color.New(color.FgHiCyan))
	Lifecycle   = New("lifecycle", color.New(color.FgHiYellow))
)

func (l *Logger) Printf(format string, a ...interface{}) {
	l.std.Print(l.paint("[%s] ", l.tag) + l.paint(format, a...))
}

func (l *Logger) Println(a ...interface{}) {
	l.std.Print(l.paint("[%s] ", l.tag) + fmt.Sprintln(a...))
}
