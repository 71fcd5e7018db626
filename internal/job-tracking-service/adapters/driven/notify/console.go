package notify

import (
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"mechanic-setu/internal/job-tracking-service/core/ports/driven"
)

// Console renders toasts and the connection badge on the terminal, the
// client's stand-in for the web app's toast layer.
type Console struct {
	mu  sync.Mutex
	out io.Writer

	success *color.Color
	failure *color.Color
	info    *color.Color
	badge   *color.Color
}

func NewConsole() *Console {
	return NewConsoleWriter(os.Stdout)
}

func NewConsoleWriter(w io.Writer) *Console {
	return &Console{
		out:     w,
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
		info:    color.New(color.FgCyan),
		badge:   color.New(color.FgHiBlack),
	}
}

func (c *Console) Success(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.success.Fprintf(c.out, "✔ %s\n", msg)
}

func (c *Console) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failure.Fprintf(c.out, "✖ %s\n", msg)
}

func (c *Console) Info(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info.Fprintf(c.out, "· %s\n", msg)
}

func (c *Console) ConnStatus(status driven.ConnStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch status {
	case driven.ConnConnected:
		c.success.Fprintln(c.out, "[connected]")
	case driven.ConnConnecting:
		c.badge.Fprintln(c.out, "[connecting...]")
	case driven.ConnError:
		c.failure.Fprintln(c.out, "[connection error]")
	default:
		c.badge.Fprintln(c.out, "[disconnected]")
	}
}

// Navigate prints the screen switch; the command loop reacts to routes
// through the tracking service itself.
func (c *Console) Navigate(route string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.badge.Fprintf(c.out, "→ %s\n", route)
}
