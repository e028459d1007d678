package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Mohammad-Mahdi82/GameDesk/scheduler"
)

const bannerVisible = 5 * time.Second

// Banner is the in-app alert sink: a one-line strip above the main view.
// A newer banner replaces an older one immediately; each auto-hides after
// five seconds and can be dismissed with a key.
type Banner struct {
	app  *tview.Application
	view *tview.TextView
	row  *tview.Flex

	mu        sync.Mutex
	text      string
	color     tcell.Color
	shown     bool
	hideTimer *time.Timer
}

func NewBanner(app *tview.Application) *Banner {
	view := tview.NewTextView().SetTextAlign(tview.AlignCenter)
	view.SetBackgroundColor(tcell.ColorDarkSlateGray)
	return &Banner{app: app, view: view}
}

// Attach gives the banner its row in the root layout. The row starts at
// height zero and grows to one line while a banner is visible.
func (b *Banner) Attach(root *tview.Flex) {
	b.row = root
	root.AddItem(b.view, 0, 0, false)
}

// Deliver implements scheduler.Sink.
func (b *Banner) Deliver(a scheduler.Alert) {
	b.Show(a.Severity, a.Title, a.Body)
}

func (b *Banner) Show(sev scheduler.Severity, title, body string) {
	color := tcell.ColorGreen
	switch sev {
	case scheduler.SeverityWarning:
		color = tcell.ColorYellow
	case scheduler.SeverityError:
		color = tcell.ColorRed
	}

	b.mu.Lock()
	b.text = fmt.Sprintf(" %s - %s ", title, body)
	b.color = color
	b.shown = true
	if b.hideTimer != nil {
		b.hideTimer.Stop()
	}
	b.hideTimer = time.AfterFunc(bannerVisible, b.Dismiss)
	b.mu.Unlock()

	// Queued from a fresh goroutine: Deliver may run on a timer goroutine
	// or on the UI thread itself, and QueueUpdateDraw blocks either way.
	go b.app.QueueUpdateDraw(b.render)
}

// Dismiss hides the current banner, if any.
func (b *Banner) Dismiss() {
	b.mu.Lock()
	b.shown = false
	b.mu.Unlock()
	go b.app.QueueUpdateDraw(b.render)
}

func (b *Banner) render() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.row == nil {
		return
	}
	if b.shown {
		b.view.SetText(b.text).SetTextColor(b.color)
		b.row.ResizeItem(b.view, 1, 0)
	} else {
		b.row.ResizeItem(b.view, 0, 0)
	}
}
