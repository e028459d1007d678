package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"github.com/Mohammad-Mahdi82/GameDesk/gateway"
	"github.com/Mohammad-Mahdi82/GameDesk/models"
	"github.com/Mohammad-Mahdi82/GameDesk/scheduler"
	"github.com/Mohammad-Mahdi82/GameDesk/store"
)

var pageOrder = []string{"devices", "sessions", "history", "profile"}

var pageHints = map[string]string{
	"devices":  " [TAB] Next View | [ENTER] New Session | [X] Disable Device | [A] Add Device | [R] Refresh | [ESC] Exit ",
	"sessions": " [TAB] Next View | [E] Extend | [S] Snacks | [C] Close | [R] Refresh | [ESC] Exit ",
	"history":  " [TAB] Next View | [R] Refresh | [ESC] Exit ",
	"profile":  " [TAB] Next View | [R] Refresh | [ESC] Exit ",
}

type console struct {
	ctx    context.Context
	app    *tview.Application
	gw     *gateway.Client
	sched  *scheduler.Scheduler
	store  *store.Store
	banner *Banner
	logger zerolog.Logger

	pages         *tview.Pages
	devicesTable  *tview.Table
	sessionsTable *tview.Table
	historyTable  *tview.Table
	profileView   *tview.TextView
	footer        *tview.TextView
	current       int
	overlay       string // name of the open modal page, "" when none

	mu         sync.Mutex
	categories []models.DeviceCategory
	devices    []models.Device
}

func newConsole(
	ctx context.Context,
	app *tview.Application,
	gw *gateway.Client,
	sched *scheduler.Scheduler,
	st *store.Store,
	banner *Banner,
	logger zerolog.Logger,
) *console {
	c := &console{
		ctx:    ctx,
		app:    app,
		gw:     gw,
		sched:  sched,
		store:  st,
		banner: banner,
		logger: logger.With().Str("component", "console").Logger(),
	}
	c.buildLayout()
	return c
}

func (c *console) buildLayout() {
	c.devicesTable = newSelectableTable()
	c.sessionsTable = newSelectableTable()
	c.historyTable = newSelectableTable()
	c.profileView = tview.NewTextView().SetDynamicColors(true)
	c.profileView.SetBorder(true).SetTitle(" Profile ")

	c.pages = tview.NewPages().
		AddPage("devices", c.devicesTable, true, true).
		AddPage("sessions", c.sessionsTable, true, false).
		AddPage("history", c.historyTable, true, false).
		AddPage("profile", c.profileView, true, false)

	c.footer = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetTextColor(tcell.ColorYellow).
		SetText(pageHints["devices"])

	root := tview.NewFlex().SetDirection(tview.FlexRow)
	c.banner.Attach(root)
	root.AddItem(c.pages, 0, 1, true).
		AddItem(c.footer, 1, 1, false)

	c.devicesTable.SetTitle(" Devices ").SetBorder(true)
	c.sessionsTable.SetTitle(" Open Sessions ").SetBorder(true)
	c.historyTable.SetTitle(" Closed Sessions ").SetBorder(true)

	c.devicesTable.SetSelectedFunc(func(row, col int) {
		if d, ok := c.deviceAt(row); ok {
			c.showAddSessionForm(d)
		}
	})

	c.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// While a form or confirm dialog is up, Esc closes it and every
		// other key belongs to the dialog.
		if c.overlay != "" {
			if event.Key() == tcell.KeyEscape {
				c.closeOverlay()
				return nil
			}
			return event
		}
		if event.Key() == tcell.KeyEscape {
			c.app.Stop()
			return nil
		}
		if event.Key() == tcell.KeyTab {
			c.nextPage()
			return nil
		}
		switch event.Rune() {
		case 'r', 'R':
			c.refreshCurrent()
			return nil
		}
		switch pageOrder[c.current] {
		case "devices":
			switch event.Rune() {
			case 'x', 'X':
				if d, ok := c.deviceAt(c.selectedRow(c.devicesTable)); ok {
					c.confirmDisableDevice(d)
				}
				return nil
			case 'a', 'A':
				c.showAddDeviceForm()
				return nil
			}
		case "sessions":
			sess, ok := c.sessionAt(c.selectedRow(c.sessionsTable))
			if !ok {
				break
			}
			switch event.Rune() {
			case 'e', 'E':
				c.showExtendForm(sess)
				return nil
			case 's', 'S':
				c.showSnacksForm(sess)
				return nil
			case 'c', 'C':
				c.confirmCloseSession(sess)
				return nil
			}
		}
		return event
	})

	c.app.SetRoot(root, true)
}

func (c *console) run() error {
	c.refreshDevices()
	c.refreshSessions()
	return c.app.Run()
}

func newSelectableTable() *tview.Table {
	t := tview.NewTable().SetBorders(false).SetSelectable(true, false)
	t.SetSelectedStyle(tcell.StyleDefault.Background(tcell.ColorNone).Foreground(tcell.ColorGreen))
	return t
}

func (c *console) nextPage() {
	c.current = (c.current + 1) % len(pageOrder)
	name := pageOrder[c.current]
	c.pages.SwitchToPage(name)
	c.footer.SetText(pageHints[name])
	c.refreshCurrent()
}

func (c *console) refreshCurrent() {
	switch pageOrder[c.current] {
	case "devices":
		c.refreshDevices()
	case "sessions":
		c.refreshSessions()
	case "history":
		c.refreshHistory()
	case "profile":
		c.renderProfile()
	}
}

// selectedRow is safe to call from the UI thread only.
func (c *console) selectedRow(t *tview.Table) int {
	row, _ := t.GetSelection()
	return row
}

func (c *console) deviceAt(row int) (models.Device, bool) {
	cell := c.devicesTable.GetCell(row, 0)
	if cell == nil {
		return models.Device{}, false
	}
	d, ok := cell.GetReference().(models.Device)
	return d, ok
}

func (c *console) sessionAt(row int) (models.GamingSession, bool) {
	cell := c.sessionsTable.GetCell(row, 0)
	if cell == nil {
		return models.GamingSession{}, false
	}
	s, ok := cell.GetReference().(models.GamingSession)
	return s, ok
}

func (c *console) refreshDevices() {
	go func() {
		categories, err := c.gw.ListCategories(c.ctx)
		if err != nil {
			c.reportError("fetch device categories", err)
			return
		}
		devices, err := c.gw.ListDevices(c.ctx)
		if err != nil {
			c.reportError("fetch devices", err)
			return
		}

		// The old client rendered categories newest-first.
		for i, j := 0, len(categories)-1; i < j; i, j = i+1, j-1 {
			categories[i], categories[j] = categories[j], categories[i]
		}

		c.mu.Lock()
		c.categories = categories
		c.devices = devices
		c.mu.Unlock()

		c.app.QueueUpdateDraw(func() { c.renderDevices(categories, devices) })
	}()
}

func (c *console) renderDevices(categories []models.DeviceCategory, devices []models.Device) {
	c.devicesTable.Clear()
	row := 0
	for _, cat := range categories {
		c.devicesTable.SetCell(row, 0, tview.NewTableCell(cat.CategoryName).
			SetTextColor(tcell.ColorYellow).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
		row++
		for _, d := range devices {
			if d.CategoryID != cat.ID || d.Status != models.DeviceActive {
				continue
			}
			c.devicesTable.SetCell(row, 0, tview.NewTableCell("  "+d.DeviceName).
				SetTextColor(tcell.ColorGreen).
				SetReference(d))
			row++
		}
	}
}

func (c *console) refreshSessions() {
	go func() {
		sessions, err := c.gw.ListOpenSessions(c.ctx)
		if err != nil {
			c.reportError("fetch open sessions", err)
			return
		}
		c.app.QueueUpdateDraw(func() { renderSessions(c.sessionsTable, sessions) })
	}()
}

func (c *console) refreshHistory() {
	go func() {
		sessions, err := c.gw.ListClosedSessions(c.ctx)
		if err != nil {
			c.reportError("fetch closed sessions", err)
			return
		}
		c.app.QueueUpdateDraw(func() { renderSessions(c.historyTable, sessions) })
	}()
}

var sessionColumns = []string{"STATUS", "CUSTOMER", "DEVICE", "DATE", "IN", "OUT", "SNACKS", "WATER", "PRICE"}

func renderSessions(table *tview.Table, sessions []models.GamingSession) {
	table.Clear()
	for col, name := range sessionColumns {
		table.SetCell(0, col, tview.NewTableCell(name).
			SetTextColor(tcell.ColorYellow).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}

	for i, s := range sessions {
		color := tcell.ColorGreen
		switch s.Status {
		case models.StatusExtended:
			color = tcell.ColorOrange
		case models.StatusClose:
			color = tcell.ColorGray
		}

		cells := []string{
			string(s.Status), s.CustomerName, s.Device.DeviceName, s.Date,
			s.InTime, s.OutTime,
			fmt.Sprintf("%d", s.Snacks), fmt.Sprintf("%d", s.WaterBottles),
			"Rs." + s.SessionPrice.StringFixed(0),
		}
		for col, text := range cells {
			cell := tview.NewTableCell(text).SetTextColor(color)
			if col == 0 {
				cell.SetReference(s)
			}
			table.SetCell(i+1, col, cell)
		}
	}
}

func (c *console) renderProfile() {
	go func() {
		profile, err := c.store.Profile()
		if err != nil {
			c.logger.Error().Err(err).Msg("load profile")
			return
		}
		stats, err := c.store.Stats()
		if err != nil {
			c.logger.Error().Err(err).Msg("load stats")
			return
		}
		recent, err := c.store.RecentSessions(10)
		if err != nil {
			c.logger.Error().Err(err).Msg("load recent sessions")
			return
		}
		pending := c.sched.Pending()

		c.app.QueueUpdateDraw(func() {
			text := fmt.Sprintf(
				"[yellow]%s[-]  <%s>\nJoined %s\n\nSessions opened: %d\nTotal sales:     Rs.%s\n\nPending alerts:  %d\n\n[yellow]Recent sessions[-]\n",
				profile.Name, profile.Email, profile.JoinedDate.Format("02 January 2006"),
				stats.TotalSessions, stats.TotalSales.StringFixed(0), len(pending),
			)
			for _, r := range recent {
				text += fmt.Sprintf("  %s  %s  Rs.%s\n", r.CustomerName, r.DeviceName, r.Price.StringFixed(0))
			}
			c.profileView.SetText(text)
		})
	}()
}

// reportError turns a gateway failure into the right banner message.
// May be called from any goroutine.
func (c *console) reportError(what string, err error) {
	c.logger.Warn().Err(err).Msg(what)

	var ge *gateway.Error
	if !errors.As(err, &ge) {
		c.banner.Show(scheduler.SeverityError, "Error", fmt.Sprintf("Failed to %s.", what))
		return
	}

	switch ge.Kind {
	case gateway.KindConflict:
		c.banner.Show(scheduler.SeverityError, "Device In Use",
			"The device already hosts an open session.")
	case gateway.KindNetwork:
		c.banner.Show(scheduler.SeverityError, "Network Error",
			fmt.Sprintf("Could not reach the backend to %s.", what))
	default:
		c.banner.Show(scheduler.SeverityError, "Request Failed",
			fmt.Sprintf("The backend refused to %s.", what))
	}
}
