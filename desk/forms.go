package main

import (
	"fmt"
	"strconv"

	"github.com/rivo/tview"
	"github.com/shopspring/decimal"

	"github.com/Mohammad-Mahdi82/GameDesk/clock"
	"github.com/Mohammad-Mahdi82/GameDesk/models"
	"github.com/Mohammad-Mahdi82/GameDesk/scheduler"
)

const overlayPage = "overlay"

func (c *console) showOverlay(p tview.Primitive) {
	c.overlay = overlayPage
	c.pages.AddPage(overlayPage, p, true, true)
	c.app.SetFocus(p)
}

func (c *console) closeOverlay() {
	if c.overlay == "" {
		return
	}
	c.pages.RemovePage(c.overlay)
	c.overlay = ""
}

// closeOverlayAsync is for completion handlers running off the UI thread.
func (c *console) closeOverlayAsync() {
	c.app.QueueUpdateDraw(c.closeOverlay)
}

func fieldText(form *tview.Form, label string) string {
	return form.GetFormItemByLabel(label).(*tview.InputField).GetText()
}

func numericField(form *tview.Form, label string) (int, error) {
	v, err := strconv.Atoi(fieldText(form, label))
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", label)
	}
	return v, nil
}

func (c *console) showAddSessionForm(device models.Device) {
	now := clock.Now()
	in := clock.Clock{Hour: now.Hour(), Minute: now.Minute()}

	form := tview.NewForm().
		AddInputField("Customer Name", "", 30, nil, nil).
		AddInputField("Customer Contact", "", 12, tview.InputFieldInteger, nil).
		AddInputField("Date", clock.FormatDate(now), 20, nil, nil).
		AddInputField("In Time", clock.FormatClock(in), 10, nil, nil).
		AddInputField("Hours", "1", 6, tview.InputFieldFloat, nil).
		AddInputField("Out Time", clock.FormatClock(in.AddMinutes(60)), 10, nil, nil).
		AddDropDown("Discount", []string{"None", "Happy Hours"}, 0, nil).
		AddInputField("Players", "1", 4, tview.InputFieldInteger, nil).
		AddInputField("Snacks", "0", 4, tview.InputFieldInteger, nil).
		AddInputField("Water", "0", 4, tview.InputFieldInteger, nil)

	form.SetBorder(true).SetTitle(fmt.Sprintf(" New Session - %s ", device.DeviceName))

	form.AddButton("Add", func() { c.submitAddSession(form, device) })
	form.AddButton("Cancel", func() { c.closeOverlay() })

	c.showOverlay(center(form, 60, 25))
}

func (c *console) submitAddSession(form *tview.Form, device models.Device) {
	warn := func(msg string) {
		c.banner.Show(scheduler.SeverityWarning, "Input Required", msg)
	}

	date, err := clock.ParseDate(fieldText(form, "Date"))
	if err != nil {
		warn("Date must look like 01 June 2025.")
		return
	}
	inTime, err := clock.ParseClock(fieldText(form, "In Time"))
	if err != nil {
		warn("In time must look like 10:00 AM.")
		return
	}
	outTime, err := clock.ParseClock(fieldText(form, "Out Time"))
	if err != nil {
		warn("Out time must look like 11:00 AM.")
		return
	}
	hours, err := decimal.NewFromString(fieldText(form, "Hours"))
	if err != nil {
		warn("Hours must be a number.")
		return
	}
	players, err := numericField(form, "Players")
	if err != nil {
		warn(err.Error())
		return
	}
	snacks, err := numericField(form, "Snacks")
	if err != nil {
		warn(err.Error())
		return
	}
	water, err := numericField(form, "Water")
	if err != nil {
		warn(err.Error())
		return
	}
	_, discount := form.GetFormItemByLabel("Discount").(*tview.DropDown).GetCurrentOption()

	input := models.SessionInput{
		CustomerName:    fieldText(form, "Customer Name"),
		CustomerContact: fieldText(form, "Customer Contact"),
		DeviceName:      device.DeviceName,
		Date:            date,
		Hours:           hours,
		InTime:          inTime,
		OutTime:         outTime,
		Discount:        models.Discount(discount),
		NoOfPlayers:     players,
		Snacks:          snacks,
		WaterBottles:    water,
	}

	c.mu.Lock()
	devices := c.devices
	c.mu.Unlock()

	req, err := models.BuildAddSession(input, devices)
	if err != nil {
		warn(err.Error())
		return
	}

	go func() {
		if err := c.gw.AddSession(c.ctx, req); err != nil {
			c.reportError("add the session", err)
			return
		}
		if err := c.store.RecordSessionOpened(); err != nil {
			c.logger.Error().Err(err).Msg("bump session counter")
		}
		c.banner.Show(scheduler.SeveritySuccess, "Session Added",
			fmt.Sprintf("%s is on %s until %s.", req.CustomerName, req.DeviceName, req.OutTime))
		c.closeOverlayAsync()
		c.sched.Reconcile(c.ctx)
		c.refreshSessions()
	}()
}

func (c *console) showExtendForm(sess models.GamingSession) {
	form := tview.NewForm().
		AddDropDown("Minutes", []string{"Select", "15 min", "30 min", "1 Hour"}, 0, nil)
	form.SetBorder(true).SetTitle(fmt.Sprintf(" Extend - %s ", sess.CustomerName))

	form.AddButton("Extend", func() {
		idx, _ := form.GetFormItemByLabel("Minutes").(*tview.DropDown).GetCurrentOption()
		minutes := map[int]int{1: 15, 2: 30, 3: 60}[idx]
		if minutes == 0 {
			c.banner.Show(scheduler.SeverityWarning, "Input Required", "Please pick a duration.")
			return
		}

		req, err := models.Extend(sess, minutes)
		if err != nil {
			c.banner.Show(scheduler.SeverityWarning, "Cannot Extend", err.Error())
			return
		}

		go func() {
			if err := c.gw.ExtendSession(c.ctx, req); err != nil {
				c.reportError("extend the session", err)
				return
			}
			c.banner.Show(scheduler.SeveritySuccess, "Session Extended",
				fmt.Sprintf("%s now runs until %s.", sess.CustomerName, req.OutTime))
			c.closeOverlayAsync()
			c.sched.Reconcile(c.ctx)
			c.refreshSessions()
		}()
	})
	form.AddButton("Cancel", func() { c.closeOverlay() })

	c.showOverlay(center(form, 40, 9))
}

func (c *console) showSnacksForm(sess models.GamingSession) {
	form := tview.NewForm().
		AddInputField("Snacks", strconv.Itoa(sess.Snacks), 4, tview.InputFieldInteger, nil).
		AddInputField("Water", strconv.Itoa(sess.WaterBottles), 4, tview.InputFieldInteger, nil)
	form.SetBorder(true).SetTitle(fmt.Sprintf(" Snacks - %s ", sess.CustomerName))

	form.AddButton("Edit", func() {
		snacks, err := numericField(form, "Snacks")
		if err != nil {
			c.banner.Show(scheduler.SeverityWarning, "Input Required", err.Error())
			return
		}
		water, err := numericField(form, "Water")
		if err != nil {
			c.banner.Show(scheduler.SeverityWarning, "Input Required", err.Error())
			return
		}

		req, err := models.AddItems(sess, snacks, water)
		if err != nil {
			c.banner.Show(scheduler.SeverityWarning, "Cannot Edit", err.Error())
			return
		}

		go func() {
			if err := c.gw.SetSessionItems(c.ctx, req); err != nil {
				c.reportError("update snacks", err)
				return
			}
			c.banner.Show(scheduler.SeveritySuccess, "Snacks Updated",
				fmt.Sprintf("%s: %d snacks, %d water.", sess.CustomerName, snacks, water))
			c.closeOverlayAsync()
			c.refreshSessions()
		}()
	})
	form.AddButton("Cancel", func() { c.closeOverlay() })

	c.showOverlay(center(form, 40, 11))
}

func (c *console) confirmCloseSession(sess models.GamingSession) {
	req, err := models.Close(sess)
	if err != nil {
		c.banner.Show(scheduler.SeverityWarning, "Cannot Close", err.Error())
		return
	}

	modal := tview.NewModal().
		SetText(fmt.Sprintf("Close %s's session on %s?", sess.CustomerName, sess.Device.DeviceName)).
		AddButtons([]string{"Close Session", "Cancel"})
	modal.SetDoneFunc(func(i int, label string) {
		c.closeOverlay()
		if label != "Close Session" {
			return
		}
		go func() {
			if err := c.gw.CloseSession(c.ctx, req); err != nil {
				c.reportError("close the session", err)
				return
			}
			err := c.store.RecordSessionClosed(sess.CustomerName, sess.Device.DeviceName, sess.SessionPrice)
			if err != nil {
				c.logger.Error().Err(err).Msg("record closed session")
			}
			c.banner.Show(scheduler.SeveritySuccess, "Session Closed",
				fmt.Sprintf("%s's session on %s is closed.", sess.CustomerName, sess.Device.DeviceName))
			c.sched.Reconcile(c.ctx)
			c.refreshSessions()
		}()
	})

	c.showOverlay(modal)
}

func (c *console) confirmDisableDevice(device models.Device) {
	modal := tview.NewModal().
		SetText(fmt.Sprintf("Disable %s? It will stop accepting sessions.", device.DeviceName)).
		AddButtons([]string{"Disable", "Cancel"})
	modal.SetDoneFunc(func(i int, label string) {
		c.closeOverlay()
		if label != "Disable" {
			return
		}
		req := models.DeviceStatusRequest{DeviceID: device.ID, Status: models.DeviceInactive}
		go func() {
			if err := c.gw.SetDeviceStatus(c.ctx, req); err != nil {
				c.reportError("disable the device", err)
				return
			}
			c.banner.Show(scheduler.SeveritySuccess, "Device Disabled",
				fmt.Sprintf("%s no longer accepts sessions.", device.DeviceName))
			c.refreshDevices()
		}()
	})

	c.showOverlay(modal)
}

func (c *console) showAddDeviceForm() {
	form := tview.NewForm().
		AddDropDown("Category", []string{models.CategoryPlaystation, models.CategoryPC}, 0, nil).
		AddInputField("Device Name", "", 20, nil, nil)
	form.SetBorder(true).SetTitle(" Add Device ")

	form.AddButton("Add", func() {
		name := fieldText(form, "Device Name")
		if name == "" {
			c.banner.Show(scheduler.SeverityWarning, "Input Required", "Please enter a device name.")
			return
		}
		_, catName := form.GetFormItemByLabel("Category").(*tview.DropDown).GetCurrentOption()

		c.mu.Lock()
		categories := c.categories
		c.mu.Unlock()

		cat, ok := models.FindCategory(categories, catName)
		if !ok {
			c.banner.Show(scheduler.SeverityWarning, "Unknown Category",
				"Refresh the device list and try again.")
			return
		}

		req := models.AddDeviceRequest{CategoryID: cat.ID, DeviceName: name}
		go func() {
			id, err := c.gw.AddDevice(c.ctx, req)
			if err != nil {
				c.reportError("add the device", err)
				return
			}
			c.logger.Info().Str("device_id", id).Str("name", name).Msg("device added")
			c.banner.Show(scheduler.SeveritySuccess, "Device Added",
				fmt.Sprintf("%s registered under %s.", name, catName))
			c.closeOverlayAsync()
			c.refreshDevices()
		}()
	})
	form.AddButton("Cancel", func() { c.closeOverlay() })

	c.showOverlay(center(form, 40, 11))
}

// center wraps p in spacer flexes so it floats over the main view.
func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}
