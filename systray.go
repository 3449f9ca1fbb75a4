package main

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"fyne.io/systray"

	"github.com/dotside-studios/davi-tap-lab/buildinfo"
	"github.com/dotside-studios/davi-tap-lab/screen"
	"github.com/dotside-studios/davi-tap-lab/wallet"
)

// maxTitleLen keeps menu rows readable on every platform.
const maxTitleLen = 60

// passItems are the menu entries of one configured pass. Check, Remove and
// View are nil on platforms that do not offer them.
type passItems struct {
	pass    wallet.PassIdentity
	menu    *systray.MenuItem
	add     *systray.MenuItem
	check   *systray.MenuItem
	remove  *systray.MenuItem
	view    *systray.MenuItem
	hasPass *systray.MenuItem
}

func (p *passItems) actions() []*systray.MenuItem {
	var items []*systray.MenuItem
	for _, item := range []*systray.MenuItem{p.add, p.check, p.remove, p.view} {
		if item != nil {
			items = append(items, item)
		}
	}
	return items
}

// SystrayApp mirrors the NFC and wallet screens in the system tray.
type SystrayApp struct {
	agent *Agent

	mStatus    *systray.MenuItem
	mReader    *systray.MenuItem
	mScreenURL *systray.MenuItem
	mCopyURL   *systray.MenuItem
	mAlert     *systray.MenuItem

	// NFC screen
	mRead      *systray.MenuItem
	mBroadcast *systray.MenuItem
	mMessage   *systray.MenuItem
	mTime      *systray.MenuItem
	mText      *systray.MenuItem

	// Wallet screen
	mCanAdd       *systray.MenuItem
	mCanAddStatus *systray.MenuItem
	mResult       *systray.MenuItem
	passes        []*passItems

	mDeviceMenu     *systray.MenuItem
	deviceMenuItems map[string]*systray.MenuItem

	mStart *systray.MenuItem
	mStop  *systray.MenuItem

	// watchCancel ends the screen watchers of the running agent.
	watchCancel context.CancelFunc
	watchMu     sync.Mutex
}

func NewSystrayApp(agent *Agent) *SystrayApp {
	app := &SystrayApp{
		agent:           agent,
		deviceMenuItems: make(map[string]*systray.MenuItem),
	}
	agent.AddNotifier(screen.NotifierFunc(app.showAlert))
	return app
}

// Run starts the systray application
func (s *SystrayApp) Run() {
	systray.Run(s.onReady, s.onExit)
}

func (s *SystrayApp) onReady() {
	s.setupUI()
	s.startAgent()
	s.startReaderStatusUpdater()
}

func (s *SystrayApp) onExit() {
	s.stopWatching()
	s.agent.Stop()
}

// setupUI initializes all menu items
func (s *SystrayApp) setupUI() {
	systray.SetIcon(iconData)
	systray.SetTooltip(buildinfo.DisplayName)

	s.mStatus = systray.AddMenuItem("Starting...", "Agent Status")
	s.mStatus.Disable()
	s.mReader = systray.AddMenuItem("Reader: Disconnected", "NFC reader connection")
	s.mReader.Disable()
	s.mScreenURL = systray.AddMenuItem("Screens: Not running", "Websocket address for screen clients")
	s.mScreenURL.Disable()
	s.mCopyURL = systray.AddMenuItem("  Copy Screen URL", "Copy the websocket address to the clipboard")
	s.mAlert = systray.AddMenuItem("No notices", "Last notice")
	s.mAlert.Disable()

	systray.AddSeparator()

	mNFC := systray.AddMenuItem("NFC", "Read and broadcast NFC tags")
	s.mRead = mNFC.AddSubMenuItem("Read NFC", "Read a JSON message from a tag")
	s.mBroadcast = mNFC.AddSubMenuItem("Broadcast JSON", "Write the broadcast text to a tag")
	s.mText = mNFC.AddSubMenuItem("Text: "+screen.DefaultBroadcastText, "Broadcast text")
	s.mText.Disable()
	s.mMessage = mNFC.AddSubMenuItem("Message: None", "Last message read")
	s.mMessage.Disable()
	s.mTime = mNFC.AddSubMenuItem("Time: None", "Time of the last message read")
	s.mTime.Disable()

	mWallet := systray.AddMenuItem("Wallet ("+string(s.agent.Config.Platform)+")", "Wallet pass actions")
	s.mCanAdd = mWallet.AddSubMenuItem("Check if can add passes", "Ask the wallet whether passes can be added")
	s.mCanAddStatus = mWallet.AddSubMenuItem("Can Add Passes: Unknown", "Last capability check")
	s.mCanAddStatus.Disable()

	platform := s.agent.Config.Platform
	for _, pass := range s.agent.Config.Passes {
		p := &passItems{pass: pass}
		p.menu = mWallet.AddSubMenuItem(pass.Label, pass.SerialNumber)
		p.add = p.menu.AddSubMenuItem("Add "+pass.Label, "Add the pass from "+pass.URL)
		if platform.Supports(wallet.ActionHasPass) {
			p.check = p.menu.AddSubMenuItem("Check "+pass.Label, "Check whether the pass is in the wallet")
		}
		if platform.Supports(wallet.ActionRemovePass) {
			p.remove = p.menu.AddSubMenuItem("Remove "+pass.Label, "Remove the pass from the wallet")
		}
		if platform.Supports(wallet.ActionViewPass) {
			p.view = p.menu.AddSubMenuItem("View "+pass.Label, "Show the pass in the wallet")
		}
		if p.check != nil {
			p.hasPass = p.menu.AddSubMenuItem("Has Pass: Unknown", "Last check")
			p.hasPass.Disable()
		}
		s.passes = append(s.passes, p)
	}
	s.mResult = mWallet.AddSubMenuItem("Result: None", "Result of the last wallet action")
	s.mResult.Disable()

	systray.AddSeparator()

	s.mDeviceMenu = systray.AddMenuItem("Device", "Detected NFC devices")
	mRefreshDevices := s.mDeviceMenu.AddSubMenuItem("Refresh Devices", "Refresh device list")

	systray.AddSeparator()

	s.mStart = systray.AddMenuItem("Start Agent", "Start the agent")
	s.mStop = systray.AddMenuItem("Stop Agent", "Stop the agent")
	s.mStart.Disable()
	s.mStop.Disable()

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	s.setActionsEnabled(false)
	s.handleScreenClicks()
	go s.handleMenuEvents(mRefreshDevices, mQuit)
}

// handleScreenClicks runs the screen action of each item when clicked.
func (s *SystrayApp) handleScreenClicks() {
	onClick("Read NFC", s.mRead, func(ctx context.Context) error {
		nfcScreen, _ := s.agent.Screens()
		if nfcScreen == nil {
			return nil
		}
		return nfcScreen.Read(ctx)
	})
	onClick("Broadcast JSON", s.mBroadcast, func(ctx context.Context) error {
		nfcScreen, _ := s.agent.Screens()
		if nfcScreen == nil {
			return nil
		}
		return nfcScreen.Broadcast(ctx)
	})
	onClick(string(wallet.ActionCanAddPasses), s.mCanAdd, s.walletAction(wallet.ActionCanAddPasses, ""))

	for _, p := range s.passes {
		onClick(string(wallet.ActionAddPass), p.add, s.walletAction(wallet.ActionAddPass, p.pass.Label))
		onClick(string(wallet.ActionHasPass), p.check, s.walletAction(wallet.ActionHasPass, p.pass.Label))
		onClick(string(wallet.ActionRemovePass), p.remove, s.walletAction(wallet.ActionRemovePass, p.pass.Label))
		onClick(string(wallet.ActionViewPass), p.view, s.walletAction(wallet.ActionViewPass, p.pass.Label))
	}
}

func (s *SystrayApp) walletAction(action wallet.Action, label string) func(context.Context) error {
	return func(ctx context.Context) error {
		_, walletScreen := s.agent.Screens()
		if walletScreen == nil {
			return nil
		}
		return walletScreen.Do(ctx, action, label)
	}
}

// onClick runs fn in the background for every click on item.
func onClick(name string, item *systray.MenuItem, fn func(ctx context.Context) error) {
	if item == nil {
		return
	}
	go func() {
		for range item.ClickedCh {
			go func() {
				if err := fn(context.Background()); err != nil {
					log.Printf("[systray] %s: %v", name, err)
				}
			}()
		}
	}()
}

// handleMenuEvents processes the agent control menu events
func (s *SystrayApp) handleMenuEvents(mRefreshDevices, mQuit *systray.MenuItem) {
	for {
		select {
		case <-s.mStart.ClickedCh:
			s.startAgent()
		case <-s.mStop.ClickedCh:
			s.handleStopAgent()
		case <-mRefreshDevices.ClickedCh:
			s.updateDeviceList()
		case <-s.mCopyURL.ClickedCh:
			if !s.agent.Running() {
				continue
			}
			if err := copyToClipboard(s.agent.ScreenURL()); err != nil {
				log.Printf("[systray] Failed to copy to clipboard: %v", err)
			} else {
				log.Printf("[systray] Copied screen URL to clipboard")
			}
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (s *SystrayApp) startAgent() {
	s.mStart.Disable()
	go func() {
		if err := s.agent.Start(context.Background()); err != nil {
			log.Printf("[systray] Failed to start agent: %v", err)
			s.updateStatus("Failed to Start")
			s.mStart.Enable()
			return
		}
		s.updateStatus("Running")
		s.mScreenURL.SetTitle(truncate("Screens: "+s.agent.ScreenURL(), maxTitleLen))
		s.mStop.Enable()
		s.watchScreens()
		s.updateDeviceList()
	}()
}

func (s *SystrayApp) handleStopAgent() {
	s.stopWatching()
	s.agent.Stop()
	s.updateStatus("Stopped")
	s.mScreenURL.SetTitle("Screens: Not running")
	s.setActionsEnabled(false)
	s.mStop.Disable()
	s.mStart.Enable()
}

// watchScreens mirrors the state of the running screens until the agent
// stops.
func (s *SystrayApp) watchScreens() {
	nfcScreen, walletScreen := s.agent.Screens()
	if nfcScreen == nil || walletScreen == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.watchMu.Lock()
	s.watchCancel = cancel
	s.watchMu.Unlock()

	nfcUpdates, stopNFC := nfcScreen.Subscribe()
	walletUpdates, stopWallet := walletScreen.Subscribe()

	s.showNFC(nfcScreen.Snapshot())
	s.showWallet(walletScreen.Snapshot())

	go func() {
		defer stopNFC()
		defer stopWallet()
		for {
			select {
			case <-ctx.Done():
				return
			case st := <-nfcUpdates:
				s.showNFC(st)
			case st := <-walletUpdates:
				s.showWallet(st)
			}
		}
	}()
}

func (s *SystrayApp) stopWatching() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
}

func (s *SystrayApp) showNFC(st screen.NFCState) {
	s.mRead.SetTitle(st.ReadLabel())
	s.mBroadcast.SetTitle(st.BroadcastLabel())
	setEnabled(!st.IsBusy(), s.mRead, s.mBroadcast)

	s.mText.SetTitle(truncate("Text: "+st.BroadcastText, maxTitleLen))
	message, at := nfcResultTitles(st)
	s.mMessage.SetTitle(truncate(message, maxTitleLen))
	s.mTime.SetTitle(at)
}

func (s *SystrayApp) showWallet(st screen.WalletState) {
	enabled := !st.IsBusy()
	setEnabled(enabled, s.mCanAdd)
	for _, p := range s.passes {
		setEnabled(enabled, p.actions()...)
	}

	s.mCanAddStatus.SetTitle("Can Add Passes: " + st.CanAddPasses.String())
	for i, ps := range st.Passes {
		if i < len(s.passes) && s.passes[i].hasPass != nil {
			s.passes[i].hasPass.SetTitle("Has Pass: " + ps.HasPass.String())
		}
	}
	s.mResult.SetTitle(truncate(walletResultTitle(st), maxTitleLen))
}

// setActionsEnabled toggles every screen action item.
func (s *SystrayApp) setActionsEnabled(enabled bool) {
	setEnabled(enabled, s.mRead, s.mBroadcast, s.mCanAdd)
	for _, p := range s.passes {
		setEnabled(enabled, p.actions()...)
	}
}

func (s *SystrayApp) showAlert(title, message string) {
	if s.mAlert == nil {
		return
	}
	s.mAlert.SetTitle(truncate(alertTitle(title, message), maxTitleLen))
}

// startReaderStatusUpdater polls the reader connection for the status row.
func (s *SystrayApp) startReaderStatusUpdater() {
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		last := ""

		for range ticker.C {
			status := s.agent.ReaderStatus()
			title := "Reader: Disconnected"
			if status.Connected {
				title = "Reader: Connected (" + status.Device + ")"
			}
			if title != last {
				s.mReader.SetTitle(title)
				last = title
			}
		}
	}()
}

// updateDeviceList refreshes the list of available devices
func (s *SystrayApp) updateDeviceList() {
	for _, item := range s.deviceMenuItems {
		item.Hide()
	}
	s.deviceMenuItems = make(map[string]*systray.MenuItem)

	devices, err := s.agent.Manager.ListDevices()
	if err != nil {
		log.Printf("[systray] Error listing devices: %v", err)
		return
	}

	current := s.agent.ReaderStatus().Device
	for _, device := range devices {
		item := s.mDeviceMenu.AddSubMenuItemCheckbox(device, "Detected device", device == current)
		item.Disable()
		s.deviceMenuItems[device] = item
	}
}

// updateStatus updates the status menu item and icon
func (s *SystrayApp) updateStatus(status string) {
	s.mStatus.SetTitle(status)

	switch status {
	case "Running":
		systray.SetIcon(iconDataConnected)
	case "Failed to Start":
		systray.SetIcon(iconDataError)
	case "Stopped":
		systray.SetIcon(iconDataStopped)
	default:
		systray.SetIcon(iconData)
	}
}

func setEnabled(enabled bool, items ...*systray.MenuItem) {
	for _, item := range items {
		if item == nil {
			continue
		}
		if enabled {
			item.Enable()
		} else {
			item.Disable()
		}
	}
}

// nfcResultTitles returns the message and time rows for the last read.
func nfcResultTitles(st screen.NFCState) (message, at string) {
	if st.Result == nil {
		return "Message: None", "Time: None"
	}
	at = "Time: " + st.ResultTime
	if st.ResultTime == "" {
		at = "Time: None"
	}
	return "Message: " + st.Result.Message, at
}

func walletResultTitle(st screen.WalletState) string {
	switch {
	case st.IsBusy():
		return st.Busy
	case st.Result == "":
		return "Result: None"
	default:
		return st.Result
	}
}

func alertTitle(title, message string) string {
	return fmt.Sprintf("%s: %s", title, message)
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// copyToClipboard copies text to the system clipboard
func copyToClipboard(text string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "linux":
		cmd = exec.Command("xclip", "-selection", "clipboard")
	case "windows":
		cmd = exec.Command("clip")
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	if _, err := stdin.Write([]byte(text)); err != nil {
		return err
	}
	stdin.Close()
	return cmd.Wait()
}
