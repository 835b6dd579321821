package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/mverac/saleswatch/internal/config"
	"github.com/mverac/saleswatch/internal/mqtt"
	"github.com/mverac/saleswatch/internal/state"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants — not the other way around.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "ShopNet")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	if info.Type != "wifi" || info.IP != "192.168.1.100" || info.SSID != "ShopNet" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Gateway != "192.168.1.1" || info.WifiStatus != "connected" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestOnline(t *testing.T) {
	// Without pi-helper the check is a no-op.
	if !online() {
		t.Error("expected online=true when NETWORK_STATUS is unset")
	}

	t.Setenv(envNetworkStatus, "connected")
	if !online() {
		t.Error("expected online=true when connected")
	}

	t.Setenv(envNetworkStatus, "disconnected")
	if online() {
		t.Error("expected online=false when disconnected")
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Config{}
	cfg.Poll.Interval = 2 * time.Second
	cfg.Poll.Heartbeat = 15 * time.Minute
	cfg.HTTP.Addr = ":80"
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.GPIO.PinVibration = 13

	// Sentinel defaults leave the config untouched.
	applyFlags(&cfg, 0, "", "", -1, -1, -1, -1)
	if cfg.Poll.Interval != 2*time.Second || cfg.HTTP.Addr != ":80" {
		t.Errorf("untouched config changed: %+v", cfg)
	}

	applyFlags(&cfg, time.Second, ":8080", "off", 0, 5, -1, -1)
	if cfg.Poll.Interval != time.Second {
		t.Errorf("Poll.Interval: got %v", cfg.Poll.Interval)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr: got %q", cfg.HTTP.Addr)
	}
	if cfg.MQTT.Broker != "" {
		t.Errorf("broker \"off\" should disable MQTT, got %q", cfg.MQTT.Broker)
	}
	if cfg.Poll.Heartbeat != 0 {
		t.Errorf("Heartbeat: got %v, want 0 (disabled)", cfg.Poll.Heartbeat)
	}
	if cfg.GPIO.PinVibration != 5 {
		t.Errorf("PinVibration: got %d, want 5", cfg.GPIO.PinVibration)
	}
}

// --- runLoop tests ---

// fakePoller counts PollOnce calls and can fail a range of them.
type fakePoller struct {
	calls      int
	faultStart int // first call index that returns an error (inclusive)
	faultEnd   int // last call index that returns an error (exclusive)
}

func (p *fakePoller) PollOnce(ctx context.Context) error {
	i := p.calls
	p.calls++
	if i >= p.faultStart && i < p.faultEnd {
		return errors.New("poll fault")
	}
	return nil
}

// runRunLoop drives runLoop for nTicks poll ticks and nHeartbeats heartbeat
// ticks, then delivers the signal and waits for the loop to exit.
func runRunLoop(t *testing.T, poller *fakePoller, pub *mqtt.FakePublisher, tracker *state.Tracker, nTicks, nHeartbeats int, signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	hbTick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(poller, pub, pub, tracker, tick, hbTick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	for i := 0; i < nHeartbeats; i++ {
		hbTick <- time.Time{}
	}
	sig <- signal

	return <-errCh
}

func newLoopTracker() *state.Tracker {
	return state.NewTracker(time.Now(), state.Config{PollMs: 2000, Broker: "tcp://localhost:1883"})
}

func TestRunLoopPollsEachTick(t *testing.T) {
	poller := &fakePoller{}
	pub := mqtt.NewFakePublisher()

	err := runRunLoop(t, poller, pub, newLoopTracker(), 5, 0, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if poller.calls != 5 {
		t.Errorf("PollOnce calls: got %d, want 5", poller.calls)
	}
}

func TestRunLoopShutdownEvent(t *testing.T) {
	poller := &fakePoller{}
	pub := mqtt.NewFakePublisher()

	err := runRunLoop(t, poller, pub, newLoopTracker(), 0, 0, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	ev := pub.SystemEvents[0]
	if ev.Event != "SHUTDOWN" {
		t.Errorf("event: got %q, want SHUTDOWN", ev.Event)
	}
	if ev.Reason != "SIGTERM" {
		t.Errorf("reason: got %q, want SIGTERM", ev.Reason)
	}
	if !ev.Retained {
		t.Error("shutdown events must be retained")
	}
	if !strings.Contains(string(ev.RawPayload), `"SHUTDOWN"`) {
		t.Error("expected full status snapshot in shutdown payload")
	}
}

func TestRunLoopShutdownOnInterrupt(t *testing.T) {
	poller := &fakePoller{}
	pub := mqtt.NewFakePublisher()

	err := runRunLoop(t, poller, pub, newLoopTracker(), 1, 0, syscall.SIGINT)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(pub.SystemEvents) != 1 || pub.SystemEvents[0].Reason != "SIGINT" {
		t.Errorf("expected SIGINT shutdown, got %+v", pub.SystemEvents)
	}
}

func TestRunLoopSurvivesPollErrors(t *testing.T) {
	poller := &fakePoller{faultStart: 1, faultEnd: 3}
	pub := mqtt.NewFakePublisher()

	err := runRunLoop(t, poller, pub, newLoopTracker(), 4, 0, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if poller.calls != 4 {
		t.Errorf("PollOnce calls: got %d, want 4 (loop must continue past errors)", poller.calls)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	poller := &fakePoller{}
	pub := mqtt.NewFakePublisher()
	pub.Connected = true
	tracker := newLoopTracker()

	err := runRunLoop(t, poller, pub, tracker, 2, 1, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var heartbeat *mqtt.SystemEvent
	for i := range pub.SystemEvents {
		if pub.SystemEvents[i].Event == "HEARTBEAT" {
			heartbeat = &pub.SystemEvents[i]
		}
	}
	if heartbeat == nil {
		t.Fatal("expected a HEARTBEAT system event")
	}
	if !strings.Contains(string(heartbeat.RawPayload), `"HEARTBEAT"`) {
		t.Error("expected full status snapshot in heartbeat payload")
	}
	if !tracker.Snapshot().MQTTConnected {
		t.Error("heartbeat must refresh the MQTT connection flag")
	}
}

func TestRunLoopWithoutPublisher(t *testing.T) {
	poller := &fakePoller{}

	// No broker configured: publisher and status are nil.
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(poller, nil, nil, newLoopTracker(), tick, nil, sig)
	}()

	tick <- time.Time{}
	sig <- syscall.SIGTERM

	if err := <-errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if poller.calls != 1 {
		t.Errorf("PollOnce calls: got %d, want 1", poller.calls)
	}
}
