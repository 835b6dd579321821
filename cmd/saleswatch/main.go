// Command saleswatch polls the remote sales API for the latest sale and
// raises local alerts: vibration motor, LED, an HTTP dashboard and an MQTT
// channel for the paired viewer page. An IR remote switches alert modes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mverac/saleswatch/internal/api"
	"github.com/mverac/saleswatch/internal/config"
	"github.com/mverac/saleswatch/internal/gpio"
	"github.com/mverac/saleswatch/internal/ir"
	"github.com/mverac/saleswatch/internal/mqtt"
	"github.com/mverac/saleswatch/internal/notify"
	"github.com/mverac/saleswatch/internal/state"
	"github.com/mverac/saleswatch/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file overlaid on env vars")
	poll := flag.Duration("poll", 0, "Poll interval (overrides config)")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config, \"off\" disables)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config, \"off\" disables)")
	heartbeat := flag.Duration("heartbeat", -1, "Heartbeat interval (overrides config, 0 disables)")
	pinVib := flag.Int("pin-vib", -1, "BCM pin for the vibration motor (overrides config)")
	pinLED := flag.Int("pin-led", -1, "BCM pin for the alert LED (overrides config)")
	pinIR := flag.Int("pin-ir", -1, "BCM pin for the IR receiver (overrides config)")
	once := flag.Bool("once", false, "Poll a single cycle, print the result and exit")
	noGPIO := flag.Bool("no-gpio", false, "Run without GPIO hardware (development hosts)")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	applyFlags(&cfg, *poll, *httpAddr, *broker, *heartbeat, *pinVib, *pinLED, *pinIR)

	if err := run(cfg, *once, *noGPIO); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// applyFlags overrides config values with any flag the operator set
// explicitly. Sentinel defaults mark a flag as untouched.
func applyFlags(cfg *config.Config, poll time.Duration, httpAddr, broker string, heartbeat time.Duration, pinVib, pinLED, pinIR int) {
	if poll > 0 {
		cfg.Poll.Interval = poll
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	if cfg.HTTP.Addr == "off" {
		cfg.HTTP.Addr = ""
	}
	if broker != "" {
		cfg.MQTT.Broker = broker
	}
	if cfg.MQTT.Broker == "off" {
		cfg.MQTT.Broker = ""
	}
	if heartbeat >= 0 {
		cfg.Poll.Heartbeat = heartbeat
	}
	if pinVib >= 0 {
		cfg.GPIO.PinVibration = pinVib
	}
	if pinLED >= 0 {
		cfg.GPIO.PinLED = pinLED
	}
	if pinIR >= 0 {
		cfg.GPIO.PinIR = pinIR
	}
}

func run(cfg config.Config, once, noGPIO bool) error {
	client := &http.Client{Timeout: cfg.API.RequestTimeout}

	tokens := api.NewTokenManager(client, api.TokenURL(cfg.API.BaseURL),
		cfg.API.Username, cfg.API.Password, cfg.API.TokenTTL, cfg.API.TokenMargin)
	resolver := api.NewResolver(client, tokens, cfg.API.BaseURL)

	tracker := state.NewTracker(time.Now(), state.Config{
		PollMs:   cfg.Poll.Interval.Milliseconds(),
		HTTPAddr: cfg.HTTP.Addr,
		Broker:   cfg.MQTT.Broker,
		APIBase:  cfg.API.BaseURL,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// MQTT is optional: an empty broker runs the device standalone.
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		rp := mqtt.NewRealPublisher(cfg.MQTT.Broker)
		defer rp.Close()
		publisher = rp
		mqttStatus = rp
	}

	var motor, led notify.Pulser
	if !noGPIO {
		m, err := gpio.NewRealOutput(cfg.GPIO.PinVibration)
		if err != nil {
			return fmt.Errorf("init vibration pin: %w", err)
		}
		defer m.Close()
		l, err := gpio.NewRealOutput(cfg.GPIO.PinLED)
		if err != nil {
			return fmt.Errorf("init led pin: %w", err)
		}
		defer l.Close()
		motor, led = m, l
	}

	dispatcher := notify.NewDispatcher(tracker, motor, led, publisher)
	poller := api.NewPoller(client, tokens, resolver, tracker, dispatcher,
		api.SalesURL(cfg.API.BaseURL), online)

	if once {
		if err := poller.PollOnce(context.Background()); err != nil {
			return err
		}
		os.Stdout.Write(state.FormatJSON(tracker.Snapshot()))
		fmt.Println()
		return nil
	}

	if !noGPIO {
		source, err := ir.NewEventSource(cfg.GPIO.PinIR)
		if err != nil {
			return fmt.Errorf("init ir pin: %w", err)
		}
		defer source.Close()
		go ir.NewListener(source, tracker).Run()
	}

	// Publish startup with a full status snapshot before the first poll.
	if publisher != nil {
		snap := tracker.Snapshot()
		event := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: state.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(event); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: poll=%v api=%s broker=%s heartbeat=%v",
		cfg.Poll.Interval, cfg.API.BaseURL, cfg.MQTT.Broker, cfg.Poll.Heartbeat)

	ticker := time.NewTicker(cfg.Poll.Interval)
	defer ticker.Stop()

	var hbTick <-chan time.Time
	if cfg.Poll.Heartbeat > 0 {
		hb := time.NewTicker(cfg.Poll.Heartbeat)
		defer hb.Stop()
		hbTick = hb.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(poller, publisher, mqttStatus, tracker, ticker.C, hbTick, sigCh)
}

// saleSource is the poll step runLoop drives each tick.
type saleSource interface {
	PollOnce(ctx context.Context) error
}

func runLoop(poller saleSource, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *state.Tracker, tick, hbTick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				event := mqtt.SystemEvent{
					Timestamp:  time.Now(),
					Event:      "SHUTDOWN",
					Reason:     signalName,
					Retained:   true,
					RawPayload: state.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName),
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case <-hbTick:
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			// Network state may have changed since startup.
			if net := readNetworkInfo(); net != nil {
				tracker.SetNetwork(net)
			}
			snap := tracker.Snapshot()
			log.Printf("heartbeat: uptime=%v sale_id=%d mode=%s",
				snap.Uptime().Truncate(time.Second), snap.Sale.SaleID, snap.Mode)
			if publisher != nil {
				event := mqtt.SystemEvent{
					Timestamp:  snap.Now,
					Event:      "HEARTBEAT",
					RawPayload: state.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

		case <-tick:
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			if err := poller.PollOnce(context.Background()); err != nil {
				log.Printf("poll error: %v", err)
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *state.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &state.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// online reports whether the host believes it has connectivity. Without
// pi-helper the check is skipped and the poll proceeds.
func online() bool {
	s := os.Getenv(envNetworkStatus)
	return s == "" || s == "connected"
}
