package state

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event  string `json:"event,omitempty"`
	Reason string `json:"reason,omitempty"`

	SaleID    int64       `json:"sale_id"`
	SaleOK    bool        `json:"sale_ok"`
	SaleRaw   string      `json:"sale_raw,omitempty"`
	LastError string      `json:"last_error"`
	Product   ProductJSON `json:"product"`

	Mode      int    `json:"mode"`
	ModeLabel string `json:"mode_label"`
	IR        IRJSON `json:"ir"`

	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ProductJSON is the JSON representation of the last resolved product.
type ProductJSON struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	ID    int64  `json:"id"`
	Stock int    `json:"stock"`
	Sold  int    `json:"sold"`
}

// IRJSON reports the last decoded remote button.
type IRJSON struct {
	Last string `json:"last"`
	Seq  uint64 `json:"seq"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs   int64  `json:"poll_ms"`
	HTTPAddr string `json:"http_addr"`
	Broker   string `json:"broker"`
	APIBase  string `json:"api_base"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		SaleID:    snap.Sale.SaleID,
		SaleOK:    snap.Sale.OK,
		SaleRaw:   snap.Sale.RawJSON,
		LastError: snap.LastError,
		Product: ProductJSON{
			Name:  snap.Sale.ProductName,
			Code:  snap.Sale.ProductCode,
			ID:    snap.Sale.ProductID,
			Stock: snap.Sale.ProductStock,
			Sold:  snap.Sale.ProductSold,
		},
		Mode:          int(snap.Mode),
		ModeLabel:     snap.Mode.String(),
		IR:            IRJSON{Last: snap.LastIR, Seq: snap.IRSeq},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:   snap.Config.PollMs,
			HTTPAddr: snap.Config.HTTPAddr,
			Broker:   snap.Config.Broker,
			APIBase:  snap.Config.APIBase,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	// The raw upstream payload is bulky and of no use to the viewer's
	// lifecycle feed.
	inner.SaleRaw = ""
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
