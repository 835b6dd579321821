package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/mverac/saleswatch/internal/state"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"orDash": func(s string) string {
		if s == "" {
			return "—"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sales Watch</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ok { color: green; font-weight: bold; }
.err { color: red; }
.muted { color: #888; }
.mode { font-weight: bold; }
button { font-family: monospace; padding: 6px 12px; }
</style>
</head>
<body>
<h1>Sales Watch</h1>

<h2>Last Sale</h2>
<table>
<tr><th>Sale ID</th><td id="sale-id">{{if ge .Sale.SaleID 1}}{{.Sale.SaleID}}{{else}}—{{end}}</td></tr>
<tr><th>Resolved</th><td class="{{if .Sale.OK}}ok{{else}}muted{{end}}">{{if .Sale.OK}}yes{{else}}no{{end}}</td></tr>
<tr><th>Product</th><td id="product-name">{{orDash .Sale.ProductName}}</td></tr>
<tr><th>Code</th><td>{{orDash .Sale.ProductCode}}</td></tr>
<tr><th>Stock</th><td id="product-stock">{{.Sale.ProductStock}}</td></tr>
<tr><th>Sold</th><td>{{.Sale.ProductSold}}</td></tr>
{{if .LastError}}<tr><th>Last Error</th><td class="err">{{.LastError}}</td></tr>{{end}}
</table>

<h2>Alerts</h2>
<table>
<tr><th>Mode</th><td class="mode">{{.Mode}}</td></tr>
<tr><th>Last Remote Button</th><td>{{orDash .LastIR}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}ok{{else}}err{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{orDash .Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} / {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>API</th><td>{{.Config.APIBase}}</td></tr>
</table>

<p>
<button id="enable-alerts">Enable browser alerts</button>
<a href="/status">JSON</a>
</p>

<script>
(function() {
  var lastSaleId = null;
  var armed = false;

  // Speech and vibration need a user gesture before browsers allow them.
  document.getElementById("enable-alerts").addEventListener("click", function() {
    armed = true;
    this.disabled = true;
    this.textContent = "Browser alerts on";
    if (window.speechSynthesis) {
      speechSynthesis.speak(new SpeechSynthesisUtterance(""));
    }
  });

  function announce(text) {
    if (!armed) return;
    if (navigator.vibrate) navigator.vibrate([200, 100, 200]);
    if (window.speechSynthesis) {
      speechSynthesis.speak(new SpeechSynthesisUtterance(text));
    }
  }

  function refresh() {
    fetch("/status").then(function(r) { return r.json(); }).then(function(body) {
      var st = body.status;
      document.getElementById("sale-id").textContent = st.sale_id >= 1 ? st.sale_id : "—";
      document.getElementById("product-name").textContent = st.product.name || "—";
      document.getElementById("product-stock").textContent = st.product.stock;

      if (lastSaleId !== null && st.sale_id !== lastSaleId && st.sale_id >= 1) {
        var name = st.product.name || "unknown product";
        announce("New sale: " + name);
      }
      if (st.sale_id >= 1) lastSaleId = st.sale_id;
    }).catch(function() {});
  }

  setInterval(refresh, 2000);
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap state.Snapshot) {
	// Snapshot has an Uptime() method but the template wants a field.
	data := struct {
		state.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
