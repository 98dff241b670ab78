package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/status"
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
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Water Tank</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.alert { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
.tank { width: 110px; height: 180px; border: 3px solid #555; border-top: none; border-radius: 0 0 10px 10px; position: relative; overflow: hidden; margin: 1em 0; }
.tank .fill { position: absolute; bottom: 0; left: 0; right: 0; background: #7db9e8; transition: height 0.5s; }
form input { width: 6em; margin-right: 1em; }
form button { font-family: monospace; }
</style>
</head>
<body>
<h1>Water Tank<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<div class="tank"><div id="fill" class="fill" style="height: {{.Reading.Percent}}%"></div></div>

<h2>Tank</h2>
<table>
<tr><th>Level</th><td><span id="water">{{.Reading.Percent}}</span>%</td></tr>
<tr><th>Volume</th><td><span id="volume">{{printf "%.1f" .Reading.VolumeLiters}}</span> L</td></tr>
<tr><th>Pump</th><td id="pump" class="{{if .PumpOn}}on{{else}}off{{end}}">{{if .PumpOn}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Overflow switch</th><td id="overflow" class="{{if .Overflow}}alert{{else}}off{{end}}">{{if .Overflow}}TRIGGERED{{else}}clear{{end}}</td></tr>
<tr><th>Start below</th><td><span id="threshold">{{.Thresholds.LowPercent}}</span>%</td></tr>
<tr><th>Stop above</th><td><span id="threshold-high">{{.Thresholds.HighPercent}}</span>%</td></tr>
<tr><th>Tank height</th><td><span id="tank-height">{{printf "%.0f" .Geometry.HeightCm}}</span> cm</td></tr>
<tr><th>Tank radius</th><td><span id="tank-radius">{{printf "%.0f" .Geometry.RadiusCm}}</span> cm</td></tr>
</table>

<h2>Settings</h2>
<form id="patch-form">
<label>Threshold % <input id="in-threshold" type="number" min="0" max="100" step="1"></label>
<label>Height cm <input id="in-height" type="number" min="1" step="any"></label>
<label>Radius cm <input id="in-radius" type="number" min="1" step="any"></label>
<button type="submit">Apply</button>
</form>

<h2>Recent Events</h2>
{{if .Recent}}<table>
{{range .Recent}}<tr><td>{{.Timestamp.UTC.Format "2006-01-02 15:04:05"}}</td><td>{{.Type}}</td><td>{{.Cause}}</td><td>{{.Percent}}%</td></tr>
{{end}}</table>{{else}}<p>none yet</p>{{end}}

<h2>Counters</h2>
<table>
<tr><th>Pump starts</th><td>{{.Counts.PumpStarts}}</td></tr>
<tr><th>Stops (high level)</th><td>{{.Counts.StopsHighLevel}}</td></tr>
<tr><th>Stops (overflow)</th><td>{{.Counts.StopsOverflow}}</td></tr>
<tr><th>Stops (max runtime)</th><td>{{.Counts.StopsMaxRuntime}}</td></tr>
<tr><th>Stops (dry run)</th><td>{{.Counts.StopsDryRun}}</td></tr>
<tr><th>Sensor timeouts</th><td>{{.Counts.SensorTimeouts}}</td></tr>
<tr><th>Patches applied</th><td>{{.Counts.PatchesApplied}}</td></tr>
<tr><th>Patches dropped</th><td>{{.Counts.PatchesDropped}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if not .Config.Broker}}off{{else if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if not .Config.Broker}}disabled{{else if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
{{if .Config.Broker}}<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>GPIO</th><td>{{.Config.GPIOChip}} (trig {{.Config.TriggerPin}}, echo {{.Config.EchoPin}}, overflow {{.Config.OverflowPin}}, pump {{.Config.PumpPin}})</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/report.json">report</a> &middot; <a href="/metrics">metrics</a></p>
<script>
(function() {
  var ws = null;
  var dot = document.getElementById("live-dot");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function setText(id, value) {
    document.getElementById(id).textContent = value;
  }

  function apply(msg) {
    setText("water", msg.water);
    setText("volume", msg.volume.toFixed(1));
    setText("threshold", msg.threshold);
    setText("threshold-high", Math.min(msg.threshold + 10, 100));
    setText("tank-height", msg.tankHeight);
    setText("tank-radius", msg.tankRadius);
    document.getElementById("fill").style.height = msg.water + "%";

    var pump = document.getElementById("pump");
    pump.textContent = msg.pump ? "ON" : "OFF";
    pump.className = msg.pump ? "on" : "off";

    var overflow = document.getElementById("overflow");
    overflow.textContent = msg.topTriggered ? "TRIGGERED" : "clear";
    overflow.className = msg.topTriggered ? "alert" : "off";
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    ws = new WebSocket(proto + location.host + "/ws");

    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "disconnected");
      setTimeout(connect, 5000);
    };
    ws.onerror = function() { ws.close(); };
    ws.onmessage = function(ev) {
      try { apply(JSON.parse(ev.data)); } catch (e) {}
    };
  }

  document.getElementById("patch-form").addEventListener("submit", function(ev) {
    ev.preventDefault();
    var patch = {};
    var t = document.getElementById("in-threshold").value;
    var h = document.getElementById("in-height").value;
    var r = document.getElementById("in-radius").value;
    if (t !== "") patch.threshold = parseInt(t, 10);
    if (h !== "") patch.height = parseFloat(h);
    if (r !== "") patch.radius = parseFloat(r);
    if (ws && ws.readyState === WebSocket.OPEN) {
      ws.send(JSON.stringify(patch));
      this.reset();
    }
  });

  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
