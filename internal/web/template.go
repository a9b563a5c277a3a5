package web

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/sweeney/boil-monitor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"celsius": func(c float64) string {
		return fmt.Sprintf("%.1f °C", c)
	},
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.UTC().Format("2006-01-02T15:04:05Z")
	},
	"phaseClass": func(p string) string {
		switch p {
		case "BOILING":
			return "boiling"
		case "HEATING":
			return "heating"
		}
		return "idle"
	},
	"uptime": humanDuration,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Boil Monitor</title>
<style>
body { font: 14px/1.4 monospace; max-width: 36em; margin: 1.5em auto; padding: 0 1em; color: #222; }
h1 { font-size: 1.3em; border-bottom: 2px solid #444; }
h2 { font-size: 1.05em; margin: 1.2em 0 0.3em; }
table { width: 100%; border-spacing: 0; }
th, td { text-align: left; padding: 3px 6px; }
th { width: 35%; font-weight: normal; color: #555; }
tr:nth-child(odd) td, tr:nth-child(odd) th { background: #f4f4f4; }
.boiling { color: #c00; font-weight: bold; }
.heating { color: #d80; }
.idle { color: #888; }
.fault { color: #d80; }
.up { color: #080; }
.down { color: #c00; }
</style>
</head>
<body>
<h1>Boil Monitor</h1>

<h2>Kettle</h2>
<table>
<tr><th>Temperature</th><td id="temperature">{{if not .Sampled}}waiting{{else if .ReadingValid}}{{celsius .TemperatureC}}{{else}}<span class="fault">sensor fault</span>{{end}}</td></tr>
<tr><th>Target</th><td id="threshold">{{celsius .ThresholdC}}</td></tr>
<tr><th>Phase</th><td id="phase" class="{{phaseClass (printf "%s" .Phase)}}">{{.Phase}}</td></tr>
<tr><th>Last boil</th><td>{{stamp .LastBoil}}</td></tr>
</table>

<h2>Episodes</h2>
<table>
<tr><th>Boiled</th><td>{{.Counts.Boiling}}</td></tr>
<tr><th>Reset</th><td>{{.Counts.Reset}}</td></tr>
<tr><th>Sensor faults</th><td>{{.SensorFaults}}</td></tr>
</table>

<h2>Notifications</h2>
<table>
<tr><th>Pushover</th><td>{{if .PushoverConfigured}}configured{{else}}not configured{{end}}</td></tr>
{{range $ch := .Channels}}{{with index $.Notifications $ch}}<tr><th>{{$ch}}</th><td>{{.Sent}} sent, {{.Skipped}} skipped, {{.Failed}} failed</td></tr>
{{end}}{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th>{{if .MQTTConnected}}<td class="up">connected</td>{{else}}<td class="down">disconnected</td>{{end}}</tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{stamp .StartTime}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Sample</th><td>{{.Config.SampleMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Stable time</th><td>{{.Config.StableMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if .Config.Heartbeat}}{{.Config.Heartbeat}}{{else}}disabled{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

// humanDuration renders d as "3d 4h 5m 6s", omitting leading zero units.
func humanDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	units := []struct {
		suffix string
		size   int64
	}{{"d", 86400}, {"h", 3600}, {"m", 60}, {"s", 1}}

	var parts []string
	for _, u := range units {
		n := secs / u.size
		secs %= u.size
		if n > 0 || len(parts) > 0 || u.suffix == "s" {
			parts = append(parts, fmt.Sprintf("%d%s", n, u.suffix))
		}
	}
	return strings.Join(parts, " ")
}

func renderHTML(w io.Writer, snap status.Snapshot) error {
	return indexTmpl.Execute(w, snap)
}
