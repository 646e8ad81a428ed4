package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/thermobus/internal/status"
	"github.com/sweeney/thermobus/internal/temperature"
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
	"temp": func(t temperature.Temperature, u temperature.Unit) string {
		if u == 0 {
			u = temperature.UnitCelsius
		}
		return t.Format(u)
	},
	"ago": func(now, then time.Time) string {
		if then.IsZero() {
			return "never"
		}
		return now.Sub(then).Truncate(time.Second).String() + " ago"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Thermobus</title>
<style>
body { font-family: monospace; max-width: 700px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.fresh { color: green; font-weight: bold; }
.stale { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Thermobus</h1>

<h2>Sensors</h2>
<table>
<tr><th>Label</th><th>Temperature</th><th>Last reading</th><th>Bus</th></tr>
{{range .Sensors}}<tr>
<td><a href="/sensors/{{.Label}}">{{.Label}}</a><br><small>{{.Address}}</small></td>
<td class="{{if .Stale}}stale{{else if .HasReading}}fresh{{end}}">{{temp .Value $.Config.Unit}}</td>
<td>{{ago $.Now .ReadAt}}</td>
<td class="{{if .Connected}}connected{{else}}disconnected{{end}}">{{if .Connected}}connected{{else}}disconnected{{end}}{{if .Misses}} ({{.Misses}} missed){{end}}</td>
</tr>
{{else}}<tr><td colspan="4">no sensors configured</td></tr>
{{end}}</table>

<h2>Last Cycle</h2>
<table>
<tr><th>Cycle</th><td>{{if .Ready}}{{.Cycle.Number}}{{else}}none yet{{end}}</td></tr>
<tr><th>Requested</th><td>{{.Cycle.Requested}}</td></tr>
<tr><th>Rounds</th><td>{{.Cycle.Rounds}}</td></tr>
<tr><th>Fresh</th><td>{{.Cycle.Fresh}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Bus</th><td>{{.Config.Bus}}</td></tr>
<tr><th>Interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>Stale after</th><td>{{.Config.StaleAfterMs}}ms</td></tr>
<tr><th>Resolution</th><td>{{.Config.Resolution}} bits</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
