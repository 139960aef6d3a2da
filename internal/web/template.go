package web

import (
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sweeney/pinscan/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"since": func(then, now time.Time) string {
		return humanize.RelTime(then, now, "ago", "from now")
	},
	"comma": func(n uint64) string {
		return humanize.Comma(int64(n))
	},
	"level": func(v uint) string {
		if v == 0 {
			return "off"
		}
		return "on"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Pin Scanner</title>
<style>
body { font-family: monospace; max-width: 720px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.pending { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Pin Scanner</h1>

<h2>Sensors</h2>
<table>
<tr><th>Name</th><th>Channel</th><th>State</th><th>Transitions</th></tr>
{{range .Sensors}}<tr><td>{{.Name}}</td><td>{{.Channel}}{{if .Analog}} (analog){{end}}</td><td class="{{if .Pending}}pending{{else}}{{level .State}}{{end}}">{{.State}}</td><td>{{.Transitions}}</td></tr>
{{else}}<tr><td colspan="4">none</td></tr>
{{end}}</table>

<h2>Outputs</h2>
<table>
<tr><th>Name</th><th>Channel</th><th>Value</th><th>Source</th></tr>
{{range .Outputs}}<tr><td>{{.Name}}</td><td>{{.Channel}}{{if .Shift}} (shift){{end}}</td><td class="{{if ne .Value .Pending}}pending{{end}}">{{.Value}}</td><td>{{if .Mirror}}mirrors {{.Mirror}}{{end}}</td></tr>
{{else}}<tr><td colspan="4">none</td></tr>
{{end}}</table>

<h2>System</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Started</th><td>{{since .StartTime .Now}}</td></tr>
<tr><th>Scans</th><td>{{comma .Scans}}</td></tr>
<tr><th>Backend</th><td>{{.Config.Backend}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	return indexTmpl.Execute(w, snap)
}
