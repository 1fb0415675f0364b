package api

import (
	"html/template"
	"net/http"

	"github.com/dgallion1/docview/internal/viewer"
)

// shellTmpl is the viewer page. It shows the loading indicator, opens a
// session over /ws and swaps in each rendered view it is sent.
var shellTmpl = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Page}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
pre { overflow-x: auto; padding: .75rem; background: #f6f8fa; }
.callout { border-left: 4px solid #0969da; background: #ddf4ff; padding: .5rem 1rem; margin: 1rem 0; }
.callout-warning { border-color: #9a6700; background: #fff8c5; }
.callout-error { border-color: #cf222e; background: #ffebe9; }
.callout-check { border-color: #1a7f37; background: #dafbe1; }
.callout-title { font-weight: 600; }
.load-error { color: #cf222e; }
</style>
</head>
<body>
<div id="app">{{.Loading}}</div>
<script>
(function () {
  var app = document.getElementById("app");
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");

  function show(address) {
    if (ws.readyState === WebSocket.OPEN) {
      ws.send(JSON.stringify({address: address}));
    }
  }

  ws.onopen = function () { show(location.href); };
  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    app.innerHTML = msg.html;
    if (msg.state === "ready" && msg.title) {
      document.title = msg.title;
    }
    if (msg.error) {
      var p = document.createElement("p");
      p.className = "load-error";
      p.textContent = msg.error;
      app.appendChild(p);
    }
  };

  document.addEventListener("click", function (ev) {
    var a = ev.target.closest("a");
    if (!a || a.origin !== location.origin || a.pathname !== location.pathname) {
      return;
    }
    ev.preventDefault();
    history.pushState(null, "", a.href);
    show(a.href);
  });
  window.addEventListener("popstate", function () { show(location.href); });
})();
</script>
</body>
</html>
`))

type shellData struct {
	Page    string
	Loading template.HTML
}

func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	req := viewer.ResolveRequest(r.URL)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := shellTmpl.Execute(w, shellData{Page: req.Page, Loading: template.HTML(loadingHTML)}); err != nil {
		s.log.Error("render shell", "error", err)
	}
}
