package server

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// reloadScript is the client side of live reload. It reconnects after the
// server restarts and swaps in the error overlay on failed builds.
const reloadScript = `
(function () {
	var proto = location.protocol === "https:" ? "wss" : "ws";

	function showOverlay(content) {
		removeOverlay();
		var container = document.createElement("div");
		container.innerHTML = content;
		if (container.firstElementChild) {
			document.body.appendChild(container.firstElementChild);
		}
	}

	function removeOverlay() {
		var prev = document.getElementById("rustle-error-overlay");
		if (prev) {
			prev.remove();
		}
	}

	function connect() {
		var ws = new WebSocket(proto + "://" + location.host + "/ws");
		ws.onmessage = function (ev) {
			var msg;
			try {
				msg = JSON.parse(ev.data);
			} catch (e) {
				return;
			}
			if (msg.type === "build_success" || msg.type === "reload") {
				location.reload();
			} else if (msg.type === "build_error") {
				showOverlay(msg.content);
			}
		};
		ws.onclose = function () {
			setTimeout(connect, 1000);
		};
	}

	connect();
})();
`

// handleStatic serves the dist directory. HTML responses get the live-reload
// script injected; everything else is served as-is with caching disabled.
func (s *DevServer) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	distDir := s.pipeline.DistDir()

	relPath := strings.TrimPrefix(r.URL.Path, "/")
	if relPath == "" {
		relPath = "index.html"
	}

	fullPath, ok := resolveWithin(distDir, relPath)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	info, err := os.Stat(fullPath)
	if err == nil && info.IsDir() {
		fullPath = filepath.Join(fullPath, "index.html")
		_, err = os.Stat(fullPath)
	}
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	// Dev artifacts must never be cached by the browser
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if filepath.Ext(fullPath) == ".html" {
		s.serveHTMLWithReload(w, r, fullPath)
		return
	}

	http.ServeFile(w, r, fullPath)
}

func (s *DevServer) serveHTMLWithReload(w http.ResponseWriter, r *http.Request, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	injected, err := injectReloadScript(data)
	if err != nil {
		// Serve the page unmodified rather than failing the request
		s.logger.Warn(r.Context(), err, "Reload script injection failed", "path", path)
		injected = data
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(injected)
}

// injectReloadScript parses the document and appends the live-reload script
// to the end of <body>.
func injectReloadScript(page []byte) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	body := findElement(doc, "body")
	if body == nil {
		return nil, os.ErrInvalid
	}

	script := &html.Node{
		Type: html.ElementNode,
		Data: "script",
	}
	script.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: reloadScript,
	})
	body.AppendChild(script)

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, name); found != nil {
			return found
		}
	}
	return nil
}

// resolveWithin joins rel onto root and rejects any path escaping root
func resolveWithin(root, rel string) (string, bool) {
	full := filepath.Join(root, filepath.Clean("/"+rel))

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", false
	}

	if absFull != absRoot && !strings.HasPrefix(absFull, absRoot+string(filepath.Separator)) {
		return "", false
	}

	return full, true
}
