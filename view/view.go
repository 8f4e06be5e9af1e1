/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package view renders the form.
//
// Inputs are controlled: every displayed value comes from the
// current State, and every keystroke goes back to the host as a Msg
// before the page shows it.
package view

import (
	"bytes"
	"html/template"
	"io"
	"sync"

	"github.com/elm-community/js-integration-examples/core"

	"github.com/microcosm-cc/bluemonday"
	md "github.com/russross/blackfriday/v2"
)

// Field is one labeled text input.
type Field struct {
	// ID is the element id, which is also the State field name.
	ID string

	Label string
	Value string

	// Msg is the wire message name sent when the value changes.
	Msg string
}

// Fields is the view function: the inputs for the given State.
func Fields(s core.State) []Field {
	return []Field{
		{ID: "name", Label: "Name", Value: s.Name, Msg: "setName"},
		{ID: "email", Label: "Email", Value: s.Email, Msg: "setEmail"},
	}
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
	})
	return policy
}

// Markdown renders markdown and strips anything unsafe.
func Markdown(src string) template.HTML {
	if src == "" {
		return ""
	}
	unsafe := md.Run([]byte(src))
	return template.HTML(sanitizer().SanitizeBytes(unsafe))
}

// Page renders the whole HTML page.
type Page struct {
	Title string

	// Description is optional markdown shown above the form.
	Description string

	// SocketPath is where the page's script opens its websocket.
	SocketPath string

	// Action is where the form posts without the script.
	Action string
}

// NewPage makes a Page with the usual paths.
func NewPage(title, description string) *Page {
	if title == "" {
		title = "Persistent form"
	}
	return &Page{
		Title:       title,
		Description: description,
		SocketPath:  "/ws",
		Action:      "/form",
	}
}

type pageData struct {
	Title       string
	Description template.HTML
	SocketPath  string
	Action      string
	Fields      []Field
}

// Render writes the page for the given State.
func (p *Page) Render(w io.Writer, s core.State) error {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, &pageData{
		Title:       p.Title,
		Description: Markdown(p.Description),
		SocketPath:  p.SocketPath,
		Action:      p.Action,
		Fields:      Fields(s),
	})
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 2em; font-family: sans-serif }
label { display: block; margin-top: 1em }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Description}}<div class="description">{{.Description}}</div>{{end}}
<form id="form" method="post" action="{{.Action}}">
{{range .Fields}}<label for="{{.ID}}">{{.Label}}</label>
<input type="text" id="{{.ID}}" name="{{.ID}}" value="{{.Value}}" data-msg="{{.Msg}}">
{{end}}<noscript><button type="submit">Save</button></noscript>
</form>
<script>
(function() {
    var path = {{.SocketPath}};
    var scheme = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(scheme + location.host + path);
    var inputs = document.querySelectorAll("#form input[data-msg]");
    var sent = 0;

    inputs.forEach(function(input) {
        input.addEventListener("input", function(evt) {
            var msg = {};
            msg[input.dataset.msg] = evt.target.value;
            sent++;
            ws.send(JSON.stringify({seq: sent, msg: msg}));
        });
    });

    ws.onmessage = function(evt) {
        var f = JSON.parse(evt.data);
        // Older than our last edit.  A newer frame will follow.
        if (f.seq < sent || !f.state) {
            return;
        }
        var state = f.state;
        inputs.forEach(function(input) {
            var v = state[input.id];
            if (typeof v === "string" && input.value !== v) {
                input.value = v;
            }
        });
    };
}());
</script>
</body>
</html>
`))
