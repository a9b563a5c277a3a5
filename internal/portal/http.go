package portal

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var formTmpl = template.Must(template.New("form").Parse(formHTML))

const formHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Boil Monitor Setup</title>
<style>
body { font-family: monospace; max-width: 480px; margin: 2em auto; padding: 0 1em; }
label { display: block; margin-top: 1em; }
input { width: 100%; padding: 4px; box-sizing: border-box; }
button { margin-top: 1.5em; padding: 6px 16px; }
</style>
</head>
<body>
<h1>Boil Monitor Setup</h1>
<form method="post" action="/save">
{{range .}}<label for="{{.ID}}">{{.Label}}</label>
<input id="{{.ID}}" name="{{.ID}}" placeholder="{{.Default}}"{{if gt .MaxLen 0}} maxlength="{{.MaxLen}}"{{end}}>
{{end}}<button type="submit">Save</button>
</form>
<p>Leave a field blank to keep its current value.</p>
</body>
</html>
`

// HTTPPortal serves the configuration form on a local address until the user
// submits it or the timeout elapses.
type HTTPPortal struct {
	addr string
	log  logrus.FieldLogger
}

// NewHTTPPortal creates a portal that listens on addr during each session.
func NewHTTPPortal(addr string, log logrus.FieldLogger) *HTTPPortal {
	return &HTTPPortal{addr: addr, log: log}
}

// Collect blocks until the form is submitted, the timeout elapses (ErrTimeout),
// or ctx is done.
func (p *HTTPPortal) Collect(ctx context.Context, fields []Field, timeout time.Duration) (map[string]string, error) {
	ln, err := net.Listen("tcp", p.addr)
	if err != nil {
		return nil, fmt.Errorf("portal listen %s: %w", p.addr, err)
	}

	f := newForm(fields)
	srv := &http.Server{Handler: f, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.WithError(err).Warn("portal server error")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	p.log.WithFields(logrus.Fields{"addr": ln.Addr().String(), "timeout": timeout}).Info("configuration portal open")

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case values := <-f.done:
		return values, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// form renders the fields and delivers the first submission on done.
type form struct {
	fields []Field
	done   chan map[string]string
	once   sync.Once
}

func newForm(fields []Field) *form {
	return &form{fields: fields, done: make(chan map[string]string, 1)}
}

func (f *form) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/save" && r.Method == http.MethodPost:
		f.handleSave(w, r)
	case r.URL.Path == "/save":
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	default:
		// Captive clients probe arbitrary paths; answer all of them with the form.
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		formTmpl.Execute(w, f.fields)
	}
}

func (f *form) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	values := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		values[field.ID] = truncate(strings.TrimSpace(r.PostForm.Get(field.ID)), field.MaxLen)
	}

	f.once.Do(func() { f.done <- values })

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Saved. The monitor will resume shortly.")
}
