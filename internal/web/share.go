package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func SharePage(view ShareView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>`+esc(view.Title)+` · Event Match</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Event Match</span>
        <h1>`+esc(view.Title)+`</h1>
        <p>Hosted by `+esc(view.HostName)+`</p>
      </header>
      <section class="panel">
        <h2>Scan to join</h2>
        <img class="qr" src="`+esc(view.QRDataURL)+`" alt="QR code for event `+esc(view.EventCode)+`"/>
        <p class="code">Event code: <strong>`+esc(view.EventCode)+`</strong></p>
        <p><a href="`+esc(view.JoinURL)+`">`+esc(view.JoinURL)+`</a></p>
      </section>
      <section class="panel">
        <p class="status">`+esc(phaseLabel(view.Phase))+`</p>
        <p class="count">`+itoa(view.ParticipantCount)+` joined so far</p>
      </section>
    </main>
  </body>
</html>
`)
		return err
	})
}
