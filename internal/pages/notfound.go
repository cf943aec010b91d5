package pages

import (
	"context"
	"fmt"
	"io"
)

// NotFound is shown for unknown paths.
type NotFound struct {
	T    Translator
	Path string
}

func (p *NotFound) Enter(context.Context) {}

func (p *NotFound) Leave() {}

func (p *NotFound) Render(w io.Writer) {
	fmt.Fprintf(w, "== 404 ==\n%s: %s\n[%s]\n", p.T.T("notFound"), p.Path, p.T.T("backHome"))
}
