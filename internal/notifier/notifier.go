package notifier

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/pfrederiksen/bonetider/internal/service"
)

// Notifier defines the interface for posting prayer time notifications
type Notifier interface {
	// Notify posts the message for resp
	Notify(ctx context.Context, resp *service.Response) error
}

// FormatMessage renders resp as Telegram HTML
func FormatMessage(resp *service.Response, city string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>Prayer times %s</b>", html.EscapeString(resp.Date))
	if city != "" {
		fmt.Fprintf(&b, " (%s)", html.EscapeString(city))
	}
	b.WriteString("\n\n")

	for _, slot := range resp.Slots() {
		fmt.Fprintf(&b, "%s: <code>%s</code>\n", strings.ToUpper(slot.Name[:1])+slot.Name[1:], html.EscapeString(slot.Time))
	}

	switch {
	case resp.Fallback:
		b.WriteString("\n<i>Live times unavailable, these are the static fallback times.</i>\n")
	case resp.Stale:
		b.WriteString("\n<i>Live times unavailable, these are the last stored times.</i>\n")
	}

	return b.String()
}
