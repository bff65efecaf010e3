package notifier

import (
	"context"
	"fmt"
	"io"

	"github.com/pfrederiksen/bonetider/internal/service"
)

// DryRunNotifier prints what would be sent without actually posting
type DryRunNotifier struct {
	w    io.Writer
	city string
}

// NewDryRunNotifier creates a new dry-run notifier
func NewDryRunNotifier(w io.Writer, city string) *DryRunNotifier {
	return &DryRunNotifier{w: w, city: city}
}

// Notify prints the message that would be posted
func (n *DryRunNotifier) Notify(ctx context.Context, resp *service.Response) error {
	msg := FormatMessage(resp, n.city)
	fmt.Fprintln(n.w, "--- Message ---")
	fmt.Fprintln(n.w, msg)
	fmt.Fprintf(n.w, "(Length: %d characters)\n", len(msg))
	return nil
}
