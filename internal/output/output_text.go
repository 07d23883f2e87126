package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/tkjaer/hops/internal/shared"
)

var (
	hopsStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#60A5FA"))

	reachableStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34D399"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FBBF24"))
)

// TextOptions selects what the text output prints
type TextOptions struct {
	Quiet      bool // no per-probe progress
	Detailed   bool // hop estimate after every response
	Statistics bool // statistics block after the conclusion
	Styled     bool // colour the conclusion, for terminals
}

// TextOutput prints progress lines while probing and a conclusion at the end
type TextOutput struct {
	mu   sync.Mutex
	w    io.Writer
	opts TextOptions
	open bool // a progress line is waiting for its response
}

func NewTextOutput(w io.Writer, opts TextOptions) *TextOutput {
	return &TextOutput{w: w, opts: opts}
}

func (t *TextOutput) Progress(e shared.Event) {
	if t.opts.Quiet {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Type {
	case shared.EventSent:
		if e.Batch {
			fmt.Fprint(t.w, "\n")
		}
		fmt.Fprintf(t.w, "ECHO #%d (TTL %d)...", e.ID, e.TTL)
		t.open = true
	case shared.EventReceived:
		if !e.Found {
			fmt.Fprint(t.w, " <--- OTHER\n")
			t.open = false
			return
		}
		fmt.Fprintf(t.w, " <--- #%d %s", e.ID, progressLabel(e.Kind))
		if t.opts.Detailed {
			fmt.Fprintf(t.w, ": %s", e.Estimate.Brief())
		}
		fmt.Fprint(t.w, "\n")
		t.open = false
	case shared.EventOther:
		fmt.Fprint(t.w, " <--- OTHER\n")
		t.open = false
	}
}

func progressLabel(k shared.ResponseKind) string {
	switch k {
	case shared.EchoReply:
		return "REPLY"
	case shared.DestinationUnreachable:
		return "UNREACH"
	default:
		return "TTL EXPIRED"
	}
}

func (t *TextOutput) Complete(report *shared.Report) error {
	if report == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	if t.open {
		b.WriteString("\n")
		t.open = false
	}
	b.WriteString(t.conclusion(report))
	if t.opts.Statistics {
		b.WriteString(statistics(report.Conclusion.Stats, t.opts.Styled))
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

// conclusion renders e.g. "example.com (192.0.2.1) is 7 hops away and reachable"
func (t *TextOutput) conclusion(r *shared.Report) string {
	hops := r.Conclusion.Hops.Phrase()
	suffix := r.Conclusion.Reachability.Suffix()
	if t.opts.Styled {
		hops = hopsStyle.Render(hops)
		switch r.Conclusion.Reachability {
		case shared.Reachable:
			suffix = reachableStyle.Render(suffix)
		default:
			suffix = warningStyle.Render(suffix)
		}
	}
	return fmt.Sprintf("%s (%s) is %s%s\n", r.Destination, r.DestinationIP, hops, suffix)
}

func statistics(s shared.Stats, styled bool) string {
	header := "Statistics:"
	if styled {
		header = headerStyle.Render(header)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n\n", header)
	fmt.Fprintf(&b, "  %8d    probes sent out\n", s.ProbesSent)
	if s.ProbesSent > 0 {
		b.WriteString("              on TTLs: ")
		for i, c := range s.TTLs {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%d", c.TTL)
			if c.Count > 1 {
				fmt.Fprintf(&b, " (%d times)", c.Count)
			}
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%10d    bytes used in the probes\n", s.BytesSent)
	fmt.Fprintf(&b, "  %8d    responses received\n", s.Responses)
	fmt.Fprintf(&b, "%10d    bytes used in the responses\n", s.BytesReceived)
	fmt.Fprintf(&b, "  %8d    echo replies received\n", s.EchoReplies)
	fmt.Fprintf(&b, "  %8d    destination unreachable errors received\n", s.DestinationUnreachables)
	fmt.Fprintf(&b, "  %8d    time exceeded errors received\n", s.TimeExceededs)
	if s.Responses > 0 {
		fmt.Fprintf(&b, "%10.4f    shortest response delay (ms)\n", float64(s.MinDelay)/1000)
		fmt.Fprintf(&b, "%10.4f    longest response delay (ms)\n", float64(s.MaxDelay)/1000)
	}
	return b.String()
}

// Close is a no-op, the writer belongs to the caller
func (t *TextOutput) Close() error { return nil }
