package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
)

const barWidth = 30

// ProgressDisplay renders one progress line per processed post
type ProgressDisplay struct {
	mu        sync.Mutex
	bar       progress.Model
	label     string
	total     int
	processed int
	files     int
	failed    int
	startTime time.Time
	isDebug   bool
	now       func() time.Time
}

// NewProgressDisplay creates a progress display for label (blog or dump path)
func NewProgressDisplay(label string, debug bool) *ProgressDisplay {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = barWidth
	return &ProgressDisplay{
		bar:     bar,
		label:   label,
		isDebug: debug,
		now:     time.Now,
	}
}

// Start resets the counters for a run over total posts
func (p *ProgressDisplay) Start(phase string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.processed = 0
	p.files = 0
	p.failed = 0
	p.startTime = p.now()

	write(false, fmt.Sprintf("%s %s %s", labelStyle.Render(phase), valueStyle.Render(p.label), Dim(fmt.Sprintf("(%d liked posts)", total))))
}

// Advance records one processed post and the media files it produced
func (p *ProgressDisplay) Advance(postID uint64, files int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	p.files += files

	if p.isDebug {
		write(false, fmt.Sprintf("%s post %d • %d files", successStyle.Render("✓"), postID, files))
		return
	}
	p.printLine()
}

// Fail records a media item that could not be fetched
func (p *ProgressDisplay) Fail(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failed++
	if p.isDebug {
		write(false, fmt.Sprintf("%s %s", errorStyle.Render("✗"), url))
	}
}

// Phase prints a one-off step such as renaming
func (p *ProgressDisplay) Phase(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	write(false, fmt.Sprintf("\n%s %s", labelStyle.Render("→"), msg))
}

// Complete prints the final summary
func (p *ProgressDisplay) Complete(summary string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.now().Sub(p.startTime)
	write(false, fmt.Sprintf("\n%s %s", successStyle.Render("✓"), summary))
	write(false, fmt.Sprintf("  %s %d posts, %d files in %s", Dim("•"), p.processed, p.files, formatDuration(elapsed)))
	if p.failed > 0 {
		write(false, fmt.Sprintf("  %s %d media could not be fetched", Dim("•"), p.failed))
	}
}

// Processed returns the number of posts seen so far
func (p *ProgressDisplay) Processed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed
}

// Line renders the current progress line without printing it
func (p *ProgressDisplay) Line() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.render()
}

func (p *ProgressDisplay) printLine() {
	outMu.Lock()
	defer outMu.Unlock()
	if quiet {
		return
	}
	fmt.Fprintf(out, "\r%s\r%s", strings.Repeat(" ", 100), p.render())
}

func (p *ProgressDisplay) render() string {
	ratio := 0.0
	if p.total > 0 {
		ratio = float64(p.processed) / float64(p.total)
	}
	// liked_count can lag behind the pages actually served
	if ratio > 1 {
		ratio = 1
	}

	line := fmt.Sprintf("%s %s %d/%d • %d files • %s",
		labelStyle.Render(p.label),
		p.bar.ViewAs(ratio),
		p.processed,
		p.total,
		p.files,
		p.eta(),
	)
	if p.failed > 0 {
		line += " • " + errorStyle.Render(fmt.Sprintf("%d missing", p.failed))
	}
	return line
}

func (p *ProgressDisplay) eta() string {
	if p.processed == 0 || p.total <= p.processed {
		return "--"
	}
	elapsed := p.now().Sub(p.startTime)
	perPost := elapsed / time.Duration(p.processed)
	return formatDuration(perPost * time.Duration(p.total-p.processed))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
