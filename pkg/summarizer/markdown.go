package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate headings and labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
	}
}

// WithVersion sets the version shown in the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements the Formatter interface.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder
	t := f.translate

	fmt.Fprintf(&b, "# %s\n\n", t("Compression Summary"))

	// Run
	fmt.Fprintf(&b, "## %s\n\n", t("Run"))
	f.header(&b)
	f.row(&b, t("Run ID"), s.RunID)
	f.row(&b, t("Flow"), s.Flow)
	f.row(&b, t("Generated At"), s.GeneratedAt.Format(time.RFC3339))
	f.row(&b, t("Elapsed"), formatDuration(s.Elapsed))
	b.WriteString("\n")

	// Files
	fmt.Fprintf(&b, "## %s\n\n", t("Files"))
	f.header(&b)
	f.row(&b, t("Input"), "`"+s.Input.Path+"`")
	f.row(&b, t("Output"), "`"+s.Output.Path+"`")
	if s.Output.Size > 0 {
		f.row(&b, t("Output Size"), formatBytes(s.Output.Size))
	}
	b.WriteString("\n")

	// Settings
	fmt.Fprintf(&b, "## %s\n\n", t("Encoder Settings"))
	f.header(&b)
	f.row(&b, t("Codec"), s.Settings.Codec)
	f.row(&b, t("Bitrate"), optional(s.Settings.BitrateKbps, "%d kbit/s", t))
	f.row(&b, t("Preset"), orNA(s.Settings.Preset, t))
	f.row(&b, "CRF", optional(s.Settings.CRF, "%d", t))
	if s.Settings.QueueDepth > 0 {
		f.row(&b, t("Queue Depth"), fmt.Sprintf("%d", s.Settings.QueueDepth))
	}
	b.WriteString("\n")

	if s.Flow == "relay" {
		fmt.Fprintf(&b, "## %s\n\n", t("Relay"))
		f.header(&b)
		f.row(&b, t("Frames Relayed"), fmt.Sprintf("%d", s.Relay.Frames))
		f.row(&b, t("Bytes Relayed"), formatBytes(s.Relay.Bytes))
		f.row(&b, t("Dropped Trailing Bytes"), fmt.Sprintf("%d", s.Relay.TrailingBytes))
		b.WriteString("\n")
	}

	if s.InputStream != nil {
		fmt.Fprintf(&b, "## %s\n\n", t("Input Stream"))
		f.stream(&b, s.InputStream)
	}
	if s.OutputStream != nil {
		fmt.Fprintf(&b, "## %s\n\n", t("Output Stream"))
		f.stream(&b, s.OutputStream)
	}

	b.WriteString("---\n\n")
	if f.version != "" {
		fmt.Fprintf(&b, "*%s squeeze %s*\n", t("Generated by"), f.version)
	} else {
		fmt.Fprintf(&b, "*%s squeeze*\n", t("Generated by"))
	}

	return b.String()
}

func (f *MarkdownFormatter) header(b *strings.Builder) {
	fmt.Fprintf(b, "| %s | %s |\n", f.translate("Item"), f.translate("Value"))
	b.WriteString("|------|-------|\n")
}

func (f *MarkdownFormatter) row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", label, value)
}

func (f *MarkdownFormatter) stream(b *strings.Builder, st *StreamInfo) {
	t := f.translate
	f.header(b)
	f.row(b, t("Codec"), orNA(st.Codec, t))
	f.row(b, t("Resolution"), fmt.Sprintf("%dx%d", st.Width, st.Height))
	f.row(b, t("Frame Rate"), fmt.Sprintf("%s (%.2f fps)", st.FrameRate, st.FPS))
	f.row(b, t("Pixel Format"), orNA(st.PixelFormat, t))
	if st.DurationSec > 0 {
		f.row(b, t("Duration"), fmt.Sprintf("%.2f s", st.DurationSec))
	}
	if st.FrameCount > 0 {
		f.row(b, t("Frames"), fmt.Sprintf("%d", st.FrameCount))
	}
	if st.FrameSize > 0 {
		f.row(b, t("Raw Frame Size"), formatBytes(int64(st.FrameSize)))
	}
	for _, k := range st.TagKeys() {
		f.row(b, "`"+k+"`", st.Tags[k])
	}
	b.WriteString("\n")
}

func optional(v int, format string, t func(string) string) string {
	if v <= 0 {
		return t("N/A")
	}
	return fmt.Sprintf(format, v)
}

func orNA(s string, t func(string) string) string {
	if s == "" {
		return t("N/A")
	}
	return s
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2f s", d.Seconds())
}

// formatBytes formats bytes as human-readable string.
func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
