package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/notify"
	"github.com/instantshare/instantshare/internal/qr"
	"github.com/instantshare/instantshare/internal/tabs"
	"github.com/instantshare/instantshare/internal/theme"
)

var tabTitles = map[string]string{
	tabs.Upload:   "Upload",
	tabs.Download: "Download",
}

func (m *model) View() string {
	pal := m.ctl.Theme().Palette()

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		pal.Title.Render(constants.AppTitle),
		"  ",
		m.tabBar(pal),
		"  ",
		m.ctl.Theme().Indicator(),
	)

	var panel string
	if m.ctl.ActiveTab() == tabs.Upload {
		panel = m.uploadView(pal)
	} else {
		panel = m.downloadView(pal)
	}

	sections := []string{header, pal.Panel.Render(panel)}
	if n, ok := m.ctl.Notifier().Current(); ok {
		style := pal.Success
		if n.Kind == notify.KindError {
			style = pal.Failure
		}
		sections = append(sections, style.Render(n.Message))
	}
	sections = append(sections, pal.Muted.Render(m.help()))

	return pal.App.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *model) tabBar(pal theme.Palette) string {
	var parts []string
	for _, name := range tabs.Names {
		style := pal.Tab
		if name == m.ctl.ActiveTab() {
			style = pal.ActiveTab
		}
		parts = append(parts, style.Render(tabTitles[name]))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *model) uploadView(pal theme.Palette) string {
	var b strings.Builder
	b.WriteString(m.pathInput.View())
	b.WriteString("\n\n")

	preview := m.ctl.Staging().Preview()
	if len(preview) == 0 {
		b.WriteString(pal.Muted.Render("No files selected"))
	}
	for _, line := range preview {
		fmt.Fprintf(&b, "%s  %s\n", pal.PreviewExt.Render(line.Extension), line.Name)
		fmt.Fprintf(&b, "   %s\n", pal.Muted.Render(line.String()))
	}

	if m.uploading {
		pct := 0.0
		if m.total > 0 {
			pct = float64(m.sent) / float64(m.total)
		}
		fmt.Fprintf(&b, "\n%s Uploading %s of %s\n%s",
			m.spinner.View(),
			humanize.Bytes(uint64(m.sent)), humanize.Bytes(uint64(m.total)),
			m.bar.ViewAs(pct))
	}
	return b.String()
}

func (m *model) downloadView(pal theme.Palette) string {
	var b strings.Builder

	if view := m.ctl.Result(); view.Visible {
		b.WriteString("Your code\n")
		b.WriteString(pal.Code.Render(view.Code))
		if view.Expired {
			fmt.Fprintf(&b, "  %s\n", pal.Expired.Render(view.Countdown))
		} else {
			fmt.Fprintf(&b, "  %s\n", pal.Countdown.Render(view.Countdown))
			b.WriteString(m.qrFor(view.LinkURL))
			b.WriteString(pal.Muted.Render(view.LinkURL))
		}
		b.WriteString("\n\n")
	}

	b.WriteString("Enter code\n")
	b.WriteString(m.codeInput.View())
	b.WriteString("\n")

	switch {
	case m.downloading:
		fmt.Fprintf(&b, "\n%s Downloading %s", m.spinner.View(), humanize.Bytes(uint64(m.received)))
	case m.lastSaved != "":
		fmt.Fprintf(&b, "\n%s", pal.Muted.Render("Saved to "+m.lastSaved))
	}
	return b.String()
}

func (m *model) qrFor(link string) string {
	if link != m.qrLink {
		m.qrLink = link
		m.qrCode = qr.RenderString(link)
	}
	return m.qrCode
}

func (m *model) help() string {
	keys := []string{"tab switch", "ctrl+t theme"}
	if m.ctl.ActiveTab() == tabs.Upload {
		keys = append(keys, "enter add path / upload", "ctrl+x clear")
	} else {
		keys = append(keys, "enter download")
		if m.ctl.Result().Visible {
			keys = append(keys, "ctrl+y copy code", "ctrl+l copy link")
		}
	}
	keys = append(keys, "esc quit")
	return strings.Join(keys, " • ")
}
