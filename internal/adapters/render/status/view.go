package status

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bitfarm-bot/bitfarm/internal/application"
)

type RenderOptions struct {
	Now time.Time
}

func renderView(statuses []application.Status, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Account Status"),
		s.header.Render(fmt.Sprintf("accounts: %d", len(statuses))),
	}

	if len(statuses) == 0 {
		lines = append(lines, s.empty.Render("No accounts configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, status := range statuses {
		lines = append(lines, s.section.Render(renderAccount(status, s)))
	}

	if !opts.Now.IsZero() {
		lines = append(lines, s.section.Render(s.faint.Render("as of "+opts.Now.Format(time.RFC3339))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccount(status application.Status, s styles) string {
	parts := []string{
		s.account.Render(accountTitle(status)),
	}

	if status.Err != nil {
		parts = append(parts, s.warning.Render(fmt.Sprintf("error: %v", status.Err)))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	parts = append(parts,
		kv(s, "balance", fmt.Sprintf("%d", status.Profile.Balance)),
		kv(s, "tickets", fmt.Sprintf("%d", status.Profile.Tickets)),
		kv(s, "clan", clanLabel(status)),
		kv(s, "proxy", proxyLabel(status)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func accountTitle(status application.Status) string {
	name := status.Account.Name
	if name == "" {
		name = string(status.Account.ID)
	}
	if status.Profile.Username != "" {
		return fmt.Sprintf("%s (@%s)", name, status.Profile.Username)
	}
	return name
}

func clanLabel(status application.Status) string {
	if status.Clan != nil {
		return status.Clan.Name
	}
	if status.Profile.ClanID != nil {
		return fmt.Sprintf("#%d", *status.Profile.ClanID)
	}
	return "none"
}

func proxyLabel(status application.Status) string {
	if status.Account.Proxy == "" {
		return "direct"
	}
	return status.Account.Proxy
}

func kv(s styles, key, value string) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render(key+":"),
		" ",
		s.value.Render(value),
	)
}
