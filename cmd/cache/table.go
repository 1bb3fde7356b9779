/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package cache

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"

	"bennypowers.dev/nativefed/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	winnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	scopeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	skipStyle   = lipgloss.NewStyle().Faint(true).Italic(true)
)

// Table renders the snapshot as three borderless tables.
func (s Snapshot) Table() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Shared externals"))
	b.WriteString("\n")
	var rows [][]string
	for _, name := range slices.Sorted(maps.Keys(s.Shared)) {
		for _, v := range s.Shared[name].Versions {
			rows = append(rows, []string{name, styleVersion(v), v.Remote, string(v.Action)})
		}
	}
	b.WriteString(render(rows))

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Scoped externals"))
	b.WriteString("\n")
	rows = nil
	for _, scope := range slices.Sorted(maps.Keys(s.Scoped)) {
		externals := s.Scoped[scope]
		for _, name := range slices.Sorted(maps.Keys(externals)) {
			rows = append(rows, []string{scope, name, scopeStyle.Render(externals[name].Version)})
		}
	}
	b.WriteString(render(rows))

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Remotes"))
	b.WriteString("\n")
	rows = lo.Map(slices.Sorted(maps.Keys(s.Remotes)), func(name string, _ int) []string {
		info := s.Remotes[name]
		label := name
		if info.Host {
			label = fmt.Sprintf("%s (host)", name)
		}
		return []string{label, info.EntryURL, fmt.Sprintf("%d shared", len(info.Shared))}
	})
	b.WriteString(render(rows))
	return b.String()
}

func render(rows [][]string) string {
	if len(rows) == 0 {
		return skipStyle.Render("  (empty)") + "\n"
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		Rows(rows...)
	return t.Render() + "\n"
}

func styleVersion(v model.SharedVersion) string {
	switch {
	case v.IsWinner():
		return winnerStyle.Render(v.Version + " *")
	case v.Action == model.ActionScope:
		return scopeStyle.Render(v.Version)
	case v.Action == model.ActionSkip:
		return skipStyle.Render(v.Version)
	default:
		return v.Version
	}
}
