// Package tui provides the interactive terminal dashboard for tracked
// obligations.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/cli"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/state"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/tui/components"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/tui/theme"
)

type stateLoadedMsg struct {
	state *model.TrackerState
}

type loadErrMsg struct {
	err error
}

// Dashboard is the root bubbletea model.
type Dashboard struct {
	store *state.Store

	width  int
	height int

	st      *model.TrackerState
	table   table.Model
	loadErr error
}

// NewDashboard returns a dashboard reading tracker state from store.
func NewDashboard(store *state.Store) Dashboard {
	t := theme.Active

	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Amount", Width: 10},
		{Title: "Cadence", Width: 14},
		{Title: "Monthly", Width: 10},
		{Title: "Month", Width: 10},
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Bold(true).
		Foreground(t.Accent).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true)
	styles.Selected = styles.Selected.
		Foreground(t.TextPrimary).
		Background(t.SurfaceHover).
		Bold(false)
	tbl.SetStyles(styles)

	return Dashboard{store: store, table: tbl}
}

// Init implements tea.Model.
func (d Dashboard) Init() tea.Cmd {
	return d.loadState
}

func (d Dashboard) loadState() tea.Msg {
	st, err := d.store.Load()
	if err != nil {
		return loadErrMsg{err: err}
	}
	return stateLoadedMsg{state: st}
}

// Update implements tea.Model.
func (d Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		h := msg.Height - 14
		if h < 4 {
			h = 4
		}
		d.table.SetHeight(h)
		return d, nil

	case stateLoadedMsg:
		d.st = msg.state
		d.loadErr = nil
		d.table.SetRows(obligationRows(msg.state))
		return d, nil

	case loadErrMsg:
		d.loadErr = msg.err
		return d, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return d, tea.Quit
		case "r":
			return d, d.loadState
		}
	}

	var cmd tea.Cmd
	d.table, cmd = d.table.Update(msg)
	return d, cmd
}

func obligationRows(st *model.TrackerState) []table.Row {
	var rows []table.Row
	for _, id := range sortedObligationIDs(st) {
		ob := st.Obligations[id]
		if !ob.Active {
			continue
		}
		name := ob.Name
		if st.Rollup.HasMember(id) {
			name += " *"
		}
		rows = append(rows, table.Row{
			name,
			cli.FormatMoney(ob.Amount),
			cli.FormatFrequency(ob.Frozen.FrequencyMonths),
			cli.FormatMoney(ob.Frozen.MonthlyTarget),
			cli.FormatMonth(ob.Frozen.TargetMonth),
		})
	}
	return rows
}

func sortedObligationIDs(st *model.TrackerState) []string {
	ids := make([]string, 0, len(st.Obligations))
	for id := range st.Obligations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return st.Obligations[ids[i]].Name < st.Obligations[ids[j]].Name
	})
	return ids
}

// View implements tea.Model.
func (d Dashboard) View() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  Eclosion"))
	b.WriteString(labelStyle.Render("  subscription savings tracker"))
	b.WriteString("\n\n")

	if d.loadErr != nil {
		b.WriteString(warnStyle.Render(fmt.Sprintf("  Could not read tracker state: %s", d.loadErr)))
		b.WriteString("\n")
		return b.String()
	}
	if d.st == nil {
		b.WriteString(labelStyle.Render("  Loading..."))
		b.WriteString("\n")
		return b.String()
	}

	total := decimal.Zero
	tracked := 0
	for _, ob := range d.st.Obligations {
		if !ob.Active {
			continue
		}
		tracked++
		if !d.st.Rollup.HasMember(ob.ID) {
			total = total.Add(ob.Frozen.MonthlyTarget)
		}
	}
	rollupMonthly := decimal.Zero
	for _, ft := range d.st.Rollup.FrozenTargets {
		rollupMonthly = rollupMonthly.Add(ft.MonthlyTarget)
	}
	total = total.Add(rollupMonthly)

	b.WriteString(labelStyle.Render("  Tracked: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", tracked)))
	b.WriteString(labelStyle.Render("   Monthly set-aside: "))
	b.WriteString(valueStyle.Render(cli.FormatMoney(total)))
	if notices := len(d.st.ActiveNotices()); notices > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("   %d notice(s)", notices)))
	}
	b.WriteString("\n\n")

	b.WriteString(d.table.View())
	b.WriteString("\n")

	if d.st.Rollup.Enabled {
		b.WriteString(labelStyle.Render(fmt.Sprintf("  * %s rollup, %d member(s), ",
			d.st.Rollup.Name, len(d.st.Rollup.Members))))
		b.WriteString(valueStyle.Render(cli.FormatMoney(rollupMonthly) + "/mo"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	width := d.width
	if width <= 0 {
		width = 80
	}
	b.WriteString(components.RenderStatusBar(width,
		cli.FormatRelativeTime(d.st.LastSyncAt, time.Now())))
	b.WriteString("\n")

	return b.String()
}

// Run starts the dashboard program.
func Run(store *state.Store) error {
	p := tea.NewProgram(NewDashboard(store), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
