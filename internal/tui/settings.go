package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tasktimer/internal/screenshot"
	"github.com/sadopc/tasktimer/internal/store"
)

type settingsModel struct {
	store  *store.Store
	shots  *screenshot.Manager
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	autoscreen     *bool
	interval       *string
	defaultProject *string
	hideDone       *bool
}

func newSettingsModel(s *store.Store, shots *screenshot.Manager) settingsModel {
	var auto, hide bool
	interval, project := "", ""
	return settingsModel{
		store:          s,
		shots:          shots,
		autoscreen:     &auto,
		interval:       &interval,
		defaultProject: &project,
		hideDone:       &hide,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

// settingsSavedMsg tells the other views that stored preferences changed.
type settingsSavedMsg struct{}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func validateInterval(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < store.MinAutoscreenInterval || n > store.MaxAutoscreenInterval {
		return fmt.Errorf("enter %d to %d minutes", store.MinAutoscreenInterval, store.MaxAutoscreenInterval)
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	a := s.store.AutoscreenSettings()
	*s.autoscreen = a.Enabled
	*s.interval = strconv.Itoa(a.IntervalMinutes)
	*s.defaultProject = s.store.DefaultProjectName()
	*s.hideDone = s.store.GetBool(store.KeyHideDone, true)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title("Take screenshots while the timer runs").
				Affirmative("On").Negative("Off").Value(s.autoscreen),
			huh.NewInput().Title("Screenshot interval (min)").
				Value(s.interval).Validate(validateInterval),
		).Title("Screenshots"),
		huh.NewGroup(
			huh.NewInput().Title("Default project").Value(s.defaultProject),
			huh.NewConfirm().Title("Hide completed tasks").
				Affirmative("Yes").Negative("No").Value(s.hideDone),
		).Title("Tasks"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, statusCmd(fmt.Sprintf("Settings not saved: %v", err), true)
		}
		return s, tea.Batch(
			s.refresh(),
			statusCmd("Settings saved", false),
			func() tea.Msg { return settingsSavedMsg{} },
		)
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	n, err := strconv.Atoi(strings.TrimSpace(*s.interval))
	if err != nil {
		return fmt.Errorf("screenshot interval: %w", err)
	}
	a := store.Autoscreen{Enabled: *s.autoscreen, IntervalMinutes: n}
	if err := s.store.SaveAutoscreenSettings(a); err != nil {
		return err
	}
	if s.shots != nil {
		if err := s.shots.Update(a.Enabled, a.Interval()); err != nil {
			return err
		}
	}
	project := strings.TrimSpace(*s.defaultProject)
	if project == "" {
		project = store.DefaultProject
	}
	if err := s.store.SetSetting(store.KeyDefaultProject, project); err != nil {
		return err
	}
	return s.store.SetSetting(store.KeyHideDone, strconv.FormatBool(*s.hideDone))
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(settingLabel(setting.Key))
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}
	if s.shots != nil {
		rows = append(rows, "", mutedStyle.Render("  Screenshots are saved under "+s.shots.BaseDir()))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingLabel(k string) string {
	switch k {
	case store.KeyAutoscreenEnabled:
		return "Auto screenshots"
	case store.KeyAutoscreenInterval:
		return "Screenshot interval"
	case store.KeyDefaultProject:
		return "Default project"
	case store.KeyHideDone:
		return "Hide completed tasks"
	}
	return k
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.KeyAutoscreenInterval:
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d min", n)
		}
	case store.KeyAutoscreenEnabled, store.KeyHideDone:
		if b, err := strconv.ParseBool(v); err == nil {
			if b {
				return "on"
			}
			return "off"
		}
	}
	return v
}
