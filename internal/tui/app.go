package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/waabox/sitedeck/internal/domain"
	"github.com/waabox/sitedeck/internal/provider"
	"github.com/waabox/sitedeck/internal/session"
	"github.com/waabox/sitedeck/internal/stage"
	"github.com/waabox/sitedeck/internal/submission"
)

// SessionUpdatedMsg carries a session snapshot. Snapshots older than the one
// already shown are dropped.
type SessionUpdatedMsg struct {
	View session.View
}

// ProjectsLoadedMsg is sent when the admin project list has been fetched.
// It is exported so that tests can inject it directly into AppModel.Update.
type ProjectsLoadedMsg struct {
	Projects []domain.Project
	Err      error
}

// LoginResultMsg is sent when a sign-in attempt completes.
type LoginResultMsg struct {
	Err error
}

// submitResultMsg is sent when a submission returns. seq ties it to the
// attempt that started it.
type submitResultMsg struct {
	seq     int
	project domain.Project
	err     error
}

type loggedOutMsg struct{ err error }

// tickMsg redraws elapsed timers while a generation runs.
type tickMsg struct{}

// viewState indicates the current screen.
type viewState int

const (
	viewPrompt viewState = iota
	viewBuilding
	viewResult
	viewFailed
	viewLogin
	viewProjects
)

// Submitter runs one submission.
type Submitter interface {
	Submit(ctx context.Context, in submission.Input) (domain.Project, error)
}

// SessionController is the part of a generation session the UI drives.
type SessionController interface {
	View() session.View
	Reset()
}

// Deps are the collaborators of the application model. Projects and Auth may
// be nil, which hides the admin screens.
type Deps struct {
	// Context bounds every background call, including the poll loop.
	Context  context.Context
	Flow     Submitter
	Session  SessionController
	Updates  <-chan struct{}
	Projects domain.ProjectLister
	Auth     domain.Authenticator
	Now      func() time.Time
}

// Notifier turns session change callbacks into a coalescing signal channel.
// Pass Notify as session.Config.OnChange and C to Deps.Updates.
type Notifier struct {
	ch chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Notify signals that a newer snapshot is available. It never blocks.
func (n *Notifier) Notify(session.View) {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

func (n *Notifier) C() <-chan struct{} {
	return n.ch
}

// AppModel is the root Bubbletea model for sitedeck.
type AppModel struct {
	deps Deps
	view viewState
	// Generation
	prompt    textarea.Model
	formErr   string
	lastInput submission.Input
	seq       int
	snapshot  session.View
	failure   string
	spinner   spinner.Model
	// Admin
	email     textinput.Model
	password  textinput.Model
	loginErr  string
	loggingIn bool
	list      ProjectListModel
	loading   bool
	err       error
	// General state
	width  int
	height int
}

// NewAppModel creates the root application model on the prompt screen.
func NewAppModel(deps Deps) AppModel {
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	prompt := textarea.New()
	prompt.Placeholder = "Describe your business and the website you want..."
	prompt.CharLimit = 0
	prompt.ShowLineNumbers = false
	prompt.SetWidth(72)
	prompt.SetHeight(6)
	prompt.Focus()

	email := textinput.New()
	email.Placeholder = "admin@example.com"
	email.CharLimit = 120
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 200
	password.Width = 40
	password.EchoMode = textinput.EchoPassword

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return AppModel{
		deps:     deps,
		prompt:   prompt,
		email:    email,
		password: password,
		spinner:  s,
		list:     NewProjectListModel(nil),
	}
}

// Init starts listening for session changes.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitForSession())
}

func (m AppModel) waitForSession() tea.Cmd {
	if m.deps.Updates == nil || m.deps.Session == nil {
		return nil
	}
	updates, sess := m.deps.Updates, m.deps.Session
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return SessionUpdatedMsg{View: sess.View()}
	}
}

func (m AppModel) submit(in submission.Input, seq int) tea.Cmd {
	ctx, flow := m.deps.Context, m.deps.Flow
	return func() tea.Msg {
		p, err := flow.Submit(ctx, in)
		return submitResultMsg{seq: seq, project: p, err: err}
	}
}

func (m AppModel) loadProjects() tea.Cmd {
	ctx, lister := m.deps.Context, m.deps.Projects
	return func() tea.Msg {
		if lister == nil {
			return ProjectsLoadedMsg{Err: errors.New("project listing is not configured")}
		}
		projects, err := lister.ListProjects(ctx)
		return ProjectsLoadedMsg{Projects: projects, Err: err}
	}
}

func (m AppModel) login(email, password string) tea.Cmd {
	ctx, auth := m.deps.Context, m.deps.Auth
	return func() tea.Msg {
		return LoginResultMsg{Err: auth.Login(ctx, email, password)}
	}
}

func (m AppModel) logout() tea.Cmd {
	ctx, auth := m.deps.Context, m.deps.Auth
	return func() tea.Msg {
		return loggedOutMsg{err: auth.Logout(ctx)}
	}
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update handles all incoming messages and key events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if msg.Width > 8 {
			m.prompt.SetWidth(min(msg.Width-4, 100))
		}

	case SessionUpdatedMsg:
		return m.applySnapshot(msg.View), m.waitForSession()

	case submitResultMsg:
		if msg.seq != m.seq || msg.err == nil {
			return m, nil
		}
		var verr *submission.ValidationError
		if errors.As(msg.err, &verr) || errors.Is(msg.err, submission.ErrEmptyPrompt) {
			m.view = viewPrompt
			m.formErr = msg.err.Error()
			return m, nil
		}
		if m.view == viewBuilding {
			m.view = viewFailed
		}
		if m.failure == "" {
			m.failure = msg.err.Error()
		}
		return m, nil

	case tickMsg:
		if m.view == viewBuilding {
			return m, tickEvery(time.Second)
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != viewBuilding {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ProjectsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			if isAuthError(msg.Err) && m.deps.Auth != nil {
				m.view = viewLogin
				m.loginErr = "Session expired. Sign in again."
				m.err = nil
				return m, m.email.Focus()
			}
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.list = m.list.UpdateProjects(msg.Projects)

	case LoginResultMsg:
		m.loggingIn = false
		if msg.Err != nil {
			m.loginErr = msg.Err.Error()
			return m, nil
		}
		m.loginErr = ""
		m.password.SetValue("")
		return m.openProjects()

	case loggedOutMsg:
		m.list = NewProjectListModel(nil)
		m.view = viewPrompt
		if msg.err != nil {
			m.formErr = fmt.Sprintf("signed out, but the session could not be cleared: %v", msg.err)
		}
		return m, m.prompt.Focus()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case viewPrompt:
			return m.updatePrompt(msg)
		case viewBuilding:
			return m.updateBuilding(msg)
		case viewResult, viewFailed:
			return m.updateOutcome(msg)
		case viewLogin:
			return m.updateLogin(msg)
		case viewProjects:
			return m.updateProjects(msg)
		}
	}
	return m, nil
}

// applySnapshot shows v unless a newer snapshot is already displayed.
func (m AppModel) applySnapshot(v session.View) AppModel {
	if v.Version <= m.snapshot.Version {
		return m
	}
	m.snapshot = v
	tracking := m.view == viewBuilding || m.view == viewResult || m.view == viewFailed
	if !tracking {
		return m
	}
	switch v.State {
	case session.StateSucceeded:
		m.view = viewResult
	case session.StateFailed:
		m.view = viewFailed
		m.failure = FailureMessage(v)
	case session.StateSubmitting, session.StatePolling:
		m.view = viewBuilding
	}
	return m
}

func (m AppModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		in := submission.Input{Prompt: m.prompt.Value()}
		if err := submission.Validate(in); err != nil {
			m.formErr = err.Error()
			return m, nil
		}
		return m.startSubmission(in)
	case "ctrl+o":
		if m.deps.Projects != nil {
			return m.openProjects()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	m.formErr = ""
	return m, cmd
}

func (m AppModel) startSubmission(in submission.Input) (AppModel, tea.Cmd) {
	m.seq++
	m.lastInput = in
	m.formErr = ""
	m.failure = ""
	m.view = viewBuilding
	m.prompt.Blur()
	return m, tea.Batch(m.submit(in, m.seq), m.spinner.Tick, tickEvery(time.Second))
}

func (m AppModel) updateBuilding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.seq++
		m.deps.Session.Reset()
		m.view = viewPrompt
		return m, m.prompt.Focus()
	}
	return m, nil
}

func (m AppModel) updateOutcome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		if m.view == viewFailed && m.lastInput.Prompt != "" {
			return m.startSubmission(m.lastInput)
		}
	case "n":
		m.seq++
		m.deps.Session.Reset()
		m.prompt.Reset()
		m.view = viewPrompt
		return m, m.prompt.Focus()
	case "e":
		if m.view == viewFailed {
			m.seq++
			m.deps.Session.Reset()
			m.view = viewPrompt
			return m, m.prompt.Focus()
		}
	case "ctrl+o":
		if m.deps.Projects != nil {
			return m.openProjects()
		}
	}
	return m, nil
}

// openProjects shows the admin list, asking for sign-in first when needed.
func (m AppModel) openProjects() (AppModel, tea.Cmd) {
	m.prompt.Blur()
	if m.deps.Auth != nil && !m.deps.Auth.IsAuthenticated() {
		m.view = viewLogin
		m.password.Blur()
		return m, m.email.Focus()
	}
	m.view = viewProjects
	m.loading = true
	m.err = nil
	return m, m.loadProjects()
}

func (m AppModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = viewPrompt
		m.loginErr = ""
		return m, m.prompt.Focus()
	case "tab", "shift+tab", "up", "down":
		return m.toggleLoginFocus()
	case "enter":
		if m.email.Focused() {
			return m.toggleLoginFocus()
		}
		if m.loggingIn {
			return m, nil
		}
		m.loggingIn = true
		m.loginErr = ""
		return m, m.login(m.email.Value(), m.password.Value())
	}
	var cmd tea.Cmd
	if m.email.Focused() {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m AppModel) toggleLoginFocus() (AppModel, tea.Cmd) {
	if m.email.Focused() {
		m.email.Blur()
		return m, m.password.Focus()
	}
	m.password.Blur()
	return m, m.email.Focus()
}

func (m AppModel) updateProjects(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down", "j":
		m.list = m.list.MoveDown()
	case "up", "k":
		m.list = m.list.MoveUp()
	case "right", "l", "pgdown":
		m.list = m.list.NextPage()
	case "left", "h", "pgup":
		m.list = m.list.PrevPage()
	case "r", "ctrl+r":
		m.loading = true
		return m, m.loadProjects()
	case "o":
		if m.deps.Auth != nil {
			return m, m.logout()
		}
	case "esc":
		m.view = viewPrompt
		return m, m.prompt.Focus()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

// View renders the full TUI.
func (m AppModel) View() string {
	header := " " + titleStyle.Render("sitedeck")
	if m.deps.Auth != nil {
		if u, ok := m.deps.Auth.CurrentUser(); ok {
			header += dimStyle.Render(fmt.Sprintf(" | %s (%s)", u.Email, u.Role))
		}
	}
	header += "\n"

	switch m.view {
	case viewBuilding:
		return header + separator + m.renderBuilding()
	case viewResult:
		return header + separator + m.renderResult()
	case viewFailed:
		return header + separator + m.renderFailed()
	case viewLogin:
		return header + separator + m.renderLogin()
	case viewProjects:
		return header + separator + m.renderProjects()
	default:
		return header + separator + m.renderPrompt()
	}
}

func (m AppModel) renderPrompt() string {
	var sb strings.Builder
	sb.WriteString(" Describe the website you want\n\n")
	sb.WriteString(m.prompt.View() + "\n")

	n := utf8.RuneCountInString(strings.TrimSpace(m.prompt.Value()))
	counter := fmt.Sprintf(" %d/%d characters (minimum %d)", n, submission.MaxPromptLength, submission.MinPromptLength)
	if n > submission.MaxPromptLength {
		sb.WriteString(errorStyle.Render(counter) + "\n")
	} else {
		sb.WriteString(dimStyle.Render(counter) + "\n")
	}
	if m.formErr != "" {
		sb.WriteString(" " + errorStyle.Render(m.formErr) + "\n")
	}

	footer := " ctrl+s: generate   ctrl+c: quit\n"
	if m.deps.Projects != nil {
		footer = " ctrl+s: generate   ctrl+o: admin projects   ctrl+c: quit\n"
	}
	return sb.String() + separator + footer
}

func (m AppModel) renderBuilding() string {
	v := m.snapshot
	now := m.deps.Now()
	var sb strings.Builder

	switch v.State {
	case session.StatePolling:
		sb.WriteString(fmt.Sprintf(" Building project %s\n", v.ProjectID))
		sb.WriteString(" " + m.spinner.View() + " " + stage.ProgressMessage(v.BackendStatus) + "\n\n")
	default:
		sb.WriteString(" " + m.spinner.View() + " Creating your project...\n\n")
	}

	stages := v.Stages
	if len(stages) == 0 {
		stages = stage.Initial()
	}
	var currentFor time.Duration
	if !v.CurrentStageStartedAt.IsZero() {
		currentFor = now.Sub(v.CurrentStageStartedAt)
	}
	list := NewStageListModel(stages, v.Current).WithElapsed(currentFor).WithSpinner(m.spinner.View())
	sb.WriteString(list.View() + "\n")

	sb.WriteString(fmt.Sprintf(" %d of %d steps completed   elapsed %s\n",
		stage.Completed(stages), len(stages), stage.FormatElapsed(v.Elapsed(now))))
	if v.LastError != "" {
		sb.WriteString(" " + dimStyle.Render("last check failed: "+v.LastError) + "\n")
	}
	return sb.String() + separator + " esc: cancel   ctrl+c: quit\n"
}

func (m AppModel) renderResult() string {
	v := m.snapshot
	var body strings.Builder
	body.WriteString(doneStyle.Render("✓ Your website is ready!") + "\n")
	if len(v.Links) == 0 {
		body.WriteString(dimStyle.Render("The backend did not report a URL yet.") + "\n")
	}
	for _, l := range v.Links {
		body.WriteString(fmt.Sprintf("%-10s %s\n", l.Kind, linkStyle.Render(l.URL)))
	}
	if !v.StartedAt.IsZero() {
		body.WriteString(dimStyle.Render("built in "+stage.FormatElapsed(v.Elapsed(m.deps.Now()))) + "\n")
	}

	footer := " n: new website   q: quit\n"
	if m.deps.Projects != nil {
		footer = " n: new website   ctrl+o: admin projects   q: quit\n"
	}
	return successPanel.Render(strings.TrimRight(body.String(), "\n")) + "\n" + separator + footer
}

func (m AppModel) renderFailed() string {
	msg := m.failure
	if msg == "" {
		msg = FailureMessage(m.snapshot)
	}
	body := failedStyle.Render("✗ Generation failed") + "\n" + msg
	if len(m.snapshot.Stages) > 0 {
		body += "\n\n" + strings.TrimRight(NewStageListModel(m.snapshot.Stages, -1).View(), "\n")
	}
	return failurePanel.Render(body) + "\n" + separator + " r: retry   e: edit description   n: new website   q: quit\n"
}

func (m AppModel) renderLogin() string {
	var sb strings.Builder
	sb.WriteString(" Admin sign-in\n\n")
	sb.WriteString(" Email     " + m.email.View() + "\n")
	sb.WriteString(" Password  " + m.password.View() + "\n\n")
	if m.loggingIn {
		sb.WriteString(" Signing in...\n")
	}
	if m.loginErr != "" {
		sb.WriteString(" " + errorStyle.Render(m.loginErr) + "\n")
	}
	return sb.String() + separator + " tab: next field   enter: sign in   esc: back\n"
}

func (m AppModel) renderProjects() string {
	if m.loading {
		return " Loading projects...\n"
	}
	if m.err != nil {
		return fmt.Sprintf(" Error: %v\n\n Press 'r' to retry or 'esc' to go back.\n", m.err)
	}
	title := " Projects\n"
	footer := " ↑/↓: navigate   ←/→: page   r: refresh   o: sign out   esc: back   q: quit\n"
	detail := NewProjectDetailModel(m.list.SelectedProject()).View()
	return title + m.list.View() + separator + detail + "\n" + separator + footer
}

// FailureMessage explains a failed session to the user.
func FailureMessage(v session.View) string {
	switch v.Reason {
	case session.ReasonCreation:
		if v.LastError != "" {
			return "The project could not be created: " + v.LastError
		}
		return "The project could not be created."
	case session.ReasonTimeout:
		return fmt.Sprintf("Generation did not finish after %d status checks.", v.Attempts)
	default:
		if v.BackendError != "" {
			return "The backend reported a failure: " + v.BackendError
		}
		return "The backend reported a failure."
	}
}

func isAuthError(err error) bool {
	var expired *provider.AuthExpiredError
	return errors.As(err, &expired) || errors.Is(err, domain.ErrUnauthorized)
}

// Run starts the Bubbletea program and blocks until it exits.
func Run(m AppModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.deps.Context))
	_, err := p.Run()
	return err
}
