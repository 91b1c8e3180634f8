package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// authForm backs both the first-run setup screen and the login screen. The
// two differ only in which endpoint the submission hits.
type authForm struct {
	username textinput.Model
	password textinput.Model

	focusPassword bool
	submitting    bool
	errMsg        string
}

func newAuthForm() authForm {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Width = 32
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 32
	password.EchoMode = textinput.EchoPassword

	return authForm{username: username, password: password}
}

func (f authForm) update(msg tea.Msg) (authForm, tea.Cmd) {
	var cmd tea.Cmd
	if f.focusPassword {
		f.password, cmd = f.password.Update(msg)
	} else {
		f.username, cmd = f.username.Update(msg)
	}
	return f, cmd
}

func (f *authForm) toggleFocus() {
	f.focusPassword = !f.focusPassword
	if f.focusPassword {
		f.username.Blur()
		f.password.Focus()
	} else {
		f.password.Blur()
		f.username.Focus()
	}
}

// values returns the trimmed credentials; ok is false when either is empty.
func (f authForm) values() (username, password string, ok bool) {
	username = strings.TrimSpace(f.username.Value())
	password = f.password.Value()
	ok = username != "" && password != ""
	return username, password, ok
}
