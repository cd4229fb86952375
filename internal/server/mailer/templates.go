package mailer

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
)

const passwordResetSubject = "Roleplay: password recovery"

var passwordResetHTML = htmltemplate.Must(htmltemplate.New("reset.html").Parse(
	`<p>Hello, {{.Username}}!</p>
<p>We received a request to reset your Roleplay password.</p>
<p><a href="{{.Link}}">Reset my password</a></p>
<p>The link is valid for 2 hours. If you did not ask for it, ignore this mail.</p>
`))

var passwordResetText = texttemplate.Must(texttemplate.New("reset.txt").Parse(
	`Hello, {{.Username}}!

We received a request to reset your Roleplay password.
Open this link to choose a new one: {{.Link}}

The link is valid for 2 hours. If you did not ask for it, ignore this mail.
`))

// NewPasswordResetMessage renders the forgot-password mail for username with
// the given reset link.
func NewPasswordResetMessage(toAddress, username, link string) (Message, error) {
	data := struct {
		Username string
		Link     string
	}{Username: username, Link: link}

	var html, text bytes.Buffer
	if err := passwordResetHTML.Execute(&html, data); err != nil {
		return Message{}, err
	}
	if err := passwordResetText.Execute(&text, data); err != nil {
		return Message{}, err
	}

	return Message{
		ToAddress: toAddress,
		ToName:    username,
		Subject:   passwordResetSubject,
		Text:      text.String(),
		HTML:      html.String(),
	}, nil
}
