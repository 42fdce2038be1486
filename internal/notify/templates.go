package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

const layout = `{{define "layout"}}<div style="width: 100%; max-width: 650px; margin: 0 auto; padding: 1rem; font-family: sans-serif;">
<h1 style="text-align: center; color: #000; font-size: 2rem; font-weight: 700;">{{.Heading}}</h1>
{{template "body" .}}
<p style="text-align: center; color: #000; font-size: 1.2rem;">Regards, the Helpdesk team.</p>
</div>{{end}}`

var bodies = map[string]string{
	"confirm_account": `{{define "body"}}<p style="text-align: center; font-size: 1.2rem;">Hi <strong>{{.Name}}</strong>, thanks for signing up. Open <a href="{{.Link}}">confirm account</a> and enter this code:</p>
<h2 style="text-align: center; font-size: 2rem; font-weight: 700;">{{.Code}}</h2>
<p style="text-align: center; font-size: 1.2rem;">The code expires in {{.ExpiresIn}}. If you did not sign up, ignore this email.</p>{{end}}`,

	"ticket_created": `{{define "body"}}<p style="text-align: center; font-size: 1.2rem;">Hi <strong>{{.Name}}</strong>, <strong>{{.Actor}}</strong> opened the ticket {{.Title}}. See it <a href="{{.Link}}">here</a>.</p>
<div style="max-width: 100%; padding: 16px; white-space: pre-wrap;">{{.Description}}</div>{{end}}`,

	"ticket_assigned": `{{define "body"}}<p style="text-align: center; font-size: 1.2rem;">Hi <strong>{{.Name}}</strong>, your ticket {{.Title}} was assigned to <strong>{{.Actor}}</strong>. See it <a href="{{.Link}}">here</a>.</p>{{end}}`,

	"ticket_in_process": `{{define "body"}}<p style="text-align: center; font-size: 1.2rem;">Hi <strong>{{.Name}}</strong>, <strong>{{.Actor}}</strong> is now working on your ticket {{.Title}}. Due date: <strong>{{.DueDate}}</strong>. See it <a href="{{.Link}}">here</a>.</p>{{end}}`,

	"ticket_closed": `{{define "body"}}<p style="text-align: center; font-size: 1.2rem;">Hi <strong>{{.Name}}</strong>, your ticket {{.Title}}{{if .Assignee}} handled by <strong>{{.Assignee}}</strong>{{end}} has been closed. See it <a href="{{.Link}}">here</a>.</p>{{end}}`,
}

var subjects = map[string]string{
	"confirm_account":   "Confirm your account",
	"ticket_created":    "New ticket",
	"ticket_assigned":   "Ticket assigned",
	"ticket_in_process": "Ticket in process",
	"ticket_closed":     "Ticket closed",
}

// Composer renders notification emails that link back to the web client.
type Composer struct {
	clientURL string
	templates map[string]*template.Template
}

// NewComposer parses the email templates. clientURL is the web client's base URL.
func NewComposer(clientURL string) *Composer {
	c := &Composer{
		clientURL: strings.TrimRight(clientURL, "/"),
		templates: make(map[string]*template.Template, len(bodies)),
	}
	for name, body := range bodies {
		c.templates[name] = template.Must(template.Must(template.New(name).Parse(layout)).Parse(body))
	}
	return c
}

type mailData struct {
	Heading     string
	Name        string
	Actor       string
	Assignee    string
	Title       string
	Description string
	Code        string
	ExpiresIn   string
	DueDate     string
	Link        string
}

// ConfirmAccount renders the email carrying a confirmation code.
func (c *Composer) ConfirmAccount(to, name, code string, ttl time.Duration) (Message, error) {
	return c.render("confirm_account", to, mailData{
		Name:      name,
		Code:      code,
		ExpiresIn: ttl.String(),
		Link:      c.clientURL + "/confirm-account",
	}, fmt.Sprintf("Your confirmation code is %s.", code))
}

// TicketCreated tells a support user that actor opened a ticket.
func (c *Composer) TicketCreated(to, name, actor, ticketID, title, description string) (Message, error) {
	return c.render("ticket_created", to, mailData{
		Name:        name,
		Actor:       actor,
		Title:       title,
		Description: description,
		Link:        c.ticketLink(ticketID),
	}, fmt.Sprintf("%s opened the ticket %s.", actor, title))
}

// TicketAssigned tells the creator which support user took the ticket.
func (c *Composer) TicketAssigned(to, name, actor, ticketID, title string) (Message, error) {
	return c.render("ticket_assigned", to, mailData{
		Name:  name,
		Actor: actor,
		Title: title,
		Link:  c.ticketLink(ticketID),
	}, fmt.Sprintf("Your ticket %s was assigned to %s.", title, actor))
}

// TicketInProcess tells the creator that work started and when it is due.
func (c *Composer) TicketInProcess(to, name, actor, ticketID, title string, dueDate *time.Time) (Message, error) {
	due := FormatDueDate(dueDate)
	return c.render("ticket_in_process", to, mailData{
		Name:    name,
		Actor:   actor,
		Title:   title,
		DueDate: due,
		Link:    c.ticketLink(ticketID),
	}, fmt.Sprintf("Your ticket %s is in process. Due date: %s.", title, due))
}

// TicketClosed tells the creator the ticket was closed. assignee may be empty.
func (c *Composer) TicketClosed(to, name, assignee, ticketID, title string) (Message, error) {
	return c.render("ticket_closed", to, mailData{
		Name:     name,
		Assignee: assignee,
		Title:    title,
		Link:     c.ticketLink(ticketID),
	}, fmt.Sprintf("Your ticket %s has been closed.", title))
}

func (c *Composer) ticketLink(ticketID string) string {
	return c.clientURL + "/tickets/" + ticketID
}

func (c *Composer) render(name, to string, data mailData, text string) (Message, error) {
	tmpl, ok := c.templates[name]
	if !ok {
		return Message{}, fmt.Errorf("unknown email template %q", name)
	}
	data.Heading = subjects[name]

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Message{To: to, Subject: subjects[name], Text: text, HTML: buf.String()}, nil
}

// FormatDueDate renders a due date as D-M-YYYY, or "not set".
func FormatDueDate(t *time.Time) string {
	if t == nil {
		return "not set"
	}
	d := t.UTC()
	return fmt.Sprintf("%d-%d-%d", d.Day(), int(d.Month()), d.Year())
}
