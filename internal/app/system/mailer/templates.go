// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// SessionEmailData holds data for the session lifecycle emails.
type SessionEmailData struct {
	SiteName      string
	GroupName     string
	SessionName   string // optional
	Date          string // YYYY-MM-DD in the reference zone
	Time          string // HH:MM
	Location      string
	OrganizerName string
	BaseURL       string
}

// BuildInviteEmail announces a newly scheduled session.
func BuildInviteEmail(data SessionEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("[%s] %s: game on %s", data.SiteName, data.GroupName, data.Date),
		TextBody: buildSessionText("You're in! A session has been scheduled.", data),
		HTMLBody: buildSessionHTML("Session scheduled", data),
	}
}

// BuildUpdateEmail announces a rescheduled or edited session.
func BuildUpdateEmail(data SessionEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("[%s] %s: session updated, now %s", data.SiteName, data.GroupName, data.Date),
		TextBody: buildSessionText("The session details have changed.", data),
		HTMLBody: buildSessionHTML("Session updated", data),
	}
}

// BuildCancellationEmail announces a cancelled session.
func BuildCancellationEmail(data SessionEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("[%s] %s: session on %s cancelled", data.SiteName, data.GroupName, data.Date),
		TextBody: buildSessionText("The session has been cancelled.", data),
		HTMLBody: buildSessionHTML("Session cancelled", data),
	}
}

// BuildReminderEmail nudges confirmed participants the day before.
func BuildReminderEmail(data SessionEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("[%s] Reminder: %s plays tomorrow (%s)", data.SiteName, data.GroupName, data.Date),
		TextBody: buildSessionText("Reminder: your session is tomorrow.", data),
		HTMLBody: buildSessionHTML("Session reminder", data),
	}
}

func buildSessionText(lead string, data SessionEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(lead + "\n\n")
	buf.WriteString(fmt.Sprintf("Group:     %s\n", data.GroupName))
	if data.SessionName != "" {
		buf.WriteString(fmt.Sprintf("Session:   %s\n", data.SessionName))
	}
	buf.WriteString(fmt.Sprintf("Date:      %s\n", data.Date))
	buf.WriteString(fmt.Sprintf("Time:      %s\n", data.Time))
	buf.WriteString(fmt.Sprintf("Location:  %s\n", data.Location))
	buf.WriteString(fmt.Sprintf("Organizer: %s\n\n", data.OrganizerName))
	if data.BaseURL != "" {
		buf.WriteString("Manage your availability: " + data.BaseURL + "\n")
	}
	return buf.String()
}

type sessionHTMLData struct {
	Heading string
	SessionEmailData
}

func buildSessionHTML(heading string, data SessionEmailData) string {
	tmpl := template.Must(template.New("session").Parse(sessionHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, sessionHTMLData{Heading: heading, SessionEmailData: data})
	return buf.String()
}

const sessionHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Heading}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <h2 style="margin: 0 0 24px; font-size: 18px; color: #1f2937;">{{.Heading}}</h2>
              <table role="presentation" cellspacing="0" cellpadding="4" style="font-size: 15px; color: #374151;">
                <tr><td style="color: #6b7280;">Group</td><td>{{.GroupName}}</td></tr>
                {{if .SessionName}}<tr><td style="color: #6b7280;">Session</td><td>{{.SessionName}}</td></tr>{{end}}
                <tr><td style="color: #6b7280;">Date</td><td>{{.Date}}</td></tr>
                <tr><td style="color: #6b7280;">Time</td><td>{{.Time}}</td></tr>
                <tr><td style="color: #6b7280;">Location</td><td>{{.Location}}</td></tr>
                <tr><td style="color: #6b7280;">Organizer</td><td>{{.OrganizerName}}</td></tr>
              </table>
              {{if .BaseURL}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="margin-top: 24px;">
                <tr>
                  <td align="center">
                    <a href="{{.BaseURL}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      Manage availability
                    </a>
                  </td>
                </tr>
              </table>
              {{end}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
