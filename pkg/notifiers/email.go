package notifiers

import (
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/diegogliarte/web-hunter/internal/domain"
)

const smtpPasswordEnv = "SMTP_PASSWORD"

// sendMailFunc matches smtp.SendMail and is swapped out in tests.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// emailNotifier renders the digest as an HTML report and delivers it over
// SMTP.
type emailNotifier struct {
	id       string
	cfg      EmailConfig
	password string
	send     sendMailFunc
	log      Logger
}

func newEmailNotifier(_ context.Context, cfg NotifierConfig, log Logger) (Notifier, error) {
	if cfg.Email == nil {
		return nil, fmt.Errorf("notifier %q missing email configuration", cfg.ID)
	}

	return &emailNotifier{
		id:       cfg.ID,
		cfg:      *cfg.Email,
		password: os.Getenv(smtpPasswordEnv),
		send:     smtp.SendMail,
		log:      ensureLogger(log),
	}, nil
}

func (e *emailNotifier) ID() string   { return e.id }
func (e *emailNotifier) Type() string { return TypeEmail }

// Notify renders and sends the digest email.
func (e *emailNotifier) Notify(_ context.Context, digest domain.Digest) error {
	body, err := renderDigestHTML(digest)
	if err != nil {
		return fmt.Errorf("render digest: %w", err)
	}

	msg := buildMessage(e.cfg.From, e.cfg.To, e.cfg.Subject, body)

	var auth smtp.Auth
	if e.cfg.Username != "" && e.password != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.password, e.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	if err := e.send(addr, auth, e.cfg.From, e.cfg.To, msg); err != nil {
		return fmt.Errorf("send digest email: %w", err)
	}

	e.log.DebugObj("email notifier delivered digest", "notifier_email_delivery", map[string]any{
		"notifier_id": e.id,
		"recipients":  len(e.cfg.To),
	})
	return nil
}

// buildMessage assembles a minimal HTML MIME message.
func buildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// digestView is the template model: listings sorted soonest-expiring first
// (null expirations last), failures grouped per source.
type digestView struct {
	ListingCount int
	FailureCount int
	Sources      []sourceView
}

type sourceView struct {
	Name     string
	Listings []listingView
	Failures []domain.Failure
}

type listingView struct {
	Name     string
	URL      string
	Price    string
	TimeLeft string

	expiration *time.Time
}

var digestTemplate = template.Must(template.New("digest").Parse(`<html><body>
<h2 style="color: navy;">WebHunter Daily Digest</h2>
{{if gt .ListingCount 0}}<h3 style="color: green;">Total Deals Discovered: {{.ListingCount}}</h3>{{end}}
{{if gt .FailureCount 0}}<h3 style="color: red;">Total Errors: {{.FailureCount}}</h3>{{end}}
{{if gt .ListingCount 0}}<h4><u>Deals:</u></h4>
<ul>
{{range .Sources}}{{if .Listings}}<li><strong>{{.Name}}</strong>:<ul>
{{range .Listings}}<li><a href="{{.URL}}">{{.Name}}</a>{{if .Price}} {{.Price}}{{end}}{{if .TimeLeft}} {{.TimeLeft}}{{end}}</li>
{{end}}</ul></li>
{{end}}{{end}}</ul>{{end}}
{{if gt .FailureCount 0}}<h4><u>Error Log:</u></h4>
<ul>
{{range .Sources}}{{if .Failures}}<li><strong>{{.Name}} Issues:</strong><ul>
{{range .Failures}}<li style="color: crimson;">Error: {{.Message}} (Code: {{.Code}})</li>
{{end}}</ul></li>
{{end}}{{end}}</ul>{{end}}
</body></html>`))

// renderDigestHTML renders the digest into the email body.
func renderDigestHTML(digest domain.Digest) (string, error) {
	view := buildDigestView(digest, time.Now())

	var b strings.Builder
	if err := digestTemplate.Execute(&b, view); err != nil {
		return "", err
	}
	return b.String(), nil
}

func buildDigestView(digest domain.Digest, now time.Time) digestView {
	listings, failures := digest.Counts()
	view := digestView{ListingCount: listings, FailureCount: failures}

	for _, src := range digest.Sources() {
		sv := sourceView{Name: src}
		for _, r := range digest[src] {
			switch {
			case r.IsFailure():
				sv.Failures = append(sv.Failures, *r.Failure)
			case r.Listing != nil:
				sv.Listings = append(sv.Listings, listingView{
					Name:       r.Listing.Name,
					URL:        r.Listing.URL,
					Price:      formatPrice(r.Listing.Price),
					TimeLeft:   timeLeft(r.Listing.Expiration, now),
					expiration: r.Listing.Expiration,
				})
			}
		}
		// Soonest expiration first; listings without one go last.
		sort.SliceStable(sv.Listings, func(i, j int) bool {
			a, b := sv.Listings[i].expiration, sv.Listings[j].expiration
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return a.Before(*b)
		})
		view.Sources = append(view.Sources, sv)
	}
	return view
}

func formatPrice(price *float64) string {
	if price == nil {
		return ""
	}
	return fmt.Sprintf("(%.2f)", *price)
}

// timeLeft renders a human countdown like "(3 days left)".
func timeLeft(expiration *time.Time, now time.Time) string {
	if expiration == nil {
		return ""
	}
	remaining := expiration.Sub(now)
	if remaining <= 0 {
		return "(expired)"
	}

	days := int(remaining.Hours()) / 24
	if days > 0 {
		unit := "days"
		if days == 1 {
			unit = "day"
		}
		return fmt.Sprintf("(%d %s left)", days, unit)
	}

	hours := int(remaining.Hours())
	if hours > 0 {
		unit := "hours"
		if hours == 1 {
			unit = "hour"
		}
		return fmt.Sprintf("(%d %s left)", hours, unit)
	}
	return "(less than an hour left)"
}
