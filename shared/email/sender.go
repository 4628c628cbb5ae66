package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"coursespider/internal/models"
	"coursespider/shared/config"
)

// Sender mails the run report to the configured operator address.
type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{config: cfg}
}

func (s *Sender) SendReport(report *models.RunReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	subject := fmt.Sprintf("Course Collection Report - %d accepted, %d updated (%s)",
		report.Accepted, report.Updated, time.Now().Format("Jan 2, 2006"))

	return s.sendViaSMTP(subject, formatReport(report))
}

func formatReport(report *models.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "State: %s\n", report.State)
	fmt.Fprintf(&b, "Discovered: %d\n", report.Discovered)
	fmt.Fprintf(&b, "Accepted:   %d\n", report.Accepted)
	fmt.Fprintf(&b, "Updated:    %d\n", report.Updated)
	fmt.Fprintf(&b, "Unchanged:  %d\n", report.Unchanged)
	fmt.Fprintf(&b, "Rejected:   %d\n", report.Rejected)
	fmt.Fprintf(&b, "Quota used: %d\n", report.QuotaUsed)

	if len(report.Rejections) > 0 {
		b.WriteString("\nRejections:\n")
		for _, r := range report.Rejections {
			fmt.Fprintf(&b, "- %s (%s): %s", r.Title, r.YoutubeID, r.Reason)
			if len(r.VideoIDs) > 0 {
				fmt.Fprintf(&b, " [%s]", strings.Join(r.VideoIDs, ", "))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
Content-Type: text/plain; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}
