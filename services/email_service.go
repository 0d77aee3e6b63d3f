package services

import (
	"bytes"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/Dosada05/club-system/config"
)

//go:embed templates/emails/*.html
var emailTemplates embed.FS

const (
	templatePasswordReset   = "password_reset.html"
	templatePasswordChanged = "password_changed.html"
	templateAccountCreated  = "account_created.html"
	templateEventReminder   = "event_reminder.html"
)

// Mailer отправляет готовое HTML-письмо. Реализуется EmailService, в тестах - фейком.
type Mailer interface {
	SendEmail(to []string, subject string, body string) error
}

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func parseEmailTemplates() (map[string]*template.Template, error) {
	names := []string{templatePasswordReset, templatePasswordChanged, templateAccountCreated, templateEventReminder}
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.ParseFS(emailTemplates, "templates/emails/layout.html", "templates/emails/"+name)
		if err != nil {
			return nil, fmt.Errorf("błąd parsowania szablonu %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// SendEmail отправляет письмо всем адресатам одним SMTP-сеансом.
// При нескольких получателях адреса не раскрываются в заголовке To.
// Если SMTP не настроен, письмо только логируется.
func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("brak odbiorców")
	}
	if s.cfg.SMTPHost == "" {
		slog.Warn("smtp is not configured, email dropped", slog.String("subject", subject), slog.Int("recipients", len(to)))
		return nil
	}

	toHeader := to[0]
	if len(to) > 1 {
		toHeader = "undisclosed-recipients:;"
	}
	msg := []byte("To: " + toHeader + "\r\n" +
		"From: " + s.cfg.MailFrom + "\r\n" +
		"Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n" +
		"Date: " + time.Now().Format(time.RFC1123Z) + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	tlsconfig := &tls.Config{ServerName: s.cfg.SMTPHost}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("błąd połączenia TLS: %w", err)
		}
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return fmt.Errorf("błąd tworzenia klienta SMTP: %w", err)
		}
	} else {
		// STARTTLS (обычно порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("błąd połączenia SMTP: %w", err)
		}
		client = c
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err = client.StartTLS(tlsconfig); err != nil {
				client.Close()
				return fmt.Errorf("błąd STARTTLS: %w", err)
			}
		}
	}
	defer client.Quit()

	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("błąd uwierzytelniania SMTP: %w", err)
		}
	}

	if err := client.Mail(s.cfg.MailFrom); err != nil {
		return fmt.Errorf("błąd MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("błąd RCPT TO %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("błąd DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("błąd zapisu wiadomości: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("błąd zamknięcia DATA: %w", err)
	}
	return nil
}

func renderEmail(templates map[string]*template.Template, name string, subject string, data interface{}) (string, error) {
	t, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("nieznany szablon %s", name)
	}
	var body bytes.Buffer
	err := t.ExecuteTemplate(&body, "layout", struct {
		Subject  string
		ClubName string
		Data     interface{}
	}{Subject: subject, ClubName: "Klub Piłkarski", Data: data})
	if err != nil {
		return "", fmt.Errorf("błąd wykonania szablonu %s: %w", name, err)
	}
	return body.String(), nil
}

// MailComposer строит темы и тексты писем из встроенных шаблонов.
type MailComposer struct {
	templates   map[string]*template.Template
	frontendURL string
}

func NewMailComposer(frontendURL string) (*MailComposer, error) {
	templates, err := parseEmailTemplates()
	if err != nil {
		return nil, err
	}
	return &MailComposer{templates: templates, frontendURL: strings.TrimRight(frontendURL, "/")}, nil
}

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "użytkowniku"
	}
	return name
}

func (c *MailComposer) passwordReset(name, token string, ttl time.Duration) (string, string, error) {
	subject := "Reset hasła – Klub Piłkarski"
	body, err := renderEmail(c.templates, templatePasswordReset, subject, map[string]interface{}{
		"Name":             greetingName(name),
		"ResetLink":        c.frontendURL + "/reset-password?token=" + token,
		"ExpiresInMinutes": int(ttl.Minutes()),
	})
	return subject, body, err
}

func (c *MailComposer) passwordChanged(name string) (string, string, error) {
	subject := "Hasło zmienione – Klub Piłkarski"
	body, err := renderEmail(c.templates, templatePasswordChanged, subject, map[string]interface{}{"Name": greetingName(name)})
	return subject, body, err
}

func (c *MailComposer) accountCreated(name, email, role, tempPassword string) (string, string, error) {
	subject := "Twoje konto w klubie"
	body, err := renderEmail(c.templates, templateAccountCreated, subject, map[string]interface{}{
		"Name":              name,
		"Email":             email,
		"Role":              role,
		"TemporaryPassword": tempPassword,
		"LoginLink":         c.frontendURL + "/login",
	})
	return subject, body, err
}

func (c *MailComposer) eventReminder(title, typ, when, location, description string) (string, string, error) {
	subject := fmt.Sprintf("Przypomnienie: %s (%s) – %s", title, typ, when)
	body, err := renderEmail(c.templates, templateEventReminder, subject, map[string]interface{}{
		"Title":       title,
		"Type":        typ,
		"When":        when,
		"Location":    location,
		"Description": description,
	})
	return subject, body, err
}
