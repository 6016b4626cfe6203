package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title    string
	Heading  string
	CTALabel string
	CTAURL   string
}

// BusinessLeadData feeds the internal lead notification (stage 1 and 2).
type BusinessLeadData struct {
	baseEmailData
	FullName   string
	Phone      string
	Email      string
	TruckType  string
	TruckSize  string
	Equipment  []string
	Notes      string
	IsComplete bool
}

// PartialNoticeData feeds the customer partial-lead notice and reminder.
type PartialNoticeData struct {
	baseEmailData
	FullName   string
	IsReminder bool
}

// ConfirmationData feeds the customer completion confirmation.
type ConfirmationData struct {
	baseEmailData
	FullName string
}

// QuoteData feeds the quote-to-client email.
type QuoteData struct {
	baseEmailData
	FullName       string
	QuoteNumber    string
	TotalFormatted string
}

// CompletionLinkData feeds the continue-your-configuration email.
type CompletionLinkData struct {
	baseEmailData
	FullName string
}

// RenderBusinessLead renders the internal lead notification.
func RenderBusinessLead(data BusinessLeadData, adminURL string) (string, error) {
	heading := "New partial lead"
	if data.IsComplete {
		heading = "Configurator completed"
	}
	data.baseEmailData = baseEmailData{
		Title:    heading,
		Heading:  heading,
		CTALabel: "Open in back-office",
		CTAURL:   adminURL,
	}
	return render("business_lead.html", data)
}

// RenderPartialNotice renders the customer notice or reminder, with a link
// back into the saved configurator session.
func RenderPartialNotice(data PartialNoticeData, resumeURL string) (string, error) {
	heading := "Your configuration is saved"
	if data.IsReminder {
		heading = "Your food truck is still waiting"
	}
	data.baseEmailData = baseEmailData{
		Title:    heading,
		Heading:  heading,
		CTALabel: "Continue configuring",
		CTAURL:   resumeURL,
	}
	return render("partial_notice.html", data)
}

// RenderConfirmation renders the customer completion confirmation.
func RenderConfirmation(data ConfirmationData) (string, error) {
	data.baseEmailData = baseEmailData{
		Title:   "We received your configuration",
		Heading: "We received your configuration",
	}
	return render("confirmation.html", data)
}

// RenderQuote renders the quote-to-client email linking the hosted document.
func RenderQuote(data QuoteData, quoteURL string) (string, error) {
	data.baseEmailData = baseEmailData{
		Title:    "Your price quote is ready",
		Heading:  "Your price quote is ready",
		CTALabel: "View your quote",
		CTAURL:   quoteURL,
	}
	return render("quote.html", data)
}

// RenderCompletionLink renders the continue-your-configuration email.
func RenderCompletionLink(data CompletionLinkData, completionURL string) (string, error) {
	data.baseEmailData = baseEmailData{
		Title:    "Continue your configuration",
		Heading:  "Continue your configuration",
		CTALabel: "Continue configuring",
		CTAURL:   completionURL,
	}
	return render("completion_link.html", data)
}

func render(name string, data any) (string, error) {
	tmpl, err := template.New("base.html").ParseFS(templateFS, "templates/base.html", "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

var ilsPrinter = message.NewPrinter(language.English)

// FormatILS formats an amount as a grouped ILS string, e.g. "₪62,540".
func FormatILS(amount float64) string {
	return ilsPrinter.Sprintf("₪%.0f", amount)
}
