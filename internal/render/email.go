package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money": Money,
	"date":  Date,
	"qty":   quantity,
}).ParseFS(templateFS, "templates/*.html"))

// Email is a rendered email: subject, HTML body and a plain-text fallback.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

// ReminderCopy is the wording of one reminder in the J+3/J+7/J+14 series.
type ReminderCopy struct {
	Title   string
	Intro   string
	Urgency string
}

var reminderCopies = []ReminderCopy{
	{
		Title:   "Rappel : Votre devis vous attend",
		Intro:   "Il y a quelques jours, nous vous avons envoyé un devis. Nous souhaitons nous assurer que vous l'avez bien reçu.",
		Urgency: "N'hésitez pas à nous contacter si vous avez des questions.",
	},
	{
		Title:   "Relance : Votre devis est toujours valable",
		Intro:   "Nous vous relançons concernant le devis que nous vous avons transmis. Il est toujours valable et nous restons à votre disposition.",
		Urgency: "Nous serions ravis de pouvoir vous accompagner dans ce projet.",
	},
	{
		Title:   "Dernière relance : Votre devis expire bientôt",
		Intro:   "Ceci est notre dernière relance concernant votre devis. Celui-ci expire prochainement.",
		Urgency: "Si vous souhaitez bénéficier de cette offre, n'hésitez pas à nous contacter rapidement.",
	},
}

// ReminderCopyFor returns the wording for reminder seq (1-based). Sequences
// past the last one reuse the final wording.
func ReminderCopyFor(seq int) ReminderCopy {
	switch {
	case seq < 1:
		return reminderCopies[0]
	case seq > len(reminderCopies):
		return reminderCopies[len(reminderCopies)-1]
	}
	return reminderCopies[seq-1]
}

// QuoteEmail renders the email carrying a quote.
func QuoteEmail(doc QuoteDocument) (Email, error) {
	html, err := execute("quote_email.html", doc)
	if err != nil {
		return Email{}, err
	}
	var text strings.Builder
	fmt.Fprintf(&text, "Bonjour %s,\n\n", doc.ClientName())
	fmt.Fprintf(&text, "Vous trouverez ci-joint votre devis \"%s\" d'un montant de %s TTC.\n", doc.Quote.Title, Money(doc.Quote.AmountTTC))
	if doc.URL != "" {
		fmt.Fprintf(&text, "\nConsultez et acceptez-le en ligne : %s\n", doc.URL)
	}
	fmt.Fprintf(&text, "\n%s\n", doc.Company())

	return Email{
		Subject: fmt.Sprintf("Devis : %s - %s", doc.Quote.Title, doc.Company()),
		HTML:    html,
		Text:    text.String(),
	}, nil
}

// ReminderEmail renders the reminder email for the given sequence.
func ReminderEmail(doc QuoteDocument, seq int) (Email, error) {
	cp := ReminderCopyFor(seq)
	html, err := execute("reminder_email.html", struct {
		Doc  QuoteDocument
		Copy ReminderCopy
	}{doc, cp})
	if err != nil {
		return Email{}, err
	}
	text := fmt.Sprintf("Bonjour %s,\n\n%s\n\nDevis : %s (%s TTC)\n%s\n\n%s\n\n%s\n",
		doc.ClientName(), cp.Intro, doc.Quote.Title, Money(doc.Quote.AmountTTC), doc.URL, cp.Urgency, doc.Company())
	return Email{
		Subject: fmt.Sprintf("%s - %s", cp.Title, doc.Company()),
		HTML:    html,
		Text:    text,
	}, nil
}

// QuoteSMS is the text message carrying the quote link.
func QuoteSMS(doc QuoteDocument) string {
	return fmt.Sprintf("Bonjour %s, votre devis \"%s\" est disponible : %s. Total: %s€ TTC. - %s",
		doc.ClientName(), doc.Quote.Title, doc.URL, Amount(doc.Quote.AmountTTC), doc.Company())
}

// Amount formats a sum with two decimals and no currency sign.
func Amount(v float64) string {
	return strings.TrimSuffix(Money(v), " €")
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
