package mailer

import (
	"dcp/src/lib"
	"fmt"
	"os"
	"time"
)

type DonationReceiptInput struct {
	Email     string
	Name      string
	Amount    int64
	Reference string
	Campaign  string
	Date      time.Time
}

// SendDonationReceipt mails a thank-you receipt for a completed donation.
// Best-effort: callers fire it in a goroutine and only log failures.
func SendDonationReceipt(input *DonationReceiptInput) error {
	campaign := input.Campaign
	if campaign == "" {
		campaign = "General Donation"
	}
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Thank you for your donation of NGN %.2f to <strong>%s</strong>.</p>
		<p>Your payment reference: %s</p>
		<p>Date: %s</p>
	`, input.Name, float64(input.Amount)/100, campaign, input.Reference, input.Date.Format("2006-01-02 15:04"))
	if err := lib.SendMail(&lib.SendMailInput{
		From:     os.Getenv("SMTP_FROM"),
		FromName: "noreply",
		To:       []string{input.Email},
		Subject:  "Thank you for your donation",
		Body:     body,
		Html:     true,
	}); err != nil {
		return err
	}
	return nil
}
