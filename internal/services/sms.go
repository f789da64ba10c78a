package services

import (
	"fmt"
	"log"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender is the delivery port the OTP engine sends through. Implementations
// may fail transiently; the engine treats any error as DeliveryFailed and does
// not retry.
type SMSSender interface {
	Send(to, body string) error
}

// TwilioSender sends SMS via the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender creates a new Twilio-backed SMS sender.
func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSender{
		client: client,
		from:   from,
	}, nil
}

// Send sends an SMS to the given E.164 phone number.
func (t *TwilioSender) Send(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("failed to send SMS to %s: %v", to, err)
		return err
	}

	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, *resp.ErrorMessage)
	}

	if resp.Sid != nil {
		log.Printf("SMS sent, SID: %s", *resp.Sid)
	}
	return nil
}
