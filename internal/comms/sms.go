package comms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSClient sends text messages through the Twilio REST API
type SMSClient struct {
	rest *twilio.RestClient
	from string
}

// NewSMSClient creates a new Twilio client. A non-empty baseURL sends the API
// calls to a compatible gateway instead of api.twilio.com.
func NewSMSClient(accountSID, authToken, from, baseURL string) (*SMSClient, error) {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid sms base url %q", baseURL)
		}
		httpClient.Transport = rebaseTransport{scheme: u.Scheme, host: u.Host, next: http.DefaultTransport}
	}

	c := &client.Client{
		Credentials: client.NewCredentials(accountSID, authToken),
		HTTPClient:  httpClient,
	}
	c.SetAccountSid(accountSID)

	return &SMSClient{
		rest: twilio.NewRestClientWithParams(twilio.ClientParams{Client: c}),
		from: from,
	}, nil
}

// SendSMS delivers one message to the number. The Twilio call is bounded by
// the client timeout rather than ctx.
func (c *SMSClient) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	if _, err := c.rest.Api.CreateMessage(params); err != nil {
		var apiErr *client.TwilioRestError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("sms gateway error %d: %s", apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("failed to send sms: %w", err)
	}
	return nil
}

// rebaseTransport points requests built for api.twilio.com at another host
type rebaseTransport struct {
	scheme string
	host   string
	next   http.RoundTripper
}

func (t rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.scheme
	req.URL.Host = t.host
	req.Host = t.host
	return t.next.RoundTrip(req)
}
