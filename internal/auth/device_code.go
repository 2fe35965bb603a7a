package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Guliveer/twitch-eventsub-go/internal/httpclient"
	"github.com/Guliveer/twitch-eventsub-go/internal/logger"
)

// ErrDeviceCodeExpired is returned when the user did not authorize in time.
var ErrDeviceCodeExpired = errors.New("auth: device code expired")

// deviceCodeResponse represents the response from the device code endpoint.
type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
}

// DeviceFlow obtains a user token with the OAuth device code grant, for
// public clients that run on a terminal.
type DeviceFlow struct {
	doer      httpclient.Doer
	clientID  string
	endpoints Endpoints
	clock     clockwork.Clock
	log       *logger.Logger
}

// NewDeviceFlow returns a device code flow for clientID.
func NewDeviceFlow(doer httpclient.Doer, clientID string, log *logger.Logger) *DeviceFlow {
	return &DeviceFlow{
		doer:      doer,
		clientID:  clientID,
		endpoints: DefaultEndpoints(),
		clock:     clockwork.NewRealClock(),
		log:       log,
	}
}

// Login prints the verification URI and user code to out, then waits until
// the user authorizes scopes or the code expires.
func (f *DeviceFlow) Login(ctx context.Context, scopes []string, out io.Writer) (Credentials, error) {
	dc, err := f.requestDeviceCode(ctx, scopes)
	if err != nil {
		return Credentials{}, fmt.Errorf("requesting device code: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "EventSub device login")
	fmt.Fprintln(out, "─────────────────────────────────────")
	fmt.Fprintf(out, "Go to: %s\n", dc.VerificationURI)
	fmt.Fprintf(out, "Enter code: %s\n", dc.UserCode)
	fmt.Fprintln(out, "─────────────────────────────────────")
	fmt.Fprintln(out, "Waiting for authorization...")
	fmt.Fprintln(out)

	tok, err := f.pollForToken(ctx, dc)
	if err != nil {
		return Credentials{}, fmt.Errorf("polling for token: %w", err)
	}

	f.log.Info("Device code login authorized")
	return Credentials{
		ClientID:     f.clientID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}, nil
}

func (f *DeviceFlow) requestDeviceCode(ctx context.Context, scopes []string) (*deviceCodeResponse, error) {
	form := url.Values{
		"client_id": {f.clientID},
		"scopes":    {strings.Join(scopes, " ")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoints.Device,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating device code request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.doer.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "device code", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "device code", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: "device code", Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	var dc deviceCodeResponse
	if err := json.Unmarshal(body, &dc); err != nil {
		return nil, fmt.Errorf("%w: device code: %v", ErrParse, err)
	}
	if dc.DeviceCode == "" || dc.UserCode == "" {
		return nil, fmt.Errorf("%w: device code response missing required fields", ErrParse)
	}
	return &dc, nil
}

// pollForToken polls the token endpoint every interval until the user
// authorizes the device or the code expires.
func (f *DeviceFlow) pollForToken(ctx context.Context, dc *deviceCodeResponse) (*tokenResponse, error) {
	interval := time.Duration(dc.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := f.clock.Now().Add(time.Duration(dc.ExpiresIn) * time.Second)

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("device code login cancelled: %w", ctx.Err())
		case now := <-f.clock.After(interval):
			if now.After(deadline) {
				return nil, ErrDeviceCodeExpired
			}
		}

		tok, slowDown, err := f.requestToken(ctx, dc.DeviceCode)
		if err != nil {
			return nil, err
		}
		if tok != nil {
			return tok, nil
		}
		if slowDown {
			interval += 5 * time.Second
		}
	}
}

// requestToken makes one token request. It returns (nil, _, nil) while
// authorization is still pending.
func (f *DeviceFlow) requestToken(ctx context.Context, deviceCode string) (*tokenResponse, bool, error) {
	form := url.Values{
		"client_id":   {f.clientID},
		"device_code": {deviceCode},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoints.Token,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, false, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.doer.Do(req)
	if err != nil {
		return nil, false, &TransportError{Op: "device token", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &TransportError{Op: "device token", Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var tok tokenResponse
		if err := json.Unmarshal(body, &tok); err != nil {
			return nil, false, fmt.Errorf("%w: device token: %v", ErrParse, err)
		}
		if tok.AccessToken == "" {
			return nil, false, fmt.Errorf("%w: device token: missing access_token", ErrParse)
		}
		return &tok, false, nil

	case http.StatusBadRequest:
		var errResp tokenErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, false, fmt.Errorf("%w: device token error: %v", ErrParse, err)
		}
		switch errResp.Message {
		case "authorization_pending":
			return nil, false, nil
		case "slow_down":
			f.log.Debug("Token endpoint requested slow down")
			return nil, true, nil
		case "expired_token":
			return nil, false, ErrDeviceCodeExpired
		default:
			return nil, false, &TransportError{Op: "device token", Status: errResp.Status, Err: errors.New(errResp.Message)}
		}
	}

	return nil, false, &TransportError{Op: "device token", Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
}
