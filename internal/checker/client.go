package checker

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/avritt/raincheck/internal/commute"
)

// RainCheck is the backend's answer for one route check.
type RainCheck struct {
	WillRain  bool
	Condition string
	MapImage  []byte
}

// Client calls the external weather-analysis backend. The base URL is
// injected rather than held in a package-level singleton so tests can point
// it at a stub server.
type Client struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewClient creates a backend client. The circuit breaker fails fast when
// the backend has been down for a while; there is no retry loop, a failed
// check surfaces as exactly one failure notification.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rain-backend",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL: baseURL,
		client:  httpClient,
		circuit: cb,
	}
}

// checkRainRequest is the wire format of POST /check_rain/.
type checkRainRequest struct {
	User    string `json:"user"`
	Home    string `json:"home"`
	Work    string `json:"work"`
	Vehicle string `json:"vehicle"`
}

type checkRainResponse struct {
	Status    string `json:"status"`
	User      string `json:"user"`
	Vehicle   string `json:"vehicle"`
	ImageB64  string `json:"image_b64"`
	WillRain  *bool  `json:"will_rain"`
	Condition string `json:"weather_condition"`
}

type checkRainError struct {
	Detail string `json:"detail"`
}

// CheckRain runs one route check against the backend. Every error comes
// back as a *commute.Failure so callers never branch on transport details.
func (c *Client) CheckRain(ctx context.Context, user, home, work string, vehicle commute.Vehicle) (RainCheck, *commute.Failure) {
	body, err := json.Marshal(checkRainRequest{
		User:    user,
		Home:    home,
		Work:    work,
		Vehicle: string(vehicle),
	})
	if err != nil {
		return RainCheck{}, &commute.Failure{
			Reason:  commute.ReasonServiceUnavailable,
			Message: fmt.Sprintf("encoding request: %v", err),
		}
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/check_rain/", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.client.Do(req)
	})
	if err != nil {
		msg := "could not reach the weather service"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			msg = "weather service temporarily unavailable"
		}
		return RainCheck{}, &commute.Failure{
			Reason:  commute.ReasonServiceUnavailable,
			Message: fmt.Sprintf("%s: %v", msg, err),
		}
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return RainCheck{}, &commute.Failure{
			Reason:  commute.ReasonServiceUnavailable,
			Message: "unexpected result type from circuit breaker",
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return RainCheck{}, &commute.Failure{
			Reason:  commute.ReasonMalformedResponse,
			Message: fmt.Sprintf("reading response: %v", err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		// The backend reports errors as {"detail": "..."}; pass the
		// message through verbatim.
		var e checkRainError
		if err := json.Unmarshal(raw, &e); err == nil && e.Detail != "" {
			return RainCheck{}, &commute.Failure{
				Reason:  commute.ReasonServiceError,
				Message: e.Detail,
			}
		}
		return RainCheck{}, &commute.Failure{
			Reason:  commute.ReasonServiceError,
			Message: fmt.Sprintf("weather service returned status %d", resp.StatusCode),
		}
	}

	var payload checkRainResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return RainCheck{}, &commute.Failure{
			Reason:  commute.ReasonMalformedResponse,
			Message: fmt.Sprintf("decoding response: %v", err),
		}
	}
	if payload.Status != "ok" || payload.WillRain == nil || payload.Condition == "" {
		return RainCheck{}, &commute.Failure{
			Reason:  commute.ReasonMalformedResponse,
			Message: "weather service response missing expected fields",
		}
	}

	check := RainCheck{
		WillRain:  *payload.WillRain,
		Condition: payload.Condition,
	}

	// The map image is optional; a bad encoding does not fail the check.
	if payload.ImageB64 != "" {
		if img, err := base64.StdEncoding.DecodeString(payload.ImageB64); err == nil {
			check.MapImage = img
		}
	}

	return check, nil
}
