package google

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/slotcal/slotcal-api/internal/service"
)

const tokenURL = "https://oauth2.googleapis.com/token"

type Client struct {
	clientID     string
	clientSecret string
}

func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// RefreshAccessToken exchanges a refresh token for a fresh access token.
// The result carries exactly what Google returned: the refresh token is
// empty unless Google rotated it.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*service.TokenRefreshResult, error) {
	config := &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: tokenURL,
		},
	}

	token := &oauth2.Token{
		RefreshToken: refreshToken,
	}

	newToken, err := config.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	result := &service.TokenRefreshResult{
		AccessToken: newToken.AccessToken,
		ExpiresAt:   newToken.Expiry,
		TokenType:   newToken.TokenType,
	}
	if newToken.RefreshToken != refreshToken {
		result.RefreshToken = newToken.RefreshToken
	}
	if idToken, ok := newToken.Extra("id_token").(string); ok {
		result.IDToken = idToken
	}
	if scope, ok := newToken.Extra("scope").(string); ok {
		result.Scope = scope
	}

	log.Printf("Token refreshed successfully, expires at: %s", result.ExpiresAt)

	return result, nil
}

// ListBusyTimes queries the primary calendar's free/busy information for
// [from, to] and returns the occupied ranges.
func (c *Client) ListBusyTimes(ctx context.Context, accessToken string, from, to time.Time) ([]service.BusyRange, error) {
	token := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}

	calendarService, err := calendar.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	query := &calendar.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: "primary"}},
	}

	result, err := calendarService.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	var ranges []service.BusyRange
	for _, cal := range result.Calendars {
		for _, calErr := range cal.Errors {
			return nil, fmt.Errorf("freebusy lookup error: %s", calErr.Reason)
		}
		for _, busy := range cal.Busy {
			start, err := time.Parse(time.RFC3339, busy.Start)
			if err != nil {
				return nil, fmt.Errorf("failed to parse busy start %q: %w", busy.Start, err)
			}
			end, err := time.Parse(time.RFC3339, busy.End)
			if err != nil {
				return nil, fmt.Errorf("failed to parse busy end %q: %w", busy.End, err)
			}
			ranges = append(ranges, service.BusyRange{Start: start, End: end})
		}
	}

	log.Printf("Calendar API returned %d busy range(s) between %s and %s", len(ranges), from, to)

	return ranges, nil
}
