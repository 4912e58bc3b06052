package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Provider fetches a user's stored profile and fitness plan as a prompt-ready
// text block. Enrichment is best-effort: callers log failures and omit the
// block rather than failing the request.
type Provider interface {
	GetProfile(ctx context.Context, userID string) (string, error)
}

// HTTPProvider reads profiles from the external user service.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

var _ Provider = &HTTPProvider{}

func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type userProfileResponse struct {
	Name         string   `json:"name"`
	Age          int      `json:"age"`
	FitnessLevel string   `json:"fitness_level"`
	Goals        []string `json:"goals"`
	Plan         string   `json:"plan"`
}

func (p *HTTPProvider) GetProfile(ctx context.Context, userID string) (string, error) {
	url := fmt.Sprintf("%s/api/users/%s", p.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read profile response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("profile service error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var profile userProfileResponse
	if err := json.Unmarshal(bodyBytes, &profile); err != nil {
		return "", fmt.Errorf("decode profile response: %w", err)
	}

	return formatProfile(&profile), nil
}

func formatProfile(p *userProfileResponse) string {
	var b strings.Builder

	if p.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", p.Name)
	}
	if p.Age > 0 {
		fmt.Fprintf(&b, "Age: %d\n", p.Age)
	}
	if p.FitnessLevel != "" {
		fmt.Fprintf(&b, "Fitness level: %s\n", p.FitnessLevel)
	}
	if len(p.Goals) > 0 {
		fmt.Fprintf(&b, "Goals: %s\n", strings.Join(p.Goals, ", "))
	}
	if p.Plan != "" {
		fmt.Fprintf(&b, "Current plan:\n%s\n", p.Plan)
	}

	return strings.TrimRight(b.String(), "\n")
}
