package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mattermost/mattermost/server/public/pluginapi"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

const (
	// flashModel handles per-incident analysis, dispatch recommendations
	// and summaries
	flashModel = "gemini-1.5-flash"

	// proModel handles cross-incident pattern reasoning
	proModel = "gemini-1.5-pro"

	// summaryMaxTokens caps summary length for the dashboard feed
	summaryMaxTokens = 50

	coordinatorInstruction = "You are an expert emergency response coordinator AI."
)

//go:generate mockgen -source=provider.go -destination=mock_provider_test.go -package=analysis

// Provider generates AI analysis documents for incidents. Implementations
// must be safe for use from the throttle queue's single worker.
type Provider interface {
	// Comprehensive produces the full tactical analysis for one incident.
	Comprehensive(ctx context.Context, inc incident.Incident) (*incident.AnalysisResult, error)

	// Pattern produces a cross-incident trend analysis.
	Pattern(ctx context.Context, incidents []incident.Incident) (*incident.PatternAnalysisResult, error)

	// Recommend selects units to dispatch for an incident.
	Recommend(ctx context.Context, inc incident.Incident, available []incident.EmergencyService) (*incident.DispatchRecommendation, error)

	// Summarize produces a one-sentence incident summary.
	Summarize(ctx context.Context, inc incident.Incident) (string, error)
}

// GeminiProvider implements Provider against the Gemini API. A provider
// constructed without an API key (or whose client fails to initialize)
// stays usable: every call returns ErrProviderUnavailable.
type GeminiProvider struct {
	client *genai.Client
	logger pluginapi.LogService
}

// NewGeminiProvider creates a Gemini-backed provider. Configuration absence
// is not fatal; the provider operates in a permanently-degraded mode.
func NewGeminiProvider(apiKey string, logger pluginapi.LogService) *GeminiProvider {
	p := &GeminiProvider{logger: logger}

	if apiKey == "" {
		logger.Warn("No Gemini API key configured, analysis provider disabled")
		return p
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		logger.Error("Failed to create Gemini client, analysis provider disabled", "error", err.Error())
		return p
	}

	p.client = client
	return p
}

// Close releases the underlying client.
func (p *GeminiProvider) Close() {
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			p.logger.Warn("Failed to close Gemini client", "error", err.Error())
		}
	}
}

// Comprehensive produces the full tactical analysis for one incident using
// a schema-constrained JSON response.
func (p *GeminiProvider) Comprehensive(ctx context.Context, inc incident.Incident) (*incident.AnalysisResult, error) {
	if p.client == nil {
		return nil, ErrProviderUnavailable
	}

	model := p.client.GenerativeModel(flashModel)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(coordinatorInstruction)},
	}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary":                 {Type: genai.TypeString},
			"recommendedUnits":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"hazards":                 {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"tacticalAdvice":          {Type: genai.TypeString},
			"estimatedResolutionTime": {Type: genai.TypeString},
		},
		Required: []string{"summary", "recommendedUnits", "hazards", "tacticalAdvice", "estimatedResolutionTime"},
	}

	prompt := fmt.Sprintf(`Analyze this emergency incident report for a dispatch commander.

Incident Details:
Title: %s
Type: %s
Description: %s
Severity: %s
Location: %s

Provide a tactical analysis including:
1. Executive summary.
2. Recommended unit types.
3. Potential hazards.
4. Tactical advice.
5. Estimated resolution time.`, inc.Title, inc.Type, inc.Description, inc.Severity, inc.Address)

	text, err := p.generate(ctx, model, prompt)
	if err != nil {
		return nil, err
	}

	var result incident.AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, errors.Wrap(ErrMalformedResponse, err.Error())
	}
	if result.Summary == "" || result.TacticalAdvice == "" {
		return nil, errors.Wrap(ErrMalformedResponse, "required analysis fields missing")
	}

	return &result, nil
}

// Pattern produces a cross-incident trend analysis from a bounded window of
// recent incidents.
func (p *GeminiProvider) Pattern(ctx context.Context, incidents []incident.Incident) (*incident.PatternAnalysisResult, error) {
	if p.client == nil {
		return nil, ErrProviderUnavailable
	}

	model := p.client.GenerativeModel(proModel)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary":                {Type: genai.TypeString},
			"hotspots":               {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"predictedRisks":         {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"operationalSuggestions": {Type: genai.TypeString},
		},
	}

	var lines []string
	for _, inc := range incidents {
		lines = append(lines, fmt.Sprintf("- [%s] %s (%s) at %s: %s", inc.Timestamp, inc.Type, inc.Severity, inc.Address, inc.Title))
	}

	prompt := fmt.Sprintf(`Analyze these recent urban incidents to identify patterns for a crisis commander.

Incidents:
%s

Provide:
1. A trend summary.
2. Hotspot locations (streets/areas).
3. Predicted risks for the next 24 hours.
4. Operational suggestions.`, strings.Join(lines, "\n"))

	text, err := p.generate(ctx, model, prompt)
	if err != nil {
		return nil, err
	}

	var result incident.PatternAnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, errors.Wrap(ErrMalformedResponse, err.Error())
	}
	if result.Summary == "" {
		return nil, errors.Wrap(ErrMalformedResponse, "pattern summary missing")
	}

	return &result, nil
}

// Recommend selects units to dispatch based on a point-in-time availability
// snapshot.
func (p *GeminiProvider) Recommend(ctx context.Context, inc incident.Incident, available []incident.EmergencyService) (*incident.DispatchRecommendation, error) {
	if p.client == nil {
		return nil, ErrProviderUnavailable
	}

	model := p.client.GenerativeModel(flashModel)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"unitIds":   {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"rationale": {Type: genai.TypeString},
			"priority":  {Type: genai.TypeString},
		},
	}

	var units []string
	for _, svc := range available {
		units = append(units, fmt.Sprintf("- ID: %s, Name: %s, Type: %s", svc.ID, svc.Name, svc.Type))
	}

	prompt := fmt.Sprintf(`Incident: %s at %s (Severity: %s)
Description: %s

Available Units:
%s

Recommend the specific Unit IDs to dispatch.`, inc.Type, inc.Address, inc.Severity, inc.Description, strings.Join(units, "\n"))

	text, err := p.generate(ctx, model, prompt)
	if err != nil {
		return nil, err
	}

	var result incident.DispatchRecommendation
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, errors.Wrap(ErrMalformedResponse, err.Error())
	}

	return &result, nil
}

// Summarize produces a one-sentence summary for the dashboard feed.
// Failures are the caller's to degrade; this method reports them.
func (p *GeminiProvider) Summarize(ctx context.Context, inc incident.Incident) (string, error) {
	if p.client == nil {
		return "", ErrProviderUnavailable
	}

	model := p.client.GenerativeModel(flashModel)
	model.SetMaxOutputTokens(summaryMaxTokens)

	prompt := fmt.Sprintf("Summarize this incident in one concise sentence for a dashboard feed: %s - %s", inc.Title, inc.Description)

	text, err := p.generate(ctx, model, prompt)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "No summary available.", nil
	}

	return text, nil
}

// generate runs one prompt and returns the concatenated text parts of the
// first candidate.
func (p *GeminiProvider) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", errors.Wrap(err, "provider call failed")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.Wrap(ErrMalformedResponse, "no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return strings.TrimSpace(sb.String()), nil
}
