package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-2.5-flash"

const requestTimeout = 30 * time.Second

// Gemini implements Advisor on the Gemini API
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini advisor. baseURL is only set in tests.
func NewGemini(ctx context.Context, apiKey, model, baseURL string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrDisabled
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Insights asks for a short manager-level analysis of the summary
func (g *Gemini) Insights(ctx context.Context, sum Summary) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	data, err := json.Marshal(sum)
	if err != nil {
		return "", err
	}

	system := fmt.Sprintf("You are the expert Virtual Fleet Manager for '%s'. Provide 3-4 extremely brief, "+
		"high-impact bullet points focusing on profit, maintenance, or growth. Use the ₹ symbol. Keep it under 60 words.", sum.Org)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}

	prompt := fmt.Sprintf("Fleet data for %s: %s. Provide a manager-level analysis.", sum.Org, data)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("insights request failed: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// ScanReceipt extracts a fuel or expense record from a receipt image
func (g *Gemini) ScanReceipt(ctx context.Context, image []byte, mimeType string) (*ScannedReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	parts := []*genai.Part{
		genai.NewPartFromText("Analyze this receipt for a taxi fleet. Determine if it's Fuel (Petrol/CNG) or " +
			"Expense (Toll, Parking, Maintenance). Extract amount, date, and details precisely."),
		genai.NewPartFromBytes(image, mimeType),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   receiptSchema,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		return nil, fmt.Errorf("receipt request failed: %w", err)
	}
	return decodeReceipt(resp.Text())
}

var receiptSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"type":        {Type: genai.TypeString, Description: "Must be 'fuel' or 'expense'"},
		"date":        {Type: genai.TypeString, Description: "Format YYYY-MM-DD"},
		"amount":      {Type: genai.TypeNumber},
		"category":    {Type: genai.TypeString, Description: "Category like 'Fuel', 'Toll', 'Parking', 'Maintenance', 'Wash'"},
		"quantity":    {Type: genai.TypeNumber, Description: "Quantity in Liters/Kg if fuel"},
		"stationName": {Type: genai.TypeString, Description: "Pump/Store name"},
		"notes":       {Type: genai.TypeString},
	},
	Required: []string{"type", "date", "amount"},
}

func decodeReceipt(text string) (*ScannedReceipt, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(text, "```")), "```")

	var r ScannedReceipt
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &r); err != nil {
		return nil, fmt.Errorf("failed to decode receipt: %w", err)
	}
	switch strings.ToLower(r.Type) {
	case "fuel", "expense":
	default:
		return nil, fmt.Errorf("unknown receipt type %q", r.Type)
	}
	return &r, nil
}
