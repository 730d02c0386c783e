package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-pos-ledger/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const modelName = "gemini-2.0-flash-001"

var ErrNoReply = errors.New("model returned no usable reply")

// ScannedItem mirrors one line of a supplier invoice as we ask the model to
// read it. Quantity is the amount purchased, cost the per-unit buy price,
// price a suggested sell price (zero when the invoice doesn't imply one).
type ScannedItem struct {
	Name     string  `json:"name"`
	Variant  string  `json:"variant"`
	Quantity float64 `json:"quantity"`
	Cost     float64 `json:"cost"`
	Price    float64 `json:"price"`
}

// ScanInvoice sends a photographed supplier invoice to Gemini and parses the
// structured line items out of its reply. Parsing is all-or-nothing: a
// malformed reply is an error, never a partial import.
func ScanInvoice(ctx context.Context, apiKey string, image []byte, format string) ([]ScannedItem, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"

	prompt := `SYSTEM: You are reading a supplier invoice for a small retail shop.
Extract every purchased line item. Reply ONLY with a JSON array where each
element is {"name": string, "variant": string, "quantity": number,
"cost": number, "price": number}. "cost" is the per-unit purchase price.
Use 0 for anything the invoice does not state. No markdown, no commentary.`

	resp, err := model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.ImageData(format, image),
	)
	if err != nil {
		return nil, err
	}

	reply := textReply(resp)
	if reply == "" {
		return nil, ErrNoReply
	}

	var items []ScannedItem
	if err := json.Unmarshal([]byte(stripFences(reply)), &items); err != nil {
		return nil, fmt.Errorf("could not parse invoice items: %w", err)
	}
	return items, nil
}

// RestockSuggestions asks Gemini to turn the low-stock list and recent sales
// velocity into a short, actionable restock plan for the shop owner.
func RestockSuggestions(ctx context.Context, apiKey string, low []models.Product, velocity map[string]float64) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)

	var sb strings.Builder
	today := time.Now().Format("2006-01-02")
	fmt.Fprintf(&sb, `SYSTEM: Today is %s. You advise a small retail shop on restocking.
Below are products at or below their minimum stock level, with units sold in
the last 30 days. Suggest order quantities and call out anything selling fast
enough to deserve a bigger buffer. Keep it short and practical.

`, today)
	for _, p := range low {
		name := p.Name
		if p.Variant != "" {
			name += " " + p.Variant
		}
		fmt.Fprintf(&sb, "- %s: stock %.2f, minimum %.2f, sold last 30 days %.2f, supplier %s\n",
			name, p.Stock, p.MinStockLevel, velocity[p.ID], p.Seller)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(sb.String()))
	if err != nil {
		return "", err
	}

	reply := textReply(resp)
	if reply == "" {
		return "", ErrNoReply
	}
	return reply, nil
}

func textReply(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

// stripFences tolerates models that wrap JSON in ```json fences anyway.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
