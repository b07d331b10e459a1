// Package ai answers free-form questions about the store with Gemini,
// letting the model call read-only inventory and sales tools.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultModel  = "gemini-2.0-flash-001"
	maxToolRounds = 4
)

type Agent struct {
	apiKey string
	model  string
	tools  *Tools
	now    func() time.Time
}

func NewAgent(apiKey string, tools *Tools) *Agent {
	return &Agent{apiKey: apiKey, model: defaultModel, tools: tools, now: time.Now}
}

func (a *Agent) systemPrompt() string {
	today := a.now().In(a.tools.loc).Format("2006-01-02")
	return fmt.Sprintf(`Today is %s. You are the inventory assistant of a jewelry store.

RULES:
1. You can only READ data. If asked to change prices, stock or products, explain that this is done from the admin console.
2. If a user asks for PRICE, COST, STOCK, STATUS or DETAILS of a product, call '%s' (pass a search term when the user names a product) and answer from the result.
3. For sales, revenue or profit over a period, call '%s' with YYYY-MM-DD dates.
4. For overall totals, today's figures or low stock, call '%s'.
5. Amounts are in the store currency with two decimals.`, today, ToolCheckInventory, ToolSalesReport, ToolDashboardStats)
}

// Ask runs one question through the model, executing tool calls until the
// model answers in text.
func (a *Agent) Ask(ctx context.Context, message string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(a.systemPrompt()))
	model.Tools = []*genai.Tool{{FunctionDeclarations: declarations()}}

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return textOf(resp), nil
		}

		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			replies = append(replies, a.execute(ctx, call))
		}
		if resp, err = session.SendMessage(ctx, replies...); err != nil {
			return "", err
		}
	}
	return "", errors.New("assistant did not finish after several tool calls")
}

// execute runs a call and reports failures back to the model instead of
// aborting the conversation.
func (a *Agent) execute(ctx context.Context, call genai.FunctionCall) genai.Part {
	result, err := a.tools.Call(ctx, call.Name, call.Args)
	if err != nil {
		result = map[string]any{"error": err.Error()}
	}
	return genai.FunctionResponse{Name: call.Name, Response: result}
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func textOf(resp *genai.GenerateContentResponse) string {
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				return string(txt)
			}
		}
	}
	return "I could not find an answer to that."
}
