// Package extraction talks to the language model: it builds the extraction
// prompt, offers the project lookup tool and decodes the reply into field
// candidates.
package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/cexll/agentsdk-go/pkg/model"
	"go.uber.org/zap"

	"github.com/stellarlinkco/briefclaw/internal/brief"
)

// DefaultTemperature keeps extraction close to deterministic.
const DefaultTemperature = 0.1

// Completer is the part of model.Model the contract needs.
type Completer interface {
	Complete(ctx context.Context, req model.Request) (*model.Response, error)
}

// Result is either an Extraction or a ToolRequest.
type Result interface {
	isResult()
}

// Extraction is a parsed extraction reply.
type Extraction struct {
	Summary    string
	Candidates []brief.Candidate
	// Dropped lists keys outside the closed field set.
	Dropped []string
}

// ToolRequest is a model request to look up a project before answering.
type ToolRequest struct {
	ProjectID string
}

func (Extraction) isResult()  {}
func (ToolRequest) isResult() {}

type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

type Contract struct {
	model  Completer
	opts   Options
	logger *zap.Logger
}

func New(m Completer, opts Options, logger *zap.Logger) *Contract {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Contract{model: m, opts: opts, logger: logger.Named("extraction")}
}

// Extract asks the model to process one user message against the current
// brief. When offerTool is set the project lookup tool is available and the
// result may be a ToolRequest. Model failures are returned as errors; a reply
// that breaks the contract wraps ErrMalformedOutput.
func (c *Contract) Extract(ctx context.Context, current brief.Brief, userMessage string, offerTool bool) (Result, error) {
	req := c.request(BuildPrompt(current, userMessage, offerTool), extractInstruction)
	if offerTool {
		req.Tools = []model.ToolDefinition{projectDataTool()}
	}

	resp, err := c.model.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("extraction call: empty response")
	}

	if offerTool {
		for _, call := range resp.Message.ToolCalls {
			if call.Name != ToolGetProjectData {
				c.logger.Debug("ignoring unknown tool call", zap.String("tool", call.Name))
				continue
			}
			id, _ := call.Arguments["project_id"].(string)
			c.logger.Debug("model requested project data", zap.String("project_id", id))
			return ToolRequest{ProjectID: strings.TrimSpace(id)}, nil
		}
	}

	ext, err := ParseResponse(resp.Message.TextContent())
	if err != nil {
		c.logger.Debug("extraction reply rejected", zap.Error(err))
		return nil, err
	}
	if len(ext.Dropped) > 0 {
		c.logger.Debug("dropped unknown fields", zap.Strings("fields", ext.Dropped))
	}
	return ext, nil
}

// Answer asks the model, without tools, to answer question from data.
func (c *Contract) Answer(ctx context.Context, data brief.Brief, question string) (string, error) {
	resp, err := c.model.Complete(ctx, c.request(BuildAnswerPrompt(data, question), answerInstruction))
	if err != nil {
		return "", fmt.Errorf("answer call: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("answer call: empty response")
	}
	return strings.TrimSpace(resp.Message.TextContent()), nil
}

func (c *Contract) request(system, instruction string) model.Request {
	temp := c.opts.Temperature
	if temp == 0 {
		temp = DefaultTemperature
	}
	return model.Request{
		System:      system,
		Messages:    []model.Message{{Role: "user", Content: instruction}},
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: &temp,
	}
}
