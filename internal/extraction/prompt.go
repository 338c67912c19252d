package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cexll/agentsdk-go/pkg/model"

	"github.com/stellarlinkco/briefclaw/internal/brief"
)

// ToolGetProjectData is the name of the project lookup tool offered to the model.
const ToolGetProjectData = "get_project_data"

const promptIntro = `You are a music licensing brief analyzer and project assistant. Your job is to:
1. Extract structured information from raw client briefs (emails, notes, documents)
2. Update specific fields when the user asks (e.g., "change the budget to X")
3. Answer questions about the current project data
`

const promptTools = `
**TOOLS AVAILABLE**:
You have access to the ` + "`" + ToolGetProjectData + "`" + ` tool. Use it when:
- The user asks a question about the project (budget, client, timeline, etc.)
- You need to know the current state of the project data
- The "Current extracted data" below is empty or missing information
`

const promptRules = `
**IMPORTANT RULES**:
- If the user is asking to change, update, or set a specific field (like "make the title X" or "change the budget to Y"), treat that as a direct update request and return that field with the new value.
- If the user sets the project type or tier explicitly (A, B, C, D, E or Production), return it as "project_type".
- If you already have the data in "Current extracted data", you can answer directly without using a tool.
- Only use the field names listed below. Omit fields you cannot find instead of returning empty values.
`

const promptFormat = `
**Response Format**:
- For extractions/updates: Respond with a JSON object containing the fields you extracted/updated and a "summary" field.
- For questions about the project: Respond with a JSON object containing just a "summary" field with your helpful answer.
`

const extractInstruction = "Process the user's request. If they're asking about project data and you have it in 'Current extracted data', answer their question. If they're pasting a brief, extract the fields and respond with JSON."

const answerInstruction = "Answer the question based on the project data."

// BuildPrompt renders the extraction system prompt for one turn.
func BuildPrompt(current brief.Brief, userMessage string, withTools bool) string {
	var sb strings.Builder
	sb.WriteString(promptIntro)
	if withTools {
		sb.WriteString(promptTools)
	}
	sb.WriteString(promptRules)

	sb.WriteString("\nExtract the following information if present:\n")
	for _, f := range brief.Fields {
		fmt.Fprintf(&sb, "- %s: %s\n", f.Name, f.Description)
	}
	sb.WriteString(promptFormat)

	sb.WriteString("\nCurrent extracted data:\n")
	sb.WriteString(renderBrief(current))
	sb.WriteString("\n\nUser message:\n")
	sb.WriteString(userMessage)
	return sb.String()
}

// BuildAnswerPrompt renders the prompt for the tool-free answer call.
func BuildAnswerPrompt(data brief.Brief, question string) string {
	return fmt.Sprintf(`Based on this project data, answer the user's question concisely and helpfully.

Project Data:
%s

User Question: %s

Provide a clear, direct answer.`, renderBrief(data), question)
}

func renderBrief(b brief.Brief) string {
	if len(b) == 0 {
		return "{}"
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func projectDataTool() model.ToolDefinition {
	return model.ToolDefinition{
		Name: ToolGetProjectData,
		Description: "Fetch the current project brief data from the database. " +
			"Use this tool when you need to answer questions about the project, " +
			"such as budget, client, timeline, creative direction, etc.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"project_id": map[string]any{
					"type":        "string",
					"description": "The UUID of the project to fetch",
				},
			},
			"required": []string{"project_id"},
		},
	}
}
