// Package tools exposes extraction and record queries as MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lifeos/internal/model"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Extractor interface {
	Extract(ctx context.Context, text string) model.ExtractionResult
}

type Answerer interface {
	Answer(ctx context.Context, question string, userID int64) string
}

type ExtractArgs struct {
	Text string `json:"text" jsonschema:"required,description=Free text describing a life event, expense or mood"`
}

type AskArgs struct {
	Question string `json:"question" jsonschema:"required,description=Natural language question about the user's records"`
	UserID   int64  `json:"user_id" jsonschema:"required,description=Id of the user whose records are queried"`
}

// Register adds the tools to s. answerer may be nil when no database is
// configured; ask_records then reports that it is unavailable.
func Register(s *server.MCPServer, extractor Extractor, answerer Answerer) {
	s.AddTool(mcp.NewTool("extract_record",
		mcp.WithDescription("Extract a structured life record (types, amount, tags, emotion score, time, summary) from free text. Nothing is saved."),
		mcp.WithInputSchema[ExtractArgs](),
	), wrapExtract(extractor))

	s.AddTool(mcp.NewTool("ask_records",
		mcp.WithDescription("Answer a question about a user's saved life records, e.g. spending this week or average mood."),
		mcp.WithInputSchema[AskArgs](),
	), wrapAsk(answerer))
}

func wrapExtract(extractor Extractor) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ExtractArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		result := extractor.Extract(ctx, args.Text)

		data, err := json.Marshal(result)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func wrapAsk(answerer Answerer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if answerer == nil {
			return mcp.NewToolResultError("record queries need DATABASE_URL to be configured"), nil
		}

		var args AskArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		if strings.TrimSpace(args.Question) == "" || args.UserID <= 0 {
			return mcp.NewToolResultError("question and a positive user_id are required"), nil
		}

		return mcp.NewToolResultText(answerer.Answer(ctx, args.Question, args.UserID)), nil
	}
}
