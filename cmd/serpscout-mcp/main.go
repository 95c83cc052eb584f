package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("SERPSCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SERPSCOUT_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "SERPSCOUT_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"serpscout",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	fetchSerpTool := mcp.NewTool("fetch_serp",
		mcp.WithDescription("Fetch organic search results for one or more keywords. Keywords are searched one at a time through a real browser, falling back to search APIs when the browser is blocked. A keyword that could not be fetched is reported as BLOCKED with a reason."),
		mcp.WithArray("keywords",
			mcp.Required(),
			mcp.Description("Keywords to search, in order"),
			mcp.WithStringItems(),
		),
		mcp.WithNumber("per_keyword",
			mcp.Description("Maximum results per keyword (default: 10, max: 100)"),
		),
		mcp.WithBoolean("api_first",
			mcp.Description("Try the search APIs before the browser"),
		),
	)

	s.AddTool(fetchSerpTool, handleFetchSerp(newAPIClient(apiURL, apiKey, 2*time.Second)))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleFetchSerp(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keywords, err := request.RequireStringSlice("keywords")
		if err != nil || len(keywords) == 0 {
			return mcp.NewToolResultError("keywords is required and must be a non-empty array of strings"), nil
		}

		payload := serpRequest{
			Keywords:   keywords,
			PerKeyword: request.GetInt("per_keyword", 0),
			Options:    fetchOptions{APIFirst: request.GetBool("api_first", false)},
		}

		jobID, err := api.createJob(ctx, payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("job creation failed: %v", err)), nil
		}

		status, err := api.waitForJob(ctx, jobID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling job failed: %v", err)), nil
		}
		if status.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", status.Error.Code, status.Error.Message)), nil
		}

		return mcp.NewToolResultText(formatRecords(status)), nil
	}
}

// formatRecords renders a finished job as one block per keyword.
func formatRecords(status *jobStatusResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Job %s: %s (%d/%d keywords)\n", status.ID, status.Status, status.Completed, status.Total)

	current := ""
	for _, r := range status.Records {
		if r.Keyword != current {
			current = r.Keyword
			fmt.Fprintf(&sb, "\n## %s\n", current)
		}
		if r.Blocked {
			reason := "unknown"
			if r.BlockedReason != nil {
				reason = *r.BlockedReason
			}
			fmt.Fprintf(&sb, "BLOCKED: %s\n", reason)
			continue
		}
		fmt.Fprintf(&sb, "%d. %s\n   %s\n", r.Position, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Snippet)
		}
		fmt.Fprintf(&sb, "   (source: %s)\n", r.Source)
	}
	return sb.String()
}
