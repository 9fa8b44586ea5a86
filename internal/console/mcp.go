package console

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/dashboard"
	"github.com/kalambet/recapture/internal/viewmodel"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Dashboard *dashboard.Dashboard
	// Language is sent with clone chat turns; nil sends none.
	Language func() string
}

// chatSessions keeps one clone chat per subject across tool calls.
type chatSessions struct {
	mu       sync.Mutex
	sessions map[string]*viewmodel.ChatSession
}

func (c *chatSessions) get(d *dashboard.Dashboard, subjectID string, language func() string) (*viewmodel.ChatSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[subjectID]; ok {
		return s, nil
	}
	s, err := d.Clones.Session(subjectID, language)
	if err != nil {
		return nil, err
	}
	c.sessions[subjectID] = s
	return s, nil
}

// NewMCPServer creates an MCP server with the recapture tools and
// resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"recapture",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("recapture: guardian dashboard for subjects, their trusted authorities, the intel inbox and the live listening feed."),
		server.WithRecovery(),
	)
	chats := &chatSessions{sessions: make(map[string]*viewmodel.ChatSession)}

	s.AddTool(
		mcp.NewTool("list_subjects",
			mcp.WithDescription("List monitored subjects with their risk level."),
		),
		mcpListSubjects(deps),
	)
	s.AddTool(
		mcp.NewTool("list_authorities",
			mcp.WithDescription("List the trusted authorities of a subject. Selects the subject on the dashboard."),
			mcp.WithString("subject_id", mcp.Description("Subject id (defaults to the current selection)")),
		),
		mcpListAuthorities(deps),
	)
	s.AddTool(
		mcp.NewTool("feed_snapshot",
			mcp.WithDescription("Refresh and return the live listening feed."),
			mcp.WithNumber("page", mcp.Description("Page to show in paginated mode")),
		),
		mcpFeedSnapshot(deps),
	)
	s.AddTool(
		mcp.NewTool("approve_content",
			mcp.WithDescription("Approve a pending intel item for training."),
			mcp.WithString("id", mcp.Description("Content item id"), mcp.Required()),
		),
		mcpContentAction(deps, "Approved", (*dashboard.IntelCenter).Approve),
	)
	s.AddTool(
		mcp.NewTool("discard_content",
			mcp.WithDescription("Discard a pending intel item."),
			mcp.WithString("id", mcp.Description("Content item id"), mcp.Required()),
		),
		mcpContentAction(deps, "Discarded", (*dashboard.IntelCenter).Discard),
	)
	s.AddTool(
		mcp.NewTool("analyze_text",
			mcp.WithDescription("Run a one-shot radicalization risk analysis on a piece of text."),
			mcp.WithString("text", mcp.Description("Text to analyze"), mcp.Required()),
			mcp.WithString("subject_id", mcp.Description("Subject the text belongs to")),
		),
		mcpAnalyzeText(deps),
	)
	s.AddTool(
		mcp.NewTool("clone_chat",
			mcp.WithDescription("Send a practice message to a subject's digital clone and get its reply with an effectiveness score."),
			mcp.WithString("subject_id", mcp.Description("Subject whose clone to talk to"), mcp.Required()),
			mcp.WithString("message", mcp.Description("Message to send"), mcp.Required()),
		),
		mcpCloneChat(deps, chats),
	)

	s.AddResource(
		mcp.NewResource(
			"recapture://feed",
			"Listening Feed",
			mcp.WithResourceDescription("Current listening feed snapshot as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceFeed(deps),
	)

	return s
}

func mcpListSubjects(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := deps.Dashboard.Subjects.Load(ctx); err != nil {
			return mcpError(fmt.Sprintf("listing subjects: %v", err)), nil
		}
		return mcpJSON(deps.Dashboard.Subjects.List.Items())
	}
}

func mcpListAuthorities(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		subjects := deps.Dashboard.Subjects
		if !subjects.List.Loaded() {
			if err := subjects.Load(ctx); err != nil {
				return mcpError(fmt.Sprintf("listing subjects: %v", err)), nil
			}
		}
		if id := req.GetString("subject_id", ""); id != "" && id != subjects.List.Selected() {
			if err := subjects.Select(ctx, id); err != nil {
				return mcpError(fmt.Sprintf("selecting %s: %v", id, err)), nil
			}
		}
		if subjects.List.Selected() == "" {
			return mcpError("no subjects"), nil
		}
		return mcpJSON(subjects.List.Dependents())
	}
}

func mcpFeedSnapshot(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		feed := deps.Dashboard.Listening.Feed
		var err error
		if page := req.GetInt("page", 0); page > 0 {
			err = feed.SetPage(ctx, page)
		} else {
			err = feed.Refresh(ctx)
		}
		if err != nil {
			return mcpError(fmt.Sprintf("loading feed: %v", err)), nil
		}
		return mcpJSON(feed.Snapshot())
	}
}

func mcpContentAction(deps MCPDeps, verb string, fn func(*dashboard.IntelCenter, context.Context, string) error) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		if err := fn(deps.Dashboard.Intel, ctx, id); err != nil {
			return mcpError(fmt.Sprintf("%s failed: %v", id, err)), nil
		}
		return mcpText(fmt.Sprintf("%s %s", verb, id)), nil
	}
}

func mcpAnalyzeText(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		res, err := deps.Dashboard.Client().Analyze(ctx, api.AnalysisRequest{
			Text:      text,
			ProfileID: req.GetString("subject_id", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("analysis failed: %v", err)), nil
		}
		return mcpJSON(res)
	}
}

func mcpCloneChat(deps MCPDeps, chats *chatSessions) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		subjectID, err := req.RequireString("subject_id")
		if err != nil {
			return mcpError("subject_id is required"), nil
		}
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		lab := deps.Dashboard.Clones
		if _, ok := lab.CloneFor(subjectID); !ok {
			if err := lab.Load(ctx); err != nil {
				return mcpError(fmt.Sprintf("loading clones: %v", err)), nil
			}
		}
		session, err := chats.get(deps.Dashboard, subjectID, deps.Language)
		if err != nil {
			return mcpError(fmt.Sprintf("%s: %v", subjectID, err)), nil
		}
		if err := session.Send(ctx, message); err != nil {
			return mcpError(fmt.Sprintf("chat failed: %v", err)), nil
		}

		msgs := session.Messages()
		reply := msgs[len(msgs)-1]
		out := map[string]any{"reply": reply.Content}
		if score, ok := session.LastScore(); ok {
			out["effectiveness_score"] = score
			out["suggestions"] = session.LastSuggestions()
		}
		return mcpJSON(out)
	}
}

func mcpResourceFeed(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		feed := deps.Dashboard.Listening.Feed
		if !feed.Snapshot().Loaded {
			if err := feed.Refresh(ctx); err != nil {
				return nil, fmt.Errorf("loading feed: %w", err)
			}
		}
		b, err := json.Marshal(feed.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal feed: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
