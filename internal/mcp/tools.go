// ABOUTME: MCP tool definitions and registration for the t3nets router
// ABOUTME: Lets an MCP client chat through the router, inspect routing and list skills
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ServerName is advertised to MCP clients
const ServerName = "t3nets"

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, deps Deps) *Handlers {
	handlers := NewHandlers(deps)

	// 1. send_message - Route a message exactly as a chat channel would
	server.AddTool(mcp.Tool{
		Name: "send_message",
		Description: "Send a message to the t3nets assistant. It is routed through conversation, " +
			"rule-matched skills or model tool use. Append --raw to get skill output without narration.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "The message text",
				},
				"conversation_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation to continue (default: mcp-default)",
				},
			},
			Required: []string{"message"},
		},
	}, handlers.SendMessage)

	// 2. explain_route - Dry-run the routing decision
	server.AddTool(mcp.Tool{
		Name:        "explain_route",
		Description: "Show how a message would be routed and each enabled skill's confidence, without calling the model or any skill.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "The message text",
				},
			},
			Required: []string{"message"},
		},
	}, handlers.ExplainRoute)

	// 3. list_skills - Registered skills and whether the tenant has them enabled
	server.AddTool(mcp.Tool{
		Name:        "list_skills",
		Description: "List registered skills with their triggers, raw support and required integration.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListSkills)

	// 4. clear_conversation - Forget a conversation's history
	server.AddTool(mcp.Tool{
		Name:        "clear_conversation",
		Description: "Delete the stored history of a conversation.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"conversation_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation to clear (default: mcp-default)",
				},
			},
		},
	}, handlers.ClearConversation)

	return handlers
}
