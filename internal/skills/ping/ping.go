// ABOUTME: Ping skill: a lightweight health check needing no integration
// ABOUTME: Returns runtime info so the model can confirm the platform is responding
package ping

import (
	"context"
	"runtime"
	"time"

	"github.com/WildEllie/t3nets/internal/models"
)

// Name is the registered skill name
const Name = "ping"

// Message is the fixed health message
const Message = "Pong! System is healthy and responding."

// Worker answers ping invocations
type Worker struct {
	now func() time.Time
}

// New creates a ping worker
func New() *Worker {
	return &Worker{now: time.Now}
}

// Execute returns system info. An "echo" parameter is returned as-is.
func (w *Worker) Execute(_ context.Context, params map[string]any, _ map[string]string) (models.SkillResult, error) {
	now := w.now().UTC()
	result := models.SkillResult{
		"status":          "ok",
		"timestamp":       now.Format(time.RFC3339),
		"timestamp_human": now.Format("Monday, January 02, 2006 at 15:04:05 UTC"),
		"go_version":      runtime.Version(),
		"platform":        runtime.GOOS,
		"message":         Message,
	}
	if echo, ok := params["echo"].(string); ok && echo != "" {
		result["echo"] = echo
	}
	return result, nil
}
