package handler

import (
	"io"

	"leaflens/backend/internal/hub"

	"github.com/gin-gonic/gin"
)

// streamEvents pumps hub events to the client as server-sent events until
// the client disconnects or the hub closes the channel. The unsubscribe
// runs on every exit path so a torn-down view never leaks its channel.
func streamEvents(c *gin.Context, client hub.Client, unsubscribe func()) {
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
