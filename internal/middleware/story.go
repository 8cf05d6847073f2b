package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/story-relay-api/internal/constants"
	apierrors "github.com/yukikurage/story-relay-api/internal/errors"
)

// ParseStoryID reads the :id route parameter. A non-numeric ID cannot name a
// story, so it is reported as not found.
func ParseStoryID() gin.HandlerFunc {
	return func(c *gin.Context) {
		storyID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.NotFound(c, "Story not found")
			return
		}

		c.Set(constants.ContextKeyStoryID, storyID)
		c.Next()
	}
}

// GetStoryID retrieves the story ID set by ParseStoryID
func GetStoryID(c *gin.Context) (uint64, bool) {
	storyID, exists := c.Get(constants.ContextKeyStoryID)
	if !exists {
		return 0, false
	}
	id, ok := storyID.(uint64)
	return id, ok
}
