package constants

const (
	// ContextKeyUserID is the gin context key holding the authenticated user ID.
	ContextKeyUserID = "user_id"
	// ContextKeyStoryID is the gin context key holding the parsed :id route parameter.
	ContextKeyStoryID = "story_id"

	// MaxContributions is the number of contributions that completes a story.
	MaxContributions = 4
	// ContributionLineCount is the exact number of lines a contribution must have.
	ContributionLineCount = 2

	MaxTitleLength    = 255
	MinUsernameLength = 3
	MaxUsernameLength = 150
	MinPasswordLength = 8

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
