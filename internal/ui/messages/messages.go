package messages

import "github.com/fragmede/hams/internal/api"

// View transition messages.
type (
	OpenPostMsg     struct{ PostID int64 }
	GoBackMsg       struct{}
	OpenLoginMsg    struct{}
	OpenActivityMsg struct{}
	OpenBotsMsg     struct{}
	ShowHelpMsg     struct{}

	// OpenComposeMsg opens the post editor. A nil Post composes a new one.
	OpenComposeMsg struct {
		Post *api.Post
	}

	// OpenReplyMsg opens the comment composer. A nil Parent writes a root comment.
	OpenReplyMsg struct {
		PostID int64
		Parent *api.Comment
	}

	SwitchCategoryMsg struct {
		Category api.Category
	}

	OpenEditCommentMsg struct {
		Comment *api.Comment
	}
)

// Data messages.
type (
	PostsLoadedMsg struct {
		Posts []*api.Post
		// Stale is set when Posts came from the cache because the server failed.
		Stale bool
		Err   error
	}

	ThreadLoadedMsg struct {
		PostID int64
		Thread *api.Thread
		// Stale is set when only the cached post could be shown.
		Stale bool
		Err   error
	}

	LoginResultMsg struct {
		Username string
		Err      error
	}

	PostSavedMsg struct {
		Post *api.Post
		Err  error
	}

	PostDeletedMsg struct {
		PostID int64
		Err    error
	}

	CommentSavedMsg struct {
		PostID    int64
		CommentID int64
		Err       error
	}

	CommentDeletedMsg struct {
		PostID    int64
		CommentID int64
		Err       error
	}

	BotsLoadedMsg struct {
		Bots     []*api.Bot
		MaxDepth int
		Err      error
	}

	BotSavedMsg struct {
		Bot *api.Bot
		Err error
	}

	BotDeletedMsg struct {
		BotID int64
		Err   error
	}

	ModelsLoadedMsg struct {
		Provider api.Provider
		Models   []string
		Err      error
	}

	DepthSavedMsg struct {
		Depth int
		Err   error
	}

	ActivityLoadedMsg struct {
		Entries []ActivityEntry
		Err     error
	}

	// ActivityMsg is pushed for each new live activity entry.
	ActivityMsg struct {
		Log    api.ActivityLog
		Unread int
	}

	ConnectionMsg struct {
		State ConnState
		Err   error
	}

	StatusMsg struct {
		Text    string
		IsError bool
	}

	SessionRestoredMsg struct {
		Username string
	}

	// LoggedOutMsg follows a cleared session. Expired is set when the
	// server rejected the token rather than the user logging out.
	LoggedOutMsg struct {
		Expired bool
	}

	ThemeChangedMsg struct {
		Dark bool
	}
)

// ActivityEntry is an activity log row with its local read flag.
type ActivityEntry struct {
	Log     api.ActivityLog
	BotName string
	Read    bool
}

// ConnState is the live activity channel state.
type ConnState int

const (
	ConnDisconnected ConnState = iota
	ConnConnecting
	ConnConnected
)

func (s ConnState) String() string {
	switch s {
	case ConnConnecting:
		return "connecting"
	case ConnConnected:
		return "live"
	}
	return "offline"
}
