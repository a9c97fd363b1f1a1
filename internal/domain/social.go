package domain

import "time"

// SocialPost is a read-only snapshot of one public post fetched from the
// social platform. Content is plain text with markup already stripped.
type SocialPost struct {
	ID       string
	Author   string
	Content  string
	URL      string
	Hashtags []string
	PostedAt time.Time
}

// ProcessedPost records the outcome of handling one social post, kept for
// replay protection audits and the moderation view.
type ProcessedPost struct {
	ID           string
	PostID       string
	Author       string
	Content      string
	Hashtags     []string
	Escalated    bool
	Priority     *TicketPriority
	TicketID     *string
	ContactToken *string
	Replied      bool
	ProcessedAt  time.Time
}
