package models

import (
	"fmt"
	"github.com/mattn/go-runewidth"
)

type NotificationKind string

const (
	KindLikes    NotificationKind = "likes"
	KindComments NotificationKind = "comments"
)

const titleCells = 20

// NotificationEvent is an observed increase of likes or comments on one entity.
type NotificationEvent struct {
	EntityKey    string           `json:"videoId"`
	Title        string           `json:"title"`
	ThumbnailURL string           `json:"thumbnailUrl"`
	Kind         NotificationKind `json:"type"`
	OldCount     int64            `json:"oldCount"`
	NewCount     int64            `json:"newCount"`
}

func (e NotificationEvent) Increase() int64 {
	return e.NewCount - e.OldCount
}

// Message renders the toast text, e.g. "3 new likes on My video title...".
func (e NotificationEvent) Message() string {
	noun := "like"
	if e.Kind == KindComments {
		noun = "comment"
	}
	n := e.Increase()
	if n != 1 {
		noun += "s"
	}
	return fmt.Sprintf("%d new %s on %s", n, noun, TruncateTitle(e.Title, titleCells))
}

// TruncateTitle cuts title to at most cells terminal cells and marks the cut.
func TruncateTitle(title string, cells int) string {
	if runewidth.StringWidth(title) <= cells {
		return title
	}
	return runewidth.Truncate(title, cells, "") + "..."
}
