package messaging

import (
	"time"

	"yatube/models"
)

type PostEvent struct {
	PostID    uint      `json:"post_id"`
	Text      string    `json:"text"`
	AuthorID  uint      `json:"author_id"`
	Author    string    `json:"author"`
	GroupID   *uint     `json:"group_id"`
	Image     string    `json:"image,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPostEvent(p models.Post) PostEvent {
	return PostEvent{
		PostID:    p.ID,
		Text:      p.Text,
		AuthorID:  p.AuthorID,
		Author:    p.Author.Username,
		GroupID:   p.GroupID,
		Image:     p.Image,
		Timestamp: p.PubDate.UTC(),
	}
}

type CommentEvent struct {
	CommentID uint      `json:"comment_id"`
	PostID    uint      `json:"post_id"`
	AuthorID  uint      `json:"author_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func NewCommentEvent(c models.Comment) CommentEvent {
	return CommentEvent{
		CommentID: c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		Author:    c.Author.Username,
		Text:      c.Text,
		Timestamp: c.Created.UTC(),
	}
}

type FollowEvent struct {
	Follower  string    `json:"follower"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}
