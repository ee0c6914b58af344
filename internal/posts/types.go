package posts

import "time"

type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AccountID int64     `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}
