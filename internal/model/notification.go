package model

import "time"

// Notification types
const (
	NotificationTicketCreated    = "TICKET_CREATED"
	NotificationTicketUpdated    = "TICKET_UPDATED"
	NotificationTicketCancelled  = "TICKET_CANCELLED"
	NotificationVoyageCancelled  = "VOYAGE_CANCELLED"
	NotificationVoyageDelayed    = "VOYAGE_DELAYED"
	NotificationBroadcast        = "BROADCAST"
	NotificationComplaintReplied = "COMPLAINT_REPLIED"
)

// Notification represents a user notification
type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	TitleTr   string    `json:"titleTr,omitempty"`
	Message   string    `json:"message"`
	MessageTr string    `json:"messageTr,omitempty"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// Localized returns title and message in the requested language, falling back to English
func (n Notification) Localized(lang string) (string, string) {
	if lang == "tr" {
		title, msg := n.Title, n.Message
		if n.TitleTr != "" {
			title = n.TitleTr
		}
		if n.MessageTr != "" {
			msg = n.MessageTr
		}
		return title, msg
	}
	return n.Title, n.Message
}

// Broadcast is a notification sent to every user
type Broadcast struct {
	Title     string `json:"title"`
	TitleTr   string `json:"titleTr,omitempty"`
	Message   string `json:"message"`
	MessageTr string `json:"messageTr,omitempty"`
}

// UserPreferences holds per-user settings stored by the backend
type UserPreferences struct {
	Language           string `json:"language"`
	Currency           string `json:"currency"`
	EmailNotifications bool   `json:"emailNotifications"`
}
