package model

import "time"

// Roles
const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleAdmin   = "admin"
	RoleSuper   = "super"
)

// User is an account managed by the identity provider and mirrored by the backend
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// DisplayName prefers the full name
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Name
}

// Complaint statuses as stored by the backend
const (
	ComplaintActive = "active"
	ComplaintSolved = "solved"
)

// Complaint is a message sent by a customer to the managers
type Complaint struct {
	ID      int64  `json:"id"`
	Sender  string `json:"sender"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Reply   string `json:"reply,omitempty"`
	Status  string `json:"status"`
}

// DisplayStatus maps the backend status to the label shown to managers
func (c Complaint) DisplayStatus() string {
	switch c.Status {
	case ComplaintActive:
		return "pending"
	case ComplaintSolved:
		return "resolved"
	}
	return c.Status
}

// Activity log action types
const (
	ActionCreate     = "CREATE"
	ActionUpdate     = "UPDATE"
	ActionDelete     = "DELETE"
	ActionCancel     = "CANCEL"
	ActionReply      = "REPLY"
	ActionRoleChange = "ROLE_CHANGE"
	ActionBroadcast  = "BROADCAST"
)

// Activity log entity types
const (
	EntityStation      = "STATION"
	EntityVoyage       = "VOYAGE"
	EntityTicket       = "TICKET"
	EntityAnnouncement = "ANNOUNCEMENT"
	EntityComplaint    = "COMPLAINT"
	EntityUser         = "USER"
	EntityNotification = "NOTIFICATION"
)

// ActivityLog records an administrative action
type ActivityLog struct {
	ID            int64     `json:"id"`
	FullName      string    `json:"fullName"`
	UserRole      string    `json:"userRole"`
	ActionType    string    `json:"actionType"`
	EntityType    string    `json:"entityType"`
	Description   string    `json:"description"`
	DescriptionTr string    `json:"descriptionTr,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
