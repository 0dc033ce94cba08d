package domain

import "time"

// MembershipStatus is the athlete-specific workflow state that controls
// access to the athlete portal. A nil *MembershipStatus means the athlete has
// never applied.
type MembershipStatus string

const (
	MembershipPending   MembershipStatus = "pending"
	MembershipActive    MembershipStatus = "active"
	MembershipRejected  MembershipStatus = "rejected"
	MembershipSuspended MembershipStatus = "suspended"
)

// Valid reports whether s is one of the known workflow states.
func (s MembershipStatus) Valid() bool {
	switch s {
	case MembershipPending, MembershipActive, MembershipRejected, MembershipSuspended:
		return true
	}
	return false
}

// StatusPtr is a small helper for building nullable statuses.
func StatusPtr(s MembershipStatus) *MembershipStatus { return &s }

// Profile is the role store: one row per user carrying the role and, for
// athletes, the membership status.
//
// Role is persisted as text and parsed with ParseRole on read so a corrupt
// value fails closed instead of silently granting a capability.
type Profile struct {
	UserID           string            `json:"userId"                     gorm:"type:varchar(64);primaryKey"`
	DisplayName      string            `json:"displayName"                gorm:"type:varchar(255);not null;default:''"`
	Role             string            `json:"role"                       gorm:"type:varchar(16);not null;index"`
	MembershipStatus *MembershipStatus `json:"membershipStatus"           gorm:"type:varchar(16);index"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// Club is a sports club athletes apply to.
type Club struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"      gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName returns the database table name for Club.
func (Club) TableName() string { return "clubs" }

// ApplicationStatus is the review state of a membership application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// MembershipApplication records an athlete's request to join a club and the
// coach's decision on it. An athlete has at most one pending application.
type MembershipApplication struct {
	ID              string            `json:"id"                        gorm:"type:char(36);primaryKey"`
	AthleteID       string            `json:"athleteId"                 gorm:"type:varchar(64);not null;index:idx_app_athlete,priority:1;uniqueIndex:ux_app_athlete_pending,where:status = 'pending'"`
	ClubID          string            `json:"clubId"                    gorm:"type:char(36);not null;index"`
	Status          ApplicationStatus `json:"status"                    gorm:"type:varchar(16);not null;index"`
	Message         string            `json:"message,omitempty"         gorm:"type:text"`
	RejectionReason string            `json:"rejectionReason,omitempty" gorm:"type:text"`
	ReviewedBy      *string           `json:"reviewedBy,omitempty"      gorm:"type:varchar(64)"`
	ReviewedAt      *time.Time        `json:"reviewedAt,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"                 gorm:"index:idx_app_athlete,priority:2"`
	UpdatedAt       time.Time         `json:"updatedAt"`

	Club Club `json:"-" gorm:"foreignKey:ClubID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for MembershipApplication.
func (MembershipApplication) TableName() string { return "membership_applications" }

// TrainingSession is a scheduled practice athletes check in to.
type TrainingSession struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	ClubID    string    `json:"clubId"    gorm:"type:char(36);not null;index"`
	Title     string    `json:"title"     gorm:"type:varchar(255);not null"`
	StartsAt  time.Time `json:"startsAt"  gorm:"not null;index"`
	CreatedBy string    `json:"createdBy" gorm:"type:varchar(64);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Club Club `json:"-" gorm:"foreignKey:ClubID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for TrainingSession.
func (TrainingSession) TableName() string { return "training_sessions" }

// Attendance is one athlete's check-in to one session. The pair
// (session_id, athlete_id) is unique.
type Attendance struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	SessionID   string    `json:"sessionId"   gorm:"type:char(36);not null;uniqueIndex:ux_attendance_session_athlete,priority:1"`
	AthleteID   string    `json:"athleteId"   gorm:"type:varchar(64);not null;uniqueIndex:ux_attendance_session_athlete,priority:2"`
	CheckedInAt time.Time `json:"checkedInAt" gorm:"not null"`

	Session TrainingSession `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Attendance.
func (Attendance) TableName() string { return "attendances" }

// LeaveRequest is an athlete's notice that they will miss a session.
type LeaveRequest struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	SessionID string    `json:"sessionId" gorm:"type:char(36);not null;index"`
	AthleteID string    `json:"athleteId" gorm:"type:varchar(64);not null;index"`
	Reason    string    `json:"reason"    gorm:"type:text;not null"`
	Status    string    `json:"status"    gorm:"type:varchar(16);not null;default:'pending'"`
	CreatedAt time.Time `json:"createdAt"`

	Session TrainingSession `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for LeaveRequest.
func (LeaveRequest) TableName() string { return "leave_requests" }
