package domain

import "time"

// VisitType is the channel used for a visit.
type VisitType string

const (
	VisitFaceToFace VisitType = "FACE_TO_FACE"
	VisitPhoneCall  VisitType = "PHONE_CALL"
	VisitVideoCall  VisitType = "VIDEO_CALL"
	VisitEmail      VisitType = "EMAIL"
	VisitWechat     VisitType = "WECHAT"
	VisitOther      VisitType = "OTHER"
)

// VisitStatus is the progress of a planned visit.
type VisitStatus string

const (
	VisitScheduled  VisitStatus = "SCHEDULED"
	VisitInProgress VisitStatus = "IN_PROGRESS"
	VisitCompleted  VisitStatus = "COMPLETED"
	VisitCancelled  VisitStatus = "CANCELLED"
	VisitPostponed  VisitStatus = "POSTPONED"
	VisitNoShow     VisitStatus = "NO_SHOW"
)

// IntentLevel is the purchase intent observed during a visit.
type IntentLevel string

const (
	IntentVeryHigh IntentLevel = "VERY_HIGH"
	IntentHigh     IntentLevel = "HIGH"
	IntentMedium   IntentLevel = "MEDIUM"
	IntentLow      IntentLevel = "LOW"
	IntentVeryLow  IntentLevel = "VERY_LOW"
	IntentNone     IntentLevel = "NO_INTENT"
)

// VisitRecord is one sales visit. SalesID is the assignee and owner.
type VisitRecord struct {
	ID              string      `json:"id" bson:"_id"`
	CustomerID      string      `json:"customerId" bson:"customer_id"`
	SchoolID        string      `json:"schoolId,omitempty" bson:"school_id,omitempty"`
	DepartmentID    string      `json:"departmentId,omitempty" bson:"department_id,omitempty"`
	SalesID         string      `json:"salesId" bson:"sales_id"`
	SalesDepartment string      `json:"salesDepartment,omitempty" bson:"sales_department"`
	VisitDate       time.Time   `json:"visitDate" bson:"visit_date"`
	DurationMinutes int         `json:"durationMinutes,omitempty" bson:"duration_minutes,omitempty"`
	VisitType       VisitType   `json:"visitType" bson:"visit_type"`
	Status          VisitStatus `json:"status" bson:"status"`
	IntentLevel     IntentLevel `json:"intentLevel,omitempty" bson:"intent_level,omitempty"`
	Location        string      `json:"location,omitempty" bson:"location,omitempty"`
	BusinessItems   string      `json:"businessItems,omitempty" bson:"business_items,omitempty"`
	PainPoints      string      `json:"painPoints,omitempty" bson:"pain_points,omitempty"`
	Competitors     string      `json:"competitors,omitempty" bson:"competitors,omitempty"`
	NextStep        string      `json:"nextStep,omitempty" bson:"next_step,omitempty"`
	FollowUpDate    *time.Time  `json:"followUpDate,omitempty" bson:"follow_up_date,omitempty"`
	Notes           string      `json:"notes,omitempty" bson:"notes,omitempty"`
	Rating          int         `json:"rating,omitempty" bson:"rating,omitempty"`
	CreatedBy       string      `json:"createdById" bson:"created_by"`
	UpdatedBy       string      `json:"updatedById,omitempty" bson:"updated_by,omitempty"`
	CreatedAt       time.Time   `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time   `json:"updatedAt" bson:"updated_at"`
}

// Ownership implements Owned.
func (v *VisitRecord) Ownership() Ownership {
	return Ownership{Kind: KindVisitRecord, OwnerID: v.SalesID, OwnerDepartment: v.SalesDepartment}
}
