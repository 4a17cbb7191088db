package domain

import "time"

// InfluenceLevel grades how much weight a customer carries in purchasing.
type InfluenceLevel string

const (
	InfluenceHigh   InfluenceLevel = "HIGH"
	InfluenceMedium InfluenceLevel = "MEDIUM"
	InfluenceLow    InfluenceLevel = "LOW"
)

// DecisionPower is the customer's role in the buying decision.
type DecisionPower string

const (
	DecisionMaker      DecisionPower = "DECISION_MAKER"
	DecisionInfluencer DecisionPower = "INFLUENCER"
	DecisionUser       DecisionPower = "USER"
	DecisionOther      DecisionPower = "OTHER"
)

// CustomerStatus marks whether a contact is still being worked.
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "ACTIVE"
	CustomerInactive CustomerStatus = "INACTIVE"
)

// Customer is a contact person at a school department. OwnerID is the
// creating (or, after a transfer, the assigned) sales user.
type Customer struct {
	ID                string         `json:"id" bson:"_id"`
	Name              string         `json:"name" bson:"name"`
	Position          string         `json:"position,omitempty" bson:"position,omitempty"`
	Title             string         `json:"title,omitempty" bson:"title,omitempty"`
	SchoolID          string         `json:"schoolId,omitempty" bson:"school_id,omitempty"`
	DepartmentID      string         `json:"departmentId,omitempty" bson:"department_id,omitempty"`
	Phone             string         `json:"phone,omitempty" bson:"phone,omitempty"`
	Wechat            string         `json:"wechat,omitempty" bson:"wechat,omitempty"`
	Email             string         `json:"email,omitempty" bson:"email,omitempty"`
	OfficeLocation    string         `json:"officeLocation,omitempty" bson:"office_location,omitempty"`
	ResearchDirection string         `json:"researchDirection,omitempty" bson:"research_direction,omitempty"`
	InfluenceLevel    InfluenceLevel `json:"influenceLevel" bson:"influence_level"`
	DecisionPower     DecisionPower  `json:"decisionPower" bson:"decision_power"`
	Status            CustomerStatus `json:"status" bson:"status"`
	Notes             string         `json:"notes,omitempty" bson:"notes,omitempty"`
	OwnerID           string         `json:"createdById" bson:"owner_id"`
	OwnerDepartment   string         `json:"ownerDepartment,omitempty" bson:"owner_department"`
	UpdatedBy         string         `json:"updatedById,omitempty" bson:"updated_by,omitempty"`
	CreatedAt         time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt         time.Time      `json:"updatedAt" bson:"updated_at"`
}

// Ownership implements Owned.
func (c *Customer) Ownership() Ownership {
	return Ownership{Kind: KindCustomer, OwnerID: c.OwnerID, OwnerDepartment: c.OwnerDepartment}
}

// Valid reports whether l is a known influence level.
func (l InfluenceLevel) Valid() bool {
	switch l {
	case InfluenceHigh, InfluenceMedium, InfluenceLow:
		return true
	}
	return false
}

// Valid reports whether p is a known decision power.
func (p DecisionPower) Valid() bool {
	switch p {
	case DecisionMaker, DecisionInfluencer, DecisionUser, DecisionOther:
		return true
	}
	return false
}
