package domain

import "time"

// SchoolType classifies institutions.
type SchoolType string

const (
	SchoolProject985       SchoolType = "PROJECT_985"
	SchoolProject211       SchoolType = "PROJECT_211"
	SchoolDoubleFirstClass SchoolType = "DOUBLE_FIRST_CLASS"
	SchoolRegular          SchoolType = "REGULAR"
)

// School is directory data maintained by administrators.
type School struct {
	ID           string     `json:"id" bson:"_id"`
	Name         string     `json:"name" bson:"name"`
	Address      string     `json:"address,omitempty" bson:"address,omitempty"`
	Province     string     `json:"province,omitempty" bson:"province,omitempty"`
	City         string     `json:"city,omitempty" bson:"city,omitempty"`
	SchoolType   SchoolType `json:"schoolType" bson:"school_type"`
	ContactPhone string     `json:"contactPhone,omitempty" bson:"contact_phone,omitempty"`
	Website      string     `json:"website,omitempty" bson:"website,omitempty"`
	CreatedBy    string     `json:"createdById" bson:"created_by"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updated_at"`
}

// Ownership implements Owned.
func (s *School) Ownership() Ownership {
	return Ownership{Kind: KindSchool, OwnerID: s.CreatedBy, Shared: true}
}

// Department is a school department (faculty, lab, office). It is shared
// directory data; the creator is tracked for audit.
type Department struct {
	ID                string    `json:"id" bson:"_id"`
	SchoolID          string    `json:"schoolId" bson:"school_id"`
	Name              string    `json:"name" bson:"name"`
	ContactPhone      string    `json:"contactPhone,omitempty" bson:"contact_phone,omitempty"`
	Address           string    `json:"address,omitempty" bson:"address,omitempty"`
	Description       string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedBy         string    `json:"createdById" bson:"created_by"`
	CreatorDepartment string    `json:"creatorDepartment,omitempty" bson:"creator_department,omitempty"`
	CreatedAt         time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updated_at"`
}

// Ownership implements Owned.
func (d *Department) Ownership() Ownership {
	return Ownership{
		Kind:            KindDepartment,
		OwnerID:         d.CreatedBy,
		OwnerDepartment: d.CreatorDepartment,
		Shared:          true,
	}
}
