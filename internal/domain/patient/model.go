package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/emr/emr/pkg/jsontime"
)

// Patient statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusDeceased = "deceased"
)

// Genders.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderUnknown = "unknown"
)

// Patient maps to the patient table. Age is derived from the birth date and
// recomputed whenever the birth date changes.
type Patient struct {
	ID                       uuid.UUID      `db:"id" json:"id"`
	PatientNo                string         `db:"patient_no" json:"patientNo"`
	Name                     string         `db:"name" json:"name"`
	Gender                   string         `db:"gender" json:"gender"`
	BirthDate                jsontime.Time  `db:"birth_date" json:"birthDate"`
	Age                      int            `db:"age" json:"age"`
	IDCard                   string         `db:"id_card" json:"idCard"`
	Phone                    string         `db:"phone" json:"phone"`
	Email                    *string        `db:"email" json:"email,omitempty"`
	Address                  string         `db:"address" json:"address"`
	Occupation               *string        `db:"occupation" json:"occupation,omitempty"`
	Department               *string        `db:"department" json:"department,omitempty"`
	BloodType                string         `db:"blood_type" json:"bloodType"`
	Allergies                []string       `db:"allergies" json:"allergies,omitempty"`
	MedicalHistory           []string       `db:"medical_history" json:"medicalHistory,omitempty"`
	FamilyHistory            []string       `db:"family_history" json:"familyHistory,omitempty"`
	EmergencyContactName     *string        `db:"emergency_contact_name" json:"emergencyContactName,omitempty"`
	EmergencyContactRelation *string        `db:"emergency_contact_relation" json:"emergencyContactRelation,omitempty"`
	EmergencyContactPhone    *string        `db:"emergency_contact_phone" json:"emergencyContactPhone,omitempty"`
	Status                   string         `db:"status" json:"status"`
	DeathDate                *jsontime.Time `db:"death_date" json:"deathDate,omitempty"`
	CreatedBy                string         `db:"created_by" json:"createdBy"`
	DeletedAt                *time.Time     `db:"deleted_at" json:"-"`
	DeletedBy                *string        `db:"deleted_by" json:"-"`
	CreatedAt                time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt                time.Time      `db:"updated_at" json:"updatedAt"`
}

// ListFilter narrows List queries. Zero values mean "no filter".
type ListFilter struct {
	Name   string
	Phone  string
	IDCard string
	Status string
	Gender string
}

// Stats holds patient counts grouped by status and gender.
type Stats struct {
	Total         int `json:"totalPatients"`
	Active        int `json:"activePatients"`
	Inactive      int `json:"inactivePatients"`
	Deceased      int `json:"deceasedPatients"`
	Male          int `json:"malePatients"`
	Female        int `json:"femalePatients"`
	UnknownGender int `json:"unknownGender"`
}
