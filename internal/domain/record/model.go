package record

import (
	"time"

	"github.com/google/uuid"

	"github.com/emr/emr/pkg/jsontime"
)

// Record statuses. Completed records are immutable with respect to
// deletion; archiving is the terminal state.
const (
	StatusDraft     = "draft"
	StatusCompleted = "completed"
	StatusArchived  = "archived"
)

// Visit types.
const (
	TypeOutpatient = "outpatient"
	TypeInpatient  = "inpatient"
	TypeEmergency  = "emergency"
)

// Record maps to the medical_record table.
type Record struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	RecordNo       string         `db:"record_no" json:"recordNo"`
	PatientID      string         `db:"patient_id" json:"patientId"`
	DoctorID       string         `db:"doctor_id" json:"doctorId"`
	Type           string         `db:"type" json:"type"`
	Department     string         `db:"department" json:"department"`
	VisitDate      jsontime.Time  `db:"visit_date" json:"visitDate"`
	ChiefComplaint string         `db:"chief_complaint" json:"chiefComplaint"`
	PresentIllness *string        `db:"present_illness" json:"presentIllness,omitempty"`
	PastHistory    []string       `db:"past_history" json:"pastHistory,omitempty"`
	PhysicalExam   *string        `db:"physical_exam" json:"physicalExam,omitempty"`
	AuxiliaryExam  *string        `db:"auxiliary_exam" json:"auxiliaryExam,omitempty"`
	Diagnosis      []string       `db:"diagnosis" json:"diagnosis"`
	Treatment      *string        `db:"treatment" json:"treatment,omitempty"`
	Prescription   []string       `db:"prescription" json:"prescription,omitempty"`
	MedicalAdvice  *string        `db:"medical_advice" json:"medicalAdvice,omitempty"`
	FollowUpDate   *jsontime.Time `db:"follow_up_date" json:"followUpDate,omitempty"`
	Status         string         `db:"status" json:"status"`
	TemplateID     *string        `db:"template_id" json:"templateId,omitempty"`
	Notes          *string        `db:"notes" json:"notes,omitempty"`
	DeletedAt      *time.Time     `db:"deleted_at" json:"-"`
	DeletedBy      *string        `db:"deleted_by" json:"-"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// ValidStatus reports whether s is a recognized record status.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusCompleted, StatusArchived:
		return true
	default:
		return false
	}
}

// ValidType reports whether s is a recognized visit type.
func ValidType(s string) bool {
	switch s {
	case TypeOutpatient, TypeInpatient, TypeEmergency:
		return true
	default:
		return false
	}
}

// ListFilter narrows List queries. Zero values mean "no filter". Keyword
// searches across complaint, diagnosis, treatment, and advice.
type ListFilter struct {
	PatientID  string
	DoctorID   string
	Type       string
	Department string
	StartDate  *time.Time
	EndDate    *time.Time
	Status     string
	Keyword    string
}

// Stats holds record counts grouped by visit type and status.
type Stats struct {
	Total      int `json:"totalRecords"`
	Outpatient int `json:"outpatientRecords"`
	Inpatient  int `json:"inpatientRecords"`
	Emergency  int `json:"emergencyRecords"`
	Draft      int `json:"draftRecords"`
	Completed  int `json:"completedRecords"`
	Archived   int `json:"archivedRecords"`
}
