package domain

import (
	"time"

	"github.com/google/uuid"
)

// Industry buckets inferred from domain keywords when a company is created
// without explicit industry information.
const (
	IndustryTech       = "tech"
	IndustryFinance    = "finance"
	IndustryHealthcare = "healthcare"
	IndustryRetail     = "retail"
	IndustryEducation  = "education"
	IndustryUnknown    = ""
)

// Company is a persisted employer record. Domain is unique-ish: uniqueness
// is resolved by the matching cascade rather than enforced by the schema.
type Company struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	Industry  string    `json:"industry,omitempty"`
	Website   string    `json:"website,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleType classifies a contact's function in the hiring process.
type RoleType string

const (
	RoleRecruiter     RoleType = "recruiter"
	RoleHR            RoleType = "hr"
	RoleHiringManager RoleType = "hiring_manager"
	RoleEmployee      RoleType = "employee"
)

// Contact is a persisted person record, optionally scoped to a company.
type Contact struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CompanyID *int64    `json:"company_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Title     string    `json:"title,omitempty"`
	RoleType  RoleType  `json:"role_type"`
	Phone     string    `json:"phone,omitempty"`
	LinkedIn  string    `json:"linkedin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MatchMethod records which strategy of the resolution cascade produced a hit.
type MatchMethod string

const (
	MatchExactDomain MatchMethod = "exact_domain"
	MatchExactName   MatchMethod = "exact_name"
	MatchFuzzyName   MatchMethod = "fuzzy_name"
	MatchFuzzyDomain MatchMethod = "fuzzy_domain"
	MatchExactEmail  MatchMethod = "exact_email"
	MatchCreated     MatchMethod = "created"
	MatchNone        MatchMethod = "none"
)

// CompanyMatch annotates how a company row was found or created. Transient;
// never persisted. A nil ID means resolution failed and downstream storage
// must tolerate the missing link.
type CompanyMatch struct {
	ID         *int64      `json:"id,omitempty"`
	IsNew      bool        `json:"is_new"`
	Confidence float64     `json:"confidence"`
	Method     MatchMethod `json:"match_method"`
}

// ContactMatch annotates how a contact row was found or created.
type ContactMatch struct {
	ID         *int64      `json:"id,omitempty"`
	IsNew      bool        `json:"is_new"`
	Confidence float64     `json:"confidence"`
	Method     MatchMethod `json:"match_method"`
}

// CompanySignals are the extracted hints entity resolution matches against.
type CompanySignals struct {
	Name   string
	Domain string
}

// ContactSignals are the extracted hints for contact resolution.
type ContactSignals struct {
	Name  string
	Email string
	Title string
}
