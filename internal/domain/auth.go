package domain

// SubjectType differentiates company vs admin tokens.
type SubjectType string

const (
	SubjectTypeCompany SubjectType = "COMPANY"
	SubjectTypeAdmin   SubjectType = "ADMIN"
)

// Actor identifies who performed a status transition or chat append.
type Actor struct {
	Type SubjectType
	ID   string
	Name string
}
