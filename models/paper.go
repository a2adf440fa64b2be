package models

import "strings"

// MaxKeywords is the number of keyword slots a paper carries.
const MaxKeywords = 3

// Paper represents one managed paper record and its metadata.
//
// Nullable columns are mapped to pointer fields so that "absent" survives a
// round trip through the database instead of collapsing to the empty string.
type Paper struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Title string `json:"title" gorm:"not null"`

	Authors string `json:"authors,omitempty"`
	Year    *int   `json:"year,omitempty"`
	Journal string `json:"journal,omitempty"`

	SummaryShort  string  `json:"summary_short,omitempty" gorm:"type:text"`
	SummaryDetail string  `json:"summary_detail,omitempty" gorm:"type:text"`
	SummaryAI     *string `json:"summary_ai,omitempty" gorm:"column:summary_ai;type:text"`

	PDFPath  *string `json:"pdf_path,omitempty" gorm:"column:pdf_path"`
	WordPath *string `json:"word_path,omitempty" gorm:"column:word_path"`
	PPTPath  *string `json:"ppt_path,omitempty" gorm:"column:ppt_path"`

	Category string  `json:"category"`
	Keywords *string `json:"keywords,omitempty"`

	// CreatedAt is an ISO-8601 local timestamp at second precision, set once
	// at insertion. Lexicographic order equals chronological order.
	CreatedAt string `json:"created_at"`
}

// TableName gives GORM the explicit table name.
func (Paper) TableName() string {
	return "papers"
}

// JoinKeywords trims the given tags, drops empty ones, and serializes up to
// MaxKeywords of them as a comma-and-space-joined string. Returns nil when
// every slot is empty.
func JoinKeywords(tags ...string) *string {
	kept := make([]string, 0, MaxKeywords)
	for _, tag := range tags {
		if len(kept) == MaxKeywords {
			break
		}
		tag = strings.TrimSpace(tag)
		if tag != "" {
			kept = append(kept, tag)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	joined := strings.Join(kept, ", ")
	return &joined
}

// SplitKeywords decomposes a serialized keyword string back into the three
// form slots. Missing tags come back as empty strings.
func SplitKeywords(keywords *string) [MaxKeywords]string {
	var slots [MaxKeywords]string
	if keywords == nil {
		return slots
	}
	i := 0
	for _, part := range strings.Split(*keywords, ",") {
		if i == MaxKeywords {
			break
		}
		part = strings.TrimSpace(part)
		if part != "" {
			slots[i] = part
			i++
		}
	}
	return slots
}
