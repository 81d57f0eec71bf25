package student

// Consultation is one counselling note attached to a student.
type Consultation struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

// Student mirrors the backend's student record. ID is assigned by the
// server on create.
type Student struct {
	ID             int            `json:"id,omitempty"`
	Grade          int            `json:"grade"`
	ClassNum       int            `json:"class_num"`
	StudentNum     int            `json:"student_num"`
	Name           string         `json:"name"`
	Phone          *string        `json:"phone,omitempty"`
	Address        *string        `json:"address,omitempty"`
	GuardianPhone1 *string        `json:"guardian_phone1,omitempty"`
	GuardianPhone2 *string        `json:"guardian_phone2,omitempty"`
	Consultations  []Consultation `json:"consultations,omitempty"`
}

type summaryRequest struct {
	Consultations []Consultation `json:"consultations"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}
