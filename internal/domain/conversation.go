package domain

// Turn is a single persisted exchange: one student question and the
// assistant's answer, scoped to a syllabus. Turns are soft-deleted by
// flipping IsDeleted; they are never removed from the table.
type Turn struct {
	UserID      string
	SyllabusID  string
	DateTime    string
	UserMessage string
	AIMessage   string
	Prompt      string
	IsDeleted   bool
	TTL         int64
}
