package todo

// Todo is a single task owned by one client partition.
type Todo struct {
	ID     uint64 `json:"id"`
	Title  string `json:"title"`
	Desc   string `json:"desc"`
	IsDone bool   `json:"is_done"`
}

// CreateRequest carries the caller-supplied fields of a new Todo.
type CreateRequest struct {
	Title  string `json:"title"`
	Desc   string `json:"desc"`
	IsDone bool   `json:"is_done"`
}

// UpdateRequest merges into an existing Todo. Nil fields are left untouched.
type UpdateRequest struct {
	Title  *string `json:"title,omitempty"`
	Desc   *string `json:"desc,omitempty"`
	IsDone *bool   `json:"is_done,omitempty"`
}

// Apply overwrites the fields of t that are present in the request.
func (r UpdateRequest) Apply(t *Todo) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Desc != nil {
		t.Desc = *r.Desc
	}
	if r.IsDone != nil {
		t.IsDone = *r.IsDone
	}
}
