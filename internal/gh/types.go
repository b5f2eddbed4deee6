package gh

// Repository is a repository visible to the authenticated user.
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Private       bool   `json:"private"`
	DefaultBranch string `json:"default_branch"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// Branch is one branch of a repository.
type Branch struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// Commit is one commit on a branch.
type Commit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// ContentNode is a single node of the contents API: a file (with
// base64 body) or one entry of a directory listing.
type ContentNode struct {
	Type     string `json:"type"` // "file" | "dir"
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`  // base64, files only
	Encoding string `json:"encoding"` // "base64"
}

// putContentsRequest is the body of a create-or-update PUT.
type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"` // base64
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

// PutContentsResponse is the subset of the PUT response the engine uses.
type PutContentsResponse struct {
	Content struct {
		Path string `json:"path"`
		SHA  string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// createRefRequest is the body of a branch-creation POST.
type createRefRequest struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}
