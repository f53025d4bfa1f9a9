package prompt

// IdentifyData feeds the identify template.
type IdentifyData struct {
	Project         string
	Language        string
	FileContext     string
	FileListing     string
	MaxAbstractions int
}

// RelationshipsData feeds the relationships template.
type RelationshipsData struct {
	Project      string
	Language     string
	Abstractions string // "- i # name" lines
	Context      string // abstraction descriptions plus the files they reference
	MaxIndex     int
}

// OrderData feeds the order template.
type OrderData struct {
	Project       string
	Language      string
	Abstractions  string
	Summary       string
	Relationships string // "- from (name) -> to (name): label" lines
}

// ChapterData feeds the chapter template.
type ChapterData struct {
	Project      string
	Language     string
	Number       int
	Name         string
	Description  string
	Chapters     string // full ordered chapter listing with file names
	Previous     string // link line for the previous chapter, empty for the first
	Next         string // link line for the next chapter, empty for the last
	Synopsis     string // summaries of chapters written so far
	RelatedFiles string // FileContext of the abstraction's files
}
