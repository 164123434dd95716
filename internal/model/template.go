package model

// Template is a predefined HTML document body containing merge-field placeholders.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
}
