// Package usage normalizes token usage reported by backend APIs.
package usage

// Usage captures token usage for a single model response.
type Usage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// Normalize fills Total when missing.
func Normalize(u Usage) Usage {
	if u.Total == 0 {
		u.Total = u.Input + u.Output
	}
	return u
}

// IsZero reports whether the backend reported no usage at all.
func (u Usage) IsZero() bool {
	return u.Input == 0 && u.Output == 0 && u.Total == 0
}
