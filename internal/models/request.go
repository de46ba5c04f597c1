package models

// ExportRequest is the body of an ad-hoc export.
type ExportRequest struct {
	Format  string `json:"format"`
	Content string `json:"content"`
}

// LoginRequest carries credentials for token issuance.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse returns a signed token.
type LoginResponse struct {
	Token string `json:"token"`
}

// UploadResponse returns the text extracted from an uploaded file.
type UploadResponse struct {
	Text string `json:"text"`
}

// CatalogResponse is returned by template mutations.
type CatalogResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Templates []Template `json:"templates"`
}
