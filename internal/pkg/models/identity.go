package models

// Identity is the signed-in principal as seen by the ledger core.
type Identity struct {
	Email       string `json:"email"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// RemoteDocument is one record as held by the remote collection store.
type RemoteDocument struct {
	ID     string
	Fields map[string]interface{}
}
