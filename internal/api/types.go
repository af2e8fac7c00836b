package api

// DaemonStatus describes the running daemon.
type DaemonStatus struct {
	Running                 bool   `json:"running"`
	PID                     int    `json:"pid"`
	Version                 string `json:"version"`
	ActCount                int    `json:"actCount"`
	LastActsRefresh         string `json:"lastActsRefresh,omitempty"`
	LastDescriptionsRefresh string `json:"lastDescriptionsRefresh,omitempty"`
	LockFilePath            string `json:"lockFilePath,omitempty"`
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
