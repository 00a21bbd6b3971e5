package process

// KillResponse represents the result of a tree kill
type KillResponse struct {
	PID     int32   `json:"pid"`
	Killed  []int32 `json:"killed"`
	Success bool    `json:"success"`
	Message string  `json:"message"`
}
