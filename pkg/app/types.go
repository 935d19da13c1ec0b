// pkg/app/types.go
package app

// LoadRequest is the POST /app body (extended protocol).
// App is base64 on the wire.
type LoadRequest struct {
	App        []byte `json:"app"`
	AppName    string `json:"app_name"`
	RuntimeUs  uint32 `json:"runtime_us"`
	DeadlineUs uint32 `json:"deadline_us"`
	PeriodUs   uint32 `json:"period_us"`
	IoqSize    uint32 `json:"ioq_size"`

	AppPath       string            `json:"app_path,omitempty"`
	AppType       string            `json:"app_type,omitempty"`
	AppParams     map[string]string `json:"app_params,omitempty"`
	DeviceMapping map[string]string `json:"device_mapping,omitempty"`
	AppModules    []string          `json:"app_modules,omitempty"`
}

// State is one registry entry. Entries are never mutated after insert.
type State struct {
	ID        int32       `json:"id"`
	Request   LoadRequest `json:"request"`
	StartTime string      `json:"start_time"`
}

// ErrorBody is the JSON shape of every recoverable error response.
type ErrorBody struct {
	Details string `json:"Details"`
}
