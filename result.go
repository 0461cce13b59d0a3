package grokflag

import "errors"

// Result is the outcome of one UpdateUserFeatureControls call.
// OK is true exactly when Error is empty.
type Result struct {
	OK         bool    `json:"ok"`
	HexReply   string  `json:"hex_reply"`
	StatusCode *int    `json:"status_code"`
	GRPCStatus *string `json:"grpc_status"`
	Error      string  `json:"error,omitempty"`

	// GRPCMessage and TrailerStatus are diagnostics decoded from the
	// grpc-message header or a trailer frame in the body. They never
	// affect OK.
	GRPCMessage   string `json:"grpc_message,omitempty"`
	TrailerStatus string `json:"trailer_status,omitempty"`
}

// failure builds a record for a call that never produced an HTTP response.
func failure(err error) Result {
	return Result{OK: false, HexReply: "", Error: err.Error()}
}

// Err returns the failure as an error, or nil when the call succeeded.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return errors.New(r.Error)
}

// Status returns the HTTP status code, or 0 when no response was received.
func (r Result) Status() int {
	if r.StatusCode == nil {
		return 0
	}
	return *r.StatusCode
}
