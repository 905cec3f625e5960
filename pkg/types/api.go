package types

// PredictRequest is the payload accepted by POST /predict.
type PredictRequest struct {
	// Feature map handed verbatim to the model runtime.
	// example: {"latitude": 51.5, "longitude": -0.13, "bedrooms": 2}
	ModelParams map[string]any `json:"model_params"`
}

// PredictResponse is returned by POST /predict on success.
type PredictResponse struct {
	// Predicted value produced by the model.
	// example: 2150.75
	Prediction float64 `json:"prediction"`
	// Echo of the submitted feature map.
	Inputs map[string]any `json:"inputs"`
	// Training run that produced the loaded model.
	// example: 4f8c2a1be0d94b0f
	RunID string `json:"run_id,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: missing 'model_params' in request
	Error string `json:"error" example:"missing 'model_params' in request"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Training run id from the run-info sidecar.
	// example: 4f8c2a1be0d94b0f
	RunID string `json:"run_id,omitempty"`
	// Model artifact URI the server loaded at boot.
	// example: gs://models/rent-price/artifacts/pipeline_model
	ModelURI string `json:"model_uri"`
	// Runtime lifecycle state: loading, ready, stopped.
	// example: ready
	State string `json:"state"`
	// Seconds since the process started.
	// example: 3600
	UptimeSec int64 `json:"uptime_sec"`
}
