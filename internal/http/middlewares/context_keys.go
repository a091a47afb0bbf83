package middlewares

const (
	// gin context keys
	CtxRequestID = "request_id"
	CtxCaller    = "auth.caller"
)
