package middleware

// gin.Context 键
const (
	KeyRequestID = "X-Request-ID"
	KeyUserID    = "userId"
	KeyUserName  = "userName"
	KeyRole      = "role"
	KeySessionID = "sid"
	KeySession   = "session"
)
