package models

// PostResponse is the response envelope shared by all mutating endpoints.
type PostResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// LoginResponse extends the envelope with the issued device token.
type LoginResponse struct {
	StatusCode  int    `json:"statusCode"`
	Message     string `json:"message"`
	DeviceToken string `json:"deviceToken"`
}

// Response message constants, kept identical to the mobile client contract.
const (
	MsgLoginOK          = "LOGIN_OK"
	MsgLoginFail        = "LOGIN_FAIL"
	MsgAlreadyLogged    = "ALREADY_LOGGED"
	MsgInvalidToken     = "INVALID_TOKEN"
	MsgLogoutOK         = "LOGOUT_OK"
	MsgRegisterOK       = "REGISTER_OK"
	MsgRegisterFail     = "REGISTER_FAIL"
	MsgBadBirthdate     = "REGISTER_FAILED_INVALID_BIRTHDATE"
	MsgUsernameUsed     = "REGISTER_FAILED_USERNAME_USED"
	MsgEmailUsed        = "REGISTER_FAILED_EMAIL_USED"
	MsgSignInOK         = "SIGN_IN_OK"
	MsgSignInFail       = "SIGN_IN_FAIL"
	MsgSignOutOK        = "SIGN_OUT_OK"
	MsgSignOutFail      = "SIGN_OUT_FAIL"
	MsgEnterSessionOK   = "ENTER_SESSION_OK"
	MsgEnterSessionFail = "ENTER_SESSION_FAIL"
	MsgLeaveSessionOK   = "LEAVE_SESSION_OK"
	MsgLeaveSessionFail = "LEAVE_SESSION_FAIL"
	MsgEmailSent        = "EMAIL_SENT"
	MsgEmailNotSent     = "EMAIL_NOT_SENT"
	MsgChangePassOK     = "CHANGE_PASS_OK"
	MsgChangePassFail   = "CHANGE_PASS_FAIL"
	MsgCreateSessionOK  = "CREATE_SESSION_OK"
	MsgCreateSessionFail = "CREATE_SESSION_FAIL"
	MsgSessionCancelOK  = "SESSION_CANCEL_OK"
	MsgSessionCancelFail = "SESSION_CANCEL_FAIL"
	MsgSessionStartOK   = "SESSION_START_OK"
	MsgSessionStartFail = "SESSION_START_FAIL"
	MsgSessionCloseOK   = "SESSION_CLOSE_OK"
	MsgSessionCloseFail = "SESSION_CLOSE_FAIL"
	MsgSummaryOK        = "SUMMARY_OK"
	MsgSummaryFail      = "SUMMARY_FAIL"
)

// OK builds a 200 envelope.
func OK(message string) PostResponse {
	return PostResponse{StatusCode: 200, Message: message}
}

// Fail builds a 400 envelope.
func Fail(message string) PostResponse {
	return PostResponse{StatusCode: 400, Message: message}
}
