package user

// BirthDateLayout is the stored birth date format, day/month/year without
// zero padding.
const BirthDateLayout = "2/1/2006"

// User is the account document. Password holds the bcrypt hash, never the
// plain text.
type User struct {
	Username  string `bson:"username"`
	Password  string `bson:"password"`
	Email     string `bson:"email"`
	FirstName string `bson:"first_name"`
	LastName  string `bson:"last_name"`
	BirthDate string `bson:"birth_date"`
	Gender    string `bson:"gender"`
}

// Teacher is a staff account. Teachers are provisioned out of band and only
// ever authenticate.
type Teacher struct {
	Name     string `bson:"name"`
	Password string `bson:"password"`
}

// Details is the wire shape of a user profile. Age is derived from the
// stored birth date at read time.
type Details struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
}

// LoginRequest is the body of login-user.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LogoutRequest is the body of logout-user.
type LogoutRequest struct {
	Username string `json:"username" binding:"required"`
}

// RegisterRequest is the body of register-user.
type RegisterRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Email      string `json:"email" binding:"required"`
	FirstName  string `json:"firstName" binding:"required"`
	LastName   string `json:"lastName" binding:"required"`
	BirthDay   int    `json:"birthDay" binding:"required"`
	BirthMonth int    `json:"birthMonth" binding:"required"`
	BirthYear  int    `json:"birthYear" binding:"required"`
	Gender     string `json:"gender" binding:"required"`
}

// RecoveryRequest is the body of send-recovery-email. The code is generated
// by the mobile client and carried into the email verbatim.
type RecoveryRequest struct {
	Username     string `json:"username" binding:"required"`
	Code         int    `json:"code" binding:"required"`
	LanguageCode string `json:"languageCode" binding:"required"`
}

// RecoveryResponse carries the short-lived token the client must present
// back on change-password.
type RecoveryResponse struct {
	StatusCode    int    `json:"statusCode"`
	Message       string `json:"message"`
	RecoveryToken string `json:"recoveryToken"`
}

// ChangePasswordRequest is the body of change-password.
type ChangePasswordRequest struct {
	Username      string `json:"username" binding:"required"`
	NewPassword   string `json:"newPassword" binding:"required"`
	RecoveryToken string `json:"recoveryToken" binding:"required"`
}

// TeacherLoginRequest is the body of login-teacher.
type TeacherLoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}
