package api

import (
	"context"
	"net/http"
	"net/url"
)

// Headers sent with the login form.
const (
	HeaderRecaptcha  = "recaptcha"
	HeaderCaptchaKey = "key"
)

// MaskedContact is the masked contact data shown before an OTP step.
type MaskedContact struct {
	MaskedMobileNumber string `json:"maskedMobileNumber"`
	MaskedEmail        string `json:"maskedEmail"`
}

// ValidatedUser is returned by ValidateUser.
type ValidatedUser struct {
	MaskedContact
	Token string `json:"token"`
}

// Attempts is returned by the send/resend endpoints.
type Attempts struct {
	NumberOfAttempts int `json:"numberOfAttempts"`
}

// FlowToken is a short-lived token chaining flow steps.
type FlowToken struct {
	Token string `json:"token"`
}

// Registration is returned by Register.
type Registration struct {
	MaskedMobileNumber string `json:"maskedMobileNumber"`
	Token              string `json:"token"`
}

// RegistrationForm carries the base64 encoded PDF form.
type RegistrationForm struct {
	File string `json:"file"`
}

// Tokens is the token response of login and refresh. RefreshToken may be
// empty on refresh.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// LoginRequest is the login form.
type LoginRequest struct {
	Username   string
	Password   string
	Captcha    string
	CaptchaKey string
}

// User is the authenticated user's profile.
type User struct {
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	Roles           []string `json:"roles"`
	CompanyName     string   `json:"companyName"`
	CIF             string   `json:"cif"`
	SoftTokenID     string   `json:"softTokenId"`
	SoftTokenSerial string   `json:"softTokenSerial"`
	SoftTokenStatus string   `json:"softTokenStatus"`
}

type usernameBody struct {
	Username string `json:"username"`
}

// ActivationUserDetails returns the masked contact data of an account
// pending activation.
func (c *Client) ActivationUserDetails(ctx context.Context, username string) (MaskedContact, error) {
	var out MaskedContact
	err := c.postJSON(ctx, "/activate/userDetails", usernameBody{Username: username}, &out)
	return out, err
}

// ActivationResend issues a new activation code.
func (c *Client) ActivationResend(ctx context.Context, username string) (Attempts, error) {
	var out Attempts
	err := c.postJSON(ctx, "/activate/regenerate", usernameBody{Username: username}, &out)
	return out, err
}

// ActivationVerify checks an activation code.
func (c *Client) ActivationVerify(ctx context.Context, username, code string) error {
	return c.postJSON(ctx, "/activate/validate", struct {
		Username       string `json:"username"`
		ActivationCode string `json:"activationcode"`
	}{username, code}, nil)
}

// ActivationSetPassword sets the first password of an activated account.
func (c *Client) ActivationSetPassword(ctx context.Context, username, password string) error {
	return c.postJSON(ctx, "/activate/setPassword", struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, password}, nil)
}

// ValidateUser starts a forgot-password journey.
func (c *Client) ValidateUser(ctx context.Context, username, companyID string) (ValidatedUser, error) {
	var out ValidatedUser
	err := c.postJSON(ctx, "/auth/validate-user", struct {
		Username  string `json:"username"`
		CompanyID string `json:"companyId"`
	}{username, companyID}, &out)
	return out, err
}

type otpTokenBody struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// SendOTP sends the first one-time passcode of a journey.
func (c *Client) SendOTP(ctx context.Context, username, token string) (Attempts, error) {
	var out Attempts
	err := c.postJSON(ctx, "/otp/send", otpTokenBody{username, token}, &out)
	return out, err
}

// ResendOTP sends a new one-time passcode.
func (c *Client) ResendOTP(ctx context.Context, username, token string) (Attempts, error) {
	var out Attempts
	err := c.postJSON(ctx, "/otp/resend", otpTokenBody{username, token}, &out)
	return out, err
}

// VerifyOTP checks a passcode and returns the token for the next step.
func (c *Client) VerifyOTP(ctx context.Context, username, otp, token string) (FlowToken, error) {
	var out FlowToken
	err := c.postJSON(ctx, "/otp/validate", struct {
		Username string `json:"username"`
		OTP      string `json:"otp"`
		Token    string `json:"token"`
	}{username, otp, token}, &out)
	return out, err
}

// ForgetPassword sets a new password at the end of a forgot-password
// journey.
func (c *Client) ForgetPassword(ctx context.Context, username, password, token string) error {
	return c.postJSON(ctx, "/auth/forget-password", struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Token    string `json:"token"`
	}{username, password, token}, nil)
}

// Register starts a registration journey.
func (c *Client) Register(ctx context.Context, companyID, mobileNumber string) (Registration, error) {
	var out Registration
	err := c.postJSON(ctx, "/user/register", struct {
		CompanyID    string `json:"companyId"`
		MobileNumber string `json:"mobileNumber"`
	}{companyID, mobileNumber}, &out)
	return out, err
}

// RegistrationForm downloads the registration form of a verified journey.
func (c *Client) RegistrationForm(ctx context.Context, username, token string) (RegistrationForm, error) {
	var out RegistrationForm
	err := c.postJSON(ctx, "/user/getForm", otpTokenBody{username, token}, &out)
	return out, err
}

// Login submits credentials as a url-encoded form with the captcha
// headers.
func (c *Client) Login(ctx context.Context, req LoginRequest) (Tokens, error) {
	form := url.Values{}
	form.Set("username", req.Username)
	form.Set("password", req.Password)

	header := http.Header{}
	if req.Captcha != "" {
		header.Set(HeaderRecaptcha, req.Captcha)
	}
	if req.CaptchaKey != "" {
		header.Set(HeaderCaptchaKey, req.CaptchaKey)
	}

	var out Tokens
	err := c.postForm(ctx, "/auth/mobile/login", form, header, &out)
	return out, err
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	var out Tokens
	err := c.postJSON(ctx, "/auth/refresh", struct {
		RefreshToken string `json:"refreshToken"`
	}{refreshToken}, &out)
	return out, err
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.postJSON(ctx, "/auth/logout", struct{}{}, nil)
}

// Me returns the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	err := c.get(ctx, "/auth/me", &out)
	return out, err
}
