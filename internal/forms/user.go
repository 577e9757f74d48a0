package forms

import (
	"net/url"
)

// InvalidCredentialsMessage is attached to the username field when login fails.
const InvalidCredentialsMessage = "Invalid username/password."

// maxPasswordBytes matches bcrypt's input limit. The max=72 tag counts
// characters, so multi-byte passwords need the extra byte check.
const maxPasswordBytes = 72

// RegisterForm is the account sign-up form.
type RegisterForm struct {
	Username  string `form:"username"   validate:"required,max=20"`
	Password  string `form:"password"   validate:"required,min=6,max=72"`
	Email     string `form:"email"      validate:"required,email,max=50"`
	FirstName string `form:"first_name" validate:"required,max=30"`
	LastName  string `form:"last_name"  validate:"required,max=30"`
}

// ParseRegister reads and validates a sign-up submission. The password is
// taken verbatim; every other field is trimmed.
func ParseRegister(values url.Values) (RegisterForm, Errors) {
	form := RegisterForm{
		Username:  field(values, "username"),
		Password:  values.Get("password"),
		Email:     field(values, "email"),
		FirstName: field(values, "first_name"),
		LastName:  field(values, "last_name"),
	}

	errs := check(form)
	if len(form.Password) > maxPasswordBytes && errs.Get("password") == "" {
		errs.Add("password", "Field cannot be longer than 72 bytes.")
	}
	return form, errs
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// ParseLogin reads and validates a sign-in submission. Only presence is
// checked; whether the credentials are right is the auth service's call.
func ParseLogin(values url.Values) (LoginForm, Errors) {
	form := LoginForm{
		Username: field(values, "username"),
		Password: values.Get("password"),
	}
	return form, check(form)
}
