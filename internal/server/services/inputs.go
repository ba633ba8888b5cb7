package services

import (
	"errors"

	"github.com/dmitrijs2005/soundhub/internal/common"
	"github.com/dmitrijs2005/soundhub/internal/server/auth"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	MaxEmailLength = 150

	msgRequired        = "This field is required."
	msgInvalidEmail    = "Enter a valid email address."
	msgEmailTooLong    = "Ensure this field has no more than 150 characters."
	msgEmailTaken      = "user with this email already exists."
	msgOldPassword     = "Old password isn't correct"
	msgPasswordsDiffer = "Password fields didn't match"
)

var (
	required   = validation.Required.Error(msgRequired)
	emailRules = []validation.Rule{
		required,
		validation.RuneLength(0, MaxEmailLength).Error(msgEmailTooLong),
		is.Email.Error(msgInvalidEmail),
	}
)

type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in SignUpInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, emailRules...),
	)
	ve, err := toValidationError(err)
	if err != nil {
		return err
	}
	if msgs := auth.ValidatePassword(in.Password, in.Email); len(msgs) > 0 {
		for _, m := range msgs {
			ve.Add("password", m)
		}
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in SignInInput) Validate() error {
	return validationResult(validation.ValidateStruct(&in,
		validation.Field(&in.Email, required),
		validation.Field(&in.Password, required),
	))
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token"`
}

func (in RefreshInput) Validate() error {
	return validationResult(validation.ValidateStruct(&in,
		validation.Field(&in.RefreshToken, required),
	))
}

type ChangePasswordInput struct {
	OldPassword  string `json:"old_password"`
	NewPassword  string `json:"new_password"`
	NewPassword2 string `json:"new_password_2"`
}

func (in ChangePasswordInput) Validate() error {
	return validationResult(validation.ValidateStruct(&in,
		validation.Field(&in.OldPassword, required),
		validation.Field(&in.NewPassword, required),
		validation.Field(&in.NewPassword2, required),
	))
}

type ResetRequestInput struct {
	Email string `json:"email"`
}

func (in ResetRequestInput) Validate() error {
	return validationResult(validation.ValidateStruct(&in,
		validation.Field(&in.Email, emailRules...),
	))
}

type ResetConfirmInput struct {
	NewPassword string `json:"new_password"`
}

func (in ResetConfirmInput) Validate() error {
	return validationResult(validation.ValidateStruct(&in,
		validation.Field(&in.NewPassword, required),
	))
}

// toValidationError converts ozzo field errors into a
// *common.ValidationError. Rule evaluation failures are returned as err.
func toValidationError(err error) (*common.ValidationError, error) {
	ve := &common.ValidationError{Fields: map[string][]string{}}
	if err == nil {
		return ve, nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}
	for field, fe := range fieldErrs {
		if fe != nil {
			ve.Add(field, fe.Error())
		}
	}
	return ve, nil
}

func validationResult(err error) error {
	ve, err := toValidationError(err)
	if err != nil {
		return err
	}
	if len(ve.Fields) == 0 {
		return nil
	}
	return ve
}
