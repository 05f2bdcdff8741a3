package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	panRegex     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	aadhaarRegex = regexp.MustCompile(`^[0-9]{12}$`)
	ifscRegex    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	upiRegex     = regexp.MustCompile(`^[a-z0-9._-]{2,256}@[a-z][a-z0-9]{1,63}$`)
	phoneRegex   = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

func ValidatePAN(pan string) bool {
	return panRegex.MatchString(pan)
}

func ValidateAadhaar(aadhaar string) bool {
	return aadhaarRegex.MatchString(aadhaar)
}

func ValidateIFSC(ifsc string) bool {
	return ifscRegex.MatchString(ifsc)
}

func ValidateUPI(upi string) bool {
	return upiRegex.MatchString(upi)
}

func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// RegisterValidators adds the pan, aadhaar, ifsc, upi and phone tags to
// gin's binding validator. Values are normalised the same way the services
// normalise them before storing.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine")
	}

	tags := map[string]func(string) bool{
		"pan":     func(s string) bool { return ValidatePAN(strings.ToUpper(strings.TrimSpace(s))) },
		"aadhaar": func(s string) bool { return ValidateAadhaar(strings.TrimSpace(s)) },
		"ifsc":    func(s string) bool { return ValidateIFSC(strings.ToUpper(strings.TrimSpace(s))) },
		"upi":     func(s string) bool { return ValidateUPI(strings.ToLower(strings.TrimSpace(s))) },
		"phone":   func(s string) bool { return ValidatePhone(strings.TrimSpace(s)) },
	}
	for tag, fn := range tags {
		check := fn
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		}); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

// FormatValidationError turns binding errors into a field to message map
func FormatValidationError(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			field := strings.ToLower(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				errors[field] = fmt.Sprintf("%s is required", field)
			case "email":
				errors[field] = "Invalid email format"
			case "min":
				errors[field] = fmt.Sprintf("%s must be at least %s", field, fieldError.Param())
			case "max":
				errors[field] = fmt.Sprintf("%s must be at most %s", field, fieldError.Param())
			case "oneof":
				errors[field] = fmt.Sprintf("%s must be one of: %s", field, fieldError.Param())
			case "pan", "aadhaar", "ifsc", "upi", "phone":
				errors[field] = fmt.Sprintf("Invalid %s format", fieldError.Tag())
			default:
				errors[field] = fmt.Sprintf("%s is invalid", field)
			}
		}
	}

	return errors
}
