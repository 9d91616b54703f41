package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kenova/core"
)

var (
	userRoleTag  = "userrole"
	userRoleText = "{0} must be one of superadmin, teacher, student or parent"
)

// InitValidators registers the user validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(userRoleTag, userRoleValidation)
	core.RegisterCustomTranslation(validate, translator, userRoleTag, userRoleText)
}

// Custom Validators

// userRoleValidation checks that the field holds one of AllRoles
func userRoleValidation(fl validator.FieldLevel) bool {
	switch role := fl.Field().Interface().(type) {
	case string:
		return Role(role).IsValid()
	case Role:
		return role.IsValid()
	}
	return false
}
