package validator

import (
	"net/url"

	"github.com/go-playground/validator/v10"
)

// Валидатор ссылки с одной из схем schemes и непустым хостом
func validatorURL(schemes ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		address, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		addr, err := url.Parse(address)
		if err != nil || addr.Host == "" {
			return false
		}
		for _, v := range schemes {
			if addr.Scheme == v {
				return true
			}
		}
		return false
	}
}
