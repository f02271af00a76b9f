// Package validator проверка конфигураций и входящих запросов liftmon.
//
// Поверх go-playground/validator зарегистрированы правила адресов: httpurl для REST сервера
// аномалий и websocket для ленты событий. Строковые поля с тегом conform перед проверкой
// нормализуются (обрезка пробелов в запросах диагностики).
package validator

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/leebenson/conform"
)

// Дополнительные правила проверки по имени тега
var rules = map[string]validator.Func{
	"httpurl":   validatorURL("http", "https"),
	"websocket": validatorURL("ws", "wss"),
}

var (
	valid *Validator
	once  sync.Once
)

// Validator проверка структур по тегам validate. Общий экземпляр отдаёт Get
type Validator struct {
	validate *validator.Validate
}

// NewValidator валидатор с правилами liftmon
func NewValidator() (*Validator, error) {
	v := validator.New()
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, errors.Annotatef(err, "ошибка регистрации правила %q", tag)
		}
	}
	return &Validator{validate: v}, nil
}

// Validate проверка структуры без изменения данных
func (m *Validator) Validate(i interface{}) error {
	return m.validate.Struct(i)
}

// ValidateWithConform нормализация строк по тегам conform и проверка структуры
func (m *Validator) ValidateWithConform(i interface{}) error {
	if err := conform.Strings(i); err != nil {
		return errors.Annotate(err, "ошибка нормализации")
	}
	return m.validate.Struct(i)
}

// Get общий валидатор. Набор правил фиксирован, поэтому ошибка регистрации означает ошибку в коде
func Get() *Validator {
	once.Do(func() {
		v, err := NewValidator()
		if err != nil {
			panic(err)
		}
		valid = v
	})
	return valid
}
