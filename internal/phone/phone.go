// Package phone форматирует номера телефонов, полученные от сервиса создания агентов.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion регион, в котором разбираются номера без кода страны
const DefaultRegion = "US"

// Formatter приводит сырые номера к международному виду
type Formatter struct {
	Region string
}

// NewFormatter создает форматтер для указанного региона.
// Пустой регион заменяется на DefaultRegion.
func NewFormatter(region string) *Formatter {
	if region == "" {
		region = DefaultRegion
	}
	return &Formatter{Region: strings.ToUpper(region)}
}

// Format возвращает номер в международном формате, например "+1 415 555 2671".
// Если номер не удается разобрать, возвращается исходная строка без изменений.
func (f *Formatter) Format(raw string) string {
	num, err := phonenumbers.Parse(raw, f.Region)
	if err != nil {
		return raw
	}

	formatted := phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
	if formatted == "" {
		return raw
	}
	return internationalSeparators(formatted)
}

// internationalSeparators заменяет пунктуацию между группами цифр одиночными пробелами:
// "+1 415-555-2671" -> "+1 415 555 2671". Добавочный номер ("ext. 12") не меняется.
func internationalSeparators(formatted string) string {
	number, extension := formatted, ""
	if i := strings.IndexFunc(formatted, unicode.IsLetter); i >= 0 {
		number, extension = formatted[:i], formatted[i:]
	}

	fields := strings.FieldsFunc(number, func(r rune) bool {
		switch r {
		case ' ', '-', '.', '/', '(', ')', '\u00a0':
			return true
		}
		return false
	})
	result := strings.Join(fields, " ")
	if extension != "" {
		result += " " + extension
	}
	return result
}
