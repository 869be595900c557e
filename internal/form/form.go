// Package form описывает состояние формы генерации номера поддержки.
// Форма хранит список URL, черновик ввода, полученный номер телефона
// и флаг загрузки. Все изменения выполняются только через методы формы.
package form

import (
	"errors"
	"strings"
)

// ErrSubmitInProgress возвращается при попытке повторной отправки,
// пока предыдущий запрос еще не завершен
var ErrSubmitInProgress = errors.New("submission already in progress")

// ErrIndexOutOfRange возвращается при удалении URL по несуществующему индексу
var ErrIndexOutOfRange = errors.New("URL index out of range")

// ErrNotSubmitting возвращается при завершении отправки, которая не начиналась
var ErrNotSubmitting = errors.New("no submission in progress")

// ErrStaleSubmission возвращается, когда результат относится к другой отправке,
// например форма была сброшена, пока запрос выполнялся
var ErrStaleSubmission = errors.New("stale submission result")

// State состояние жизненного цикла отправки
type State string

const (
	// StateIdle форма ожидает ввода, номер еще не получен
	StateIdle State = "idle"
	// StateSubmitting запрос на создание агента выполняется
	StateSubmitting State = "submitting"
	// StateDisplayingNumber номер получен и отображается
	StateDisplayingNumber State = "displaying_number"
)

// Form состояние формы одной сессии
type Form struct {
	URLs        []string `json:"urls"`
	Draft       string   `json:"draft"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	Loading     bool     `json:"loading"`
	Notice      string   `json:"notice,omitempty"`

	// SubmissionID идентифицирует выполняющуюся отправку
	SubmissionID string `json:"submission_id,omitempty"`
}

// New создает пустую форму
func New() *Form {
	return &Form{URLs: []string{}}
}

// State вычисляет текущее состояние по полям формы
func (f *Form) State() State {
	switch {
	case f.Loading:
		return StateSubmitting
	case f.PhoneNumber != "":
		return StateDisplayingNumber
	default:
		return StateIdle
	}
}

// SetDraft заменяет текст черновика
func (f *Form) SetDraft(text string) {
	f.Draft = text
}

// AddURL добавляет обрезанный текст в конец списка и очищает черновик.
// Пустая после обрезки строка список не меняет, черновик при этом сохраняется.
// Формат URL не проверяется.
func (f *Form) AddURL(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		f.Draft = text
		return false
	}

	f.URLs = append(f.URLs, trimmed)
	f.Draft = ""
	return true
}

// RemoveURL удаляет ровно один элемент по индексу, порядок остальных сохраняется
func (f *Form) RemoveURL(index int) error {
	if index < 0 || index >= len(f.URLs) {
		return ErrIndexOutOfRange
	}

	urls := make([]string, 0, len(f.URLs)-1)
	urls = append(urls, f.URLs[:index]...)
	urls = append(urls, f.URLs[index+1:]...)
	f.URLs = urls
	return nil
}

// BeginSubmit переводит форму в состояние отправки и возвращает копию списка URL.
// Список может быть пустым, но не nil.
func (f *Form) BeginSubmit(submissionID string) ([]string, error) {
	if f.Loading {
		return nil, ErrSubmitInProgress
	}

	f.Loading = true
	f.Notice = ""
	f.SubmissionID = submissionID
	return f.urlsCopy(), nil
}

// CompleteSubmit сохраняет отформатированный номер и снимает флаг загрузки
func (f *Form) CompleteSubmit(submissionID, phoneNumber string) error {
	if err := f.checkSubmission(submissionID); err != nil {
		return err
	}

	f.PhoneNumber = phoneNumber
	f.finishSubmit()
	return nil
}

// FailSubmit снимает флаг загрузки и выставляет уведомление об ошибке.
// Ранее показанный номер не меняется.
func (f *Form) FailSubmit(submissionID, notice string) error {
	if err := f.checkSubmission(submissionID); err != nil {
		return err
	}

	f.Notice = notice
	f.finishSubmit()
	return nil
}

func (f *Form) checkSubmission(submissionID string) error {
	if !f.Loading {
		return ErrNotSubmitting
	}
	if f.SubmissionID != submissionID {
		return ErrStaleSubmission
	}
	return nil
}

func (f *Form) finishSubmit() {
	f.Loading = false
	f.SubmissionID = ""
}

// TakeNotice возвращает уведомление и очищает его
func (f *Form) TakeNotice() string {
	notice := f.Notice
	f.Notice = ""
	return notice
}

// Clone возвращает глубокую копию формы
func (f *Form) Clone() *Form {
	c := *f
	c.URLs = f.urlsCopy()
	return &c
}

func (f *Form) urlsCopy() []string {
	urls := make([]string, len(f.URLs))
	copy(urls, f.URLs)
	return urls
}
