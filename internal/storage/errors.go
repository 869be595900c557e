package storage

import "errors"

// ErrFormNotFound возвращается, когда для сессии нет сохраненной формы
var ErrFormNotFound = errors.New("form not found")

// ErrAgentConflict возвращается, когда запись агента с таким ID уже существует
var ErrAgentConflict = errors.New("agent record conflict")

// ErrStorageClosed возвращается при обращении к закрытому хранилищу
var ErrStorageClosed = errors.New("storage is closed")
