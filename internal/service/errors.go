// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrStorageDisabled — PostgreSQL не настроен, сохранение недоступно.
	ErrStorageDisabled = errors.New("хранилище консоли не настроено")
)
