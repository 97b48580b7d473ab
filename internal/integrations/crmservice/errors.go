package crmservice

import "errors"

var (
	// ErrDealNotFound возвращается, когда сделка не найдена в CRM
	ErrDealNotFound = errors.New("crmservice client: deal not found")

	// ErrProductNotFound возвращается, когда продукт каталога не найден
	ErrProductNotFound = errors.New("crmservice client: product not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("crmservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от CRM
	ErrInvalidResponse = errors.New("crmservice client: invalid response")
)
