// Package models содержит доменные структуры, описывающие подписчика
// сервиса уведомлений, а также вспомогательные типы для работы с данными
// из внешних источников (например, JSON-запросы).
package models

import "time"

// Subscriber представляет собой основную модель подписчика,
// используемую в бизнес-логике и хранилище.
// Email хранится в нижнем регистре и уникально идентифицирует запись.
// PaymentDate может быть nil — это означает, что оплата ещё не подтверждена.
type Subscriber struct {
	UID              string     `json:"-"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	CountryFrom      string     `json:"countryFrom"`
	CityFrom         string     `json:"cityFrom"`
	CountryTo        string     `json:"countryTo,omitempty"`
	CityTo           string     `json:"cityTo,omitempty"`
	SubscriptionType string     `json:"subscriptionType"`
	PaymentDate      *time.Time `json:"paymentDate"`
	CreatedAt        time.Time  `json:"-"`
	UpdatedAt        time.Time  `json:"-"`
}

// DummySubscriber используется для приёма данных из JSON-запроса,
// прежде чем конвертировать их в Subscriber.
// PaymentDate приходит в виде строки RFC 3339, чтобы её можно было
// валидировать и парсить вручную.
type DummySubscriber struct {
	Email            string `json:"email" validate:"required,email"`        // Адрес почты, ключ записи
	Phone            string `json:"phone" validate:"required"`              // Телефон
	CountryFrom      string `json:"countryFrom" validate:"required"`        // Страна отправления
	CityFrom         string `json:"cityFrom" validate:"required"`           // Город отправления
	CountryTo        string `json:"countryTo"`                              // Страна назначения (необязательно)
	CityTo           string `json:"cityTo"`                                 // Город назначения (необязательно)
	SubscriptionType string `json:"subscriptionType" validate:"required"`   // Тип подписки
	PaymentDate      string `json:"paymentDate" validate:"omitempty"`       // Дата оплаты RFC 3339 (необязательно)
}

// DummyConfirmPayment используется для приёма запроса ручного
// подтверждения оплаты после редиректа от платёжного провайдера.
type DummyConfirmPayment struct {
	Email            string `json:"email" validate:"required,email"`
	SubscriptionType string `json:"subscriptionType" validate:"required"`
	PaymentDate      string `json:"paymentDate" validate:"required"`
}

// PaymentConfirmation описывает сообщение для очереди уведомлений,
// публикуемое после подтверждённой оплаты.
type PaymentConfirmation struct {
	Email            string    `json:"email"`
	SubscriptionType string    `json:"subscription_type"`
	PaymentDate      time.Time `json:"payment_date"`
}
