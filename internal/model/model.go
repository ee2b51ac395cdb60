// Package model содержит доменные сущности симулятора интернет-магазина.
package model

import "time"

// User представляет зарегистрированного пользователя магазина.
type User struct {
	ID          string
	Email       string
	Name        string
	Active      bool
	CreatedAt   time.Time
	LastLoginAt time.Time
}

// Product описывает товар каталога.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Category    string
	Active      bool
}

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Terminal сообщает, является ли статус конечным.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// OrderItem описывает одну позицию заказа.
type OrderItem struct {
	ProductID string
	Quantity  int
	Price     float64
}

// Order описывает заказ пользователя. Итоговая сумма не хранится,
// а всегда вычисляется заново по текущим позициям.
type Order struct {
	ID        string
	UserID    string
	Items     []OrderItem
	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalAmount возвращает сумму заказа, пересчитанную по позициям.
func (o *Order) TotalAmount() float64 {
	var total float64
	for _, it := range o.Items {
		total += float64(it.Quantity) * it.Price
	}
	return total
}

// NotificationType описывает тип уведомления.
type NotificationType string

const (
	NotificationWelcome           NotificationType = "WELCOME"
	NotificationOrderConfirmation NotificationType = "ORDER_CONFIRMATION"
	NotificationShippingUpdate    NotificationType = "SHIPPING_UPDATE"
	NotificationSupportTicket     NotificationType = "SUPPORT_TICKET"
	NotificationPromotional       NotificationType = "PROMOTIONAL"
	NotificationSystemAlert       NotificationType = "SYSTEM_ALERT"
)

// MaxNotificationRetries ограничивает число повторных попыток доставки уведомления.
const MaxNotificationRetries = 3

// Notification описывает уведомление пользователю и состояние его доставки.
type Notification struct {
	ID         string
	UserID     string
	Title      string
	Message    string
	Type       NotificationType
	CreatedAt  time.Time
	Sent       bool
	SentAt     time.Time
	RetryCount int
}

// MarkSent помечает уведомление как доставленное.
func (n *Notification) MarkSent(now time.Time) {
	n.Sent = true
	n.SentAt = now
}

// ShouldRetry сообщает, нужно ли повторить доставку после неудачной попытки.
func (n *Notification) ShouldRetry() bool {
	return !n.Sent && n.RetryCount < MaxNotificationRetries
}
