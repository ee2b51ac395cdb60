// Package notification реализует очередь уведомлений с ограниченными повторами доставки.
package notification

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/shopsim-system/internal/clock"
	"github.com/mmeshcher/shopsim-system/internal/model"
)

// deliverySuccessRate — вероятность успешной доставки при одной попытке.
const deliverySuccessRate = 0.9

// Rand — источник случайности очереди: байты для идентификаторов
// и числа для имитации исхода доставки.
type Rand interface {
	io.Reader
	Float64() float64
}

// Queue — неограниченная FIFO-очередь уведомлений. Доставка имитируется:
// попытка удаётся с вероятностью 0.9, неудачные уведомления возвращаются
// в хвост очереди и перемешиваются с новыми, пока не исчерпают лимит
// повторов, после чего отбрасываются с записью в журнал.
type Queue struct {
	mu      sync.Mutex
	pending []*model.Notification
	sent    int
	dropped int

	clk    clock.Clock
	rnd    Rand
	logger *zap.Logger
}

// NewQueue создаёт пустую очередь уведомлений.
func NewQueue(clk clock.Clock, rnd Rand, logger *zap.Logger) *Queue {
	return &Queue{
		clk:    clk,
		rnd:    rnd,
		logger: logger,
	}
}

// Enqueue ставит уведомление указанного типа в хвост очереди и возвращает его идентификатор.
func (q *Queue) Enqueue(userID, title, message string, typ model.NotificationType) string {
	n := &model.Notification{
		ID:        uuid.Must(uuid.NewRandomFromReader(q.rnd)).String(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		CreatedAt: q.clk.Now(),
	}

	q.mu.Lock()
	q.pending = append(q.pending, n)
	q.mu.Unlock()

	q.logger.Debug("queued notification",
		zap.String("notification", n.ID),
		zap.String("user", userID),
		zap.String("type", string(typ)))
	return n.ID
}

// EnqueueWelcome ставит в очередь приветственное уведомление.
func (q *Queue) EnqueueWelcome(user model.User) {
	q.Enqueue(user.ID, "Welcome to Our Store!",
		fmt.Sprintf("Thank you for joining us, %s! Enjoy shopping with us.", user.Name),
		model.NotificationWelcome)
}

// EnqueueOrderConfirmation ставит в очередь подтверждение заказа.
func (q *Queue) EnqueueOrderConfirmation(userID string, order model.Order) {
	q.Enqueue(userID, "Order Confirmation",
		fmt.Sprintf("Your order %s has been confirmed. Total: $%.2f", order.ID, order.TotalAmount()),
		model.NotificationOrderConfirmation)
}

// EnqueueShippingUpdate ставит в очередь уведомление об отправке заказа.
func (q *Queue) EnqueueShippingUpdate(userID, orderID string) {
	q.Enqueue(userID, "Order Shipped",
		fmt.Sprintf("Your order %s has been shipped and is on its way!", orderID),
		model.NotificationShippingUpdate)
}

// EnqueueSupportTicket ставит в очередь уведомление о заявке в поддержку.
func (q *Queue) EnqueueSupportTicket(userID, issue string) {
	q.Enqueue(userID, "Support Ticket Created",
		fmt.Sprintf("We've received your support request: %s. We'll get back to you soon!", issue),
		model.NotificationSupportTicket)
}

// EnqueuePromotional ставит в очередь рекламное уведомление.
func (q *Queue) EnqueuePromotional(userID, promotion string) {
	q.Enqueue(userID, "Special Offer!", promotion, model.NotificationPromotional)
}

// DrainBatch снимает из головы очереди до maxCount уведомлений и выполняет
// по одной попытке доставки для каждого. Неудачные попытки увеличивают
// счётчик повторов: пока он меньше лимита, уведомление возвращается в хвост,
// иначе отбрасывается. Возвращает число выполненных попыток.
func (q *Queue) DrainBatch(maxCount int) int {
	q.mu.Lock()
	n := min(maxCount, len(q.pending))
	batch := q.pending[:n]
	q.pending = q.pending[n:]
	q.mu.Unlock()

	for _, notif := range batch {
		q.attemptDelivery(notif)
	}

	if len(batch) > 0 {
		q.logger.Debug("processed notifications", zap.Int("count", len(batch)))
	}
	return len(batch)
}

func (q *Queue) attemptDelivery(n *model.Notification) {
	if q.rnd.Float64() < deliverySuccessRate {
		n.MarkSent(q.clk.Now())
		q.mu.Lock()
		q.sent++
		q.mu.Unlock()
		q.logger.Debug("sent notification", zap.String("notification", n.ID), zap.String("user", n.UserID))
		return
	}

	n.RetryCount++
	if n.ShouldRetry() {
		q.mu.Lock()
		q.pending = append(q.pending, n)
		q.mu.Unlock()
		q.logger.Debug("delivery failed, queued for retry",
			zap.String("notification", n.ID),
			zap.Int("retries", n.RetryCount))
		return
	}

	q.mu.Lock()
	q.dropped++
	q.mu.Unlock()
	q.logger.Warn("dropped notification after max retries", zap.String("notification", n.ID))
}

// PendingCount возвращает число уведомлений, ожидающих доставки.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// SentCount возвращает число доставленных уведомлений.
func (q *Queue) SentCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sent
}

// DroppedCount возвращает число уведомлений, отброшенных после исчерпания повторов.
func (q *Queue) DroppedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Clear удаляет все ожидающие уведомления и возвращает их число.
func (q *Queue) Clear() int {
	q.mu.Lock()
	cleared := len(q.pending)
	q.pending = nil
	q.mu.Unlock()

	if cleared > 0 {
		q.logger.Info("cleared pending notifications", zap.Int("count", cleared))
	}
	return cleared
}
