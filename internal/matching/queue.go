// Package matching собирает подключённых игроков в партии фиксированного размера.
package matching

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrAlreadyQueued reports a second enqueue of a waiter already in the queue.
var ErrAlreadyQueued = errors.New("already queued")

// Waiter — соединение, ожидающее набора партии.
// Реализации должны быть сравнимыми значениями (на практике указателями),
// очередь различает участников по идентичности.
type Waiter interface {
	Nickname() string
}

// waiterEntry — позиция участника в очереди. Отменённая запись остаётся
// в срезе надгробием и пропускается при выдаче.
type waiterEntry struct {
	w         Waiter
	cancelled bool
}

// Queue — FIFO очередь матчмейкинга.
// Потокобезопасна: один мьютекс сериализует все операции, поэтому ровно
// один Enqueue наблюдает заполнение и забирает всю партию.
type Queue struct {
	mu      sync.Mutex
	size    int
	entries []*waiterEntry      // порядок постановки, включая надгробия
	members map[Waiter]*waiterEntry // живые участники
}

// NewQueue создаёт очередь, выдающую партии по size участников.
func NewQueue(size int) *Queue {
	return &Queue{
		size:    size,
		members: make(map[Waiter]*waiterEntry),
	}
}

// Enqueue ставит w в очередь.
// Пока партия не набрана, возвращает snapshot всех ожидающих (включая w)
// в порядке постановки и full=false. Когда w оказывается size-м участником,
// очередь опустошается и возвращаются все size участников с full=true.
// Возвращает ErrAlreadyQueued, если w уже стоит в очереди.
func (q *Queue) Enqueue(w Waiter) ([]Waiter, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.members[w]; ok {
		return nil, false, ErrAlreadyQueued
	}

	e := &waiterEntry{w: w}
	q.entries = append(q.entries, e)
	q.members[w] = e
	slog.Debug("player queued", "nickname", w.Nickname(), "waiting", len(q.members))

	if len(q.members) < q.size {
		return q.waitersLocked(), false, nil
	}

	party := q.waitersLocked()
	q.entries = nil
	q.members = make(map[Waiter]*waiterEntry)
	slog.Debug("party assembled", "size", len(party))
	return party, true, nil
}

// Cancel помечает запись w надгробием и сообщает, стоял ли он в очереди.
// Срез не сжимается на каждую отмену: надгробия пропускаются при выдаче,
// уплотнение амортизированное — когда их накапливается больше живых.
func (q *Queue) Cancel(w Waiter) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.members[w]
	if !ok {
		return false
	}
	e.cancelled = true
	delete(q.members, w)

	if len(q.entries) > 2*len(q.members) {
		q.compactLocked()
	}
	slog.Debug("player left queue", "nickname", w.Nickname(), "waiting", len(q.members))
	return true
}

// Contains сообщает, стоит ли w в очереди.
func (q *Queue) Contains(w Waiter) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.members[w]
	return ok
}

// Len возвращает число ожидающих.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.members)
}

func (q *Queue) waitersLocked() []Waiter {
	out := make([]Waiter, 0, len(q.members))
	for _, e := range q.entries {
		if !e.cancelled {
			out = append(out, e.w)
		}
	}
	return out
}

func (q *Queue) compactLocked() {
	live := q.entries[:0]
	for _, e := range q.entries {
		if !e.cancelled {
			live = append(live, e)
		}
	}
	q.entries = live
}
