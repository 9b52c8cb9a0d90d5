package configurator

import (
	"sync"
	"time"
)

// Debouncer откладывает запуск функции до паузы во вводе. Один слот:
// новый Trigger отменяет ожидающий запуск.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Debouncer{delay: delay}
}

// Trigger планирует fn через delay, отменяя предыдущий вызов.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if seq != d.seq {
			// пока ждали блокировку, пришёл новый ввод
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel отменяет ожидающий вызов. Возвращает true, если он был.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.seq++
	return true
}

// Pending сообщает, ждёт ли запуск.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
